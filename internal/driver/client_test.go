/*
gorofex: Primary / ROFEX trading API client for Go
Copyright (C) 2023  The gorofex authors

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU Affero General Public License as published
by the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU Affero General Public License for more details.

You should have received a copy of the GNU Affero General Public License
along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

package driver

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func testServer(t *testing.T, status int) (host string) {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("X-Auth-Token"); got != "" {
			w.Header().Set("X-Echo-Token", got)
		}
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)

	return strings.TrimPrefix(srv.URL, "http://")
}

func TestClient_Get(t *testing.T) {
	logger := zerolog.New(zerolog.NewTestWriter(t))

	okHost := testServer(t, http.StatusOK)
	errHost := testServer(t, http.StatusInternalServerError)

	tests := []struct {
		name           string
		hosts          []string
		wantStatusCode int
		wantErr        bool
	}{
		{
			"lookup failures",
			[]string{"127.0.0.1:1", "127.0.0.1:2"},
			0,
			true,
		},
		{
			"success",
			[]string{okHost},
			200,
			false,
		},
		{
			"success after fails",
			[]string{"127.0.0.1:1", errHost, okHost},
			200,
			false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Client{
				Scheme: "http",
				Hosts:  tt.hosts,
			}

			got, err := c.Get(logger.WithContext(testCTX), "rest/segment/all", nil, nil)
			if (err != nil) != tt.wantErr {
				t.Errorf("Client.Get() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantStatusCode != 0 && got.StatusCode != tt.wantStatusCode {
				t.Errorf("Client.Get() = %v, want %v", got.StatusCode, tt.wantStatusCode)
			}
		})
	}
}

func TestClient_Get_headers(t *testing.T) {
	logger := zerolog.New(zerolog.NewTestWriter(t))

	c := &Client{
		Scheme: "http",
		Hosts:  []string{testServer(t, http.StatusOK)},
	}

	header := http.Header{}
	header.Set("X-Auth-Token", "spanac")

	resp, err := c.Get(logger.WithContext(testCTX), "rest/segment/all", url.Values{"depth": []string{"1"}}, header)
	if err != nil {
		t.Fatal(err)
	}
	if got := resp.Header.Get("X-Echo-Token"); got != "spanac" {
		t.Errorf("Client.Get() echoed token = %s, want %s", got, "spanac")
	}
}

func TestClient_Post(t *testing.T) {
	logger := zerolog.New(zerolog.NewTestWriter(t))

	c := &Client{
		Scheme: "http",
		Hosts:  []string{testServer(t, http.StatusOK)},
	}

	resp, err := c.Post(logger.WithContext(testCTX), "auth/getToken", nil)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 {
		t.Errorf("Client.Post() = %v, want %v", resp.StatusCode, 200)
	}

	if _, err = c.Post(logger.WithContext(errCTX), "auth/getToken", nil); err == nil {
		t.Error("Client.Post() expected context error")
	}
}

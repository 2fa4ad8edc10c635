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

// Package rest implements the synchronous request/response calls of
// the Primary trading API: reference data, market data snapshots and
// order routing.
package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"reflect"

	"github.com/gorilla/schema"

	"github.com/matbarofex/gorofex/auth"
	"github.com/matbarofex/gorofex/internal/driver"
	"github.com/matbarofex/gorofex/trading"
)

// API paths.
const (
	PathSegments            = "rest/segment/all"
	PathInstruments         = "rest/instruments/all"
	PathDetailedInstruments = "rest/instruments/details"
	PathInstrumentDetail    = "rest/instruments/detail"
	PathMarketData          = "rest/marketdata/get"
	PathTradeHistory        = "rest/data/getTrades"
	PathOrderStatus         = "rest/order/id"
	PathNewOrder            = "rest/order/newSingleOrder"
	PathCancelOrder         = "rest/order/cancelById"
	PathAllOrders           = "rest/order/all"
)

// TokenSource provides and invalidates access tokens.
// Implemented by auth.Credentials.
type TokenSource interface {
	Token(ctx context.Context) (auth.Token, error)
	Invalidate(auth.Token)
}

// RequestError is returned on any unexpected HTTP status code.
type RequestError struct {
	StatusCode int
	Status     string
}

func (e RequestError) Error() string {
	return fmt.Sprintf("rest: status %s", e.Status)
}

// APIError is an error reported inside a well-formed API response.
type APIError struct {
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("rest: api error: %s", e.Description)
}

// Config for a REST client.
type Config struct {
	// HTTP performs the requests.
	HTTP *driver.Client

	// Tokens authenticates the requests.
	Tokens TokenSource

	// Proprietary defaults order status and cancel requests.
	Proprietary string

	// Account defaults order entry and query requests.
	Account string
}

// Client calls the Primary REST API. All calls are stateless
// authenticated request/response pairs. Safe for concurrent use.
type Client struct {
	cfg Config
	se  *schema.Encoder
}

// NewClient returns a Client for the passed configuration.
func NewClient(cfg Config) *Client {
	se := schema.NewEncoder()

	// The API wants entry codes as one comma separated value.
	se.RegisterEncoder(trading.Entries{}, func(v reflect.Value) string {
		return v.Interface().(trading.Entries).Join()
	})

	return &Client{cfg: cfg, se: se}
}

func (c *Client) encodeFormData(data interface{}) (url.Values, error) {
	if data == nil {
		return nil, nil
	}

	values := url.Values{}
	return values, c.se.Encode(data, values)
}

// statusResponse is embedded by all response types to carry
// the API result envelope.
type statusResponse struct {
	Status      string `json:"status"`
	Description string `json:"description"`
}

// Err returns an APIError when the envelope reports ERROR.
func (r statusResponse) Err() error {
	if r.Status == "ERROR" {
		return &APIError{Description: r.Description}
	}
	return nil
}

// GetJSON performs a GET request on path, with data encoded to URL values
// and the current token attached. The response body is unmarshalled into
// target.
//
// A 401 response invalidates the cached token and the request is resent
// once with a renewed one, matching the API's token renewal contract.
// A second rejection surfaces an auth.AuthenticationError. An expired
// token fails during renewal, never as an opaque network error.
func (c *Client) GetJSON(ctx context.Context, path string, data, target interface{}) error {
	values, err := c.encodeFormData(data)
	if err != nil {
		return fmt.Errorf("rest: %w", err)
	}

	resp, err := c.request(ctx, path, values, true)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return RequestError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
		}
	}

	if err = json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("rest: decode response: %w", err)
	}

	if e, ok := target.(interface{ Err() error }); ok {
		return e.Err()
	}

	return nil
}

func (c *Client) request(ctx context.Context, path string, values url.Values, retry bool) (*http.Response, error) {
	tok, err := c.cfg.Tokens.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("rest: %w", err)
	}

	header := http.Header{}
	header.Set("X-Auth-Token", tok.Value)

	resp, err := c.cfg.HTTP.Get(ctx, path, values, header)
	if err != nil {
		return nil, fmt.Errorf("rest: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		if resp.Body != nil {
			resp.Body.Close()
		}

		if !retry {
			return nil, &auth.AuthenticationError{Status: resp.Status}
		}

		c.cfg.Tokens.Invalidate(tok)
		return c.request(ctx, path, values, false)
	}

	return resp, nil
}

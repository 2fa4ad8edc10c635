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

// Package auth obtains and renews access tokens for the Primary API.
// Both the REST client and the streaming session authenticate with
// tokens issued here.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/matbarofex/gorofex/internal/driver"
)

// TokenPath is the REST path of the token end-point.
const TokenPath = "auth/getToken"

// DefaultTTL is assumed for issued tokens.
// The API does not report an expiry, tokens are renewed
// after this duration or on the first rejected request.
const DefaultTTL = 8 * time.Hour

// Token is an opaque access credential with a client-side expiry.
type Token struct {
	Value  string
	Expiry time.Time
}

// Valid reports whether the token can still be used for requests.
func (t Token) Valid() bool {
	return t.Value != "" && time.Now().Before(t.Expiry)
}

// AuthenticationError is returned when the API rejects the
// configured user and password, or a token. It is distinct from
// transport failures, which are returned as wrapped network errors.
type AuthenticationError struct {
	Status string
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("auth: authentication failed, status %s", e.Status)
}

// Credentials exchanges a user and password for access tokens
// and caches the last issued token until it expires.
// Safe for concurrent use.
type Credentials struct {
	user     string
	password string
	ttl      time.Duration
	client   *driver.Client

	mtx sync.Mutex
	tok Token
}

// NewCredentials returns a provider for the passed user and password.
// A ttl of 0 applies DefaultTTL.
func NewCredentials(user, password string, client *driver.Client, ttl time.Duration) *Credentials {
	if ttl == 0 {
		ttl = DefaultTTL
	}

	return &Credentials{
		user:     user,
		password: password,
		ttl:      ttl,
		client:   client,
	}
}

// Token returns the cached token, renewing it first when expired.
func (c *Credentials) Token(ctx context.Context) (Token, error) {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	if c.tok.Valid() {
		return c.tok, nil
	}

	return c.refresh(ctx)
}

// Refresh discards the cached token and requests a new one.
func (c *Credentials) Refresh(ctx context.Context) (Token, error) {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	return c.refresh(ctx)
}

// Invalidate drops the cached token if it matches tok.
// Called after the API rejects a request made with tok,
// so that the next Token call renews.
func (c *Credentials) Invalidate(tok Token) {
	c.mtx.Lock()
	if c.tok.Value == tok.Value {
		c.tok = Token{}
	}
	c.mtx.Unlock()
}

func (c *Credentials) refresh(ctx context.Context) (Token, error) {
	header := http.Header{}
	header.Set("X-Username", c.user)
	header.Set("X-Password", c.password)

	resp, err := c.client.Post(ctx, TokenPath, header)
	if err != nil {
		return Token{}, fmt.Errorf("auth.Refresh: %w", err)
	}
	if resp.Body != nil {
		resp.Body.Close()
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Token{}, &AuthenticationError{Status: resp.Status}
	}

	c.tok = Token{
		Value:  resp.Header.Get("X-Auth-Token"),
		Expiry: time.Now().Add(c.ttl),
	}

	zerolog.Ctx(ctx).Debug().Time("expiry", c.tok.Expiry).Msg("auth token renewed")

	return c.tok, nil
}

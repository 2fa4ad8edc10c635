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

// Package gorofex is a client for the Primary / ROFEX trading API.
// It authenticates against a configured environment and gives access
// to the synchronous REST calls and the streaming websocket session.
package gorofex

import (
	"context"
	"fmt"
	"time"

	"github.com/matbarofex/gorofex/auth"
	"github.com/matbarofex/gorofex/internal/driver"
	"github.com/matbarofex/gorofex/rest"
	"github.com/matbarofex/gorofex/stream"
)

// Environment selects the API installation to connect to.
type Environment int

const (
	// Remarket is the test environment, open for development.
	Remarket Environment = iota + 1

	// Live is the production environment.
	Live
)

func (e Environment) String() string {
	switch e {
	case Remarket:
		return "reMarkets"
	case Live:
		return "live"
	}
	return fmt.Sprintf("environment(%d)", int(e))
}

type environment struct {
	host        string
	proprietary string
	heartbeat   time.Duration
}

var environments = map[Environment]environment{
	Remarket: {
		host:        "api.remarkets.primary.com.ar",
		proprietary: "PBCP",
		heartbeat:   30 * time.Second,
	},
	Live: {
		host:        "api.primary.com.ar",
		proprietary: "api",
		heartbeat:   30 * time.Second,
	},
}

// Config for a Client.
type Config struct {
	// User and Password of the API account.
	User     string
	Password string

	// Account is the default trading account for order entry
	// and order queries.
	Account string

	// Environment to connect to, Remarket or Live.
	Environment Environment

	// TokenTTL overrides the client-side token expiry.
	// Zero applies auth.DefaultTTL.
	TokenTTL time.Duration
}

// Client is an authenticated connection to one API environment.
// Safe for concurrent use.
type Client struct {
	cfg   Config
	env   environment
	creds *auth.Credentials
	rest  *rest.Client
}

// Initialize authenticates the passed configuration against its
// environment and returns a ready Client. Rejected credentials are
// reported here as an auth.AuthenticationError, not on the first call.
func Initialize(ctx context.Context, cfg Config) (*Client, error) {
	env, ok := environments[cfg.Environment]
	if !ok {
		return nil, fmt.Errorf("gorofex: unknown environment %v", cfg.Environment)
	}
	if cfg.User == "" || cfg.Password == "" {
		return nil, fmt.Errorf("gorofex: user and password are required")
	}

	hc := &driver.Client{Hosts: []string{env.host}}
	creds := auth.NewCredentials(cfg.User, cfg.Password, hc, cfg.TokenTTL)

	if _, err := creds.Token(ctx); err != nil {
		return nil, err
	}

	return &Client{
		cfg:   cfg,
		env:   env,
		creds: creds,
		rest: rest.NewClient(rest.Config{
			HTTP:        hc,
			Tokens:      creds,
			Proprietary: env.proprietary,
			Account:     cfg.Account,
		}),
	}, nil
}

// REST returns the synchronous API client.
func (c *Client) REST() *rest.Client {
	return c.rest
}

// NewSession returns an Idle streaming session for this client's
// environment. Call its Connect to establish the connection.
func (c *Client) NewSession() *stream.Session {
	return stream.New(stream.Config{
		URL:       "wss://" + c.env.host + "/",
		Tokens:    c.creds,
		Heartbeat: c.env.heartbeat,
	})
}

// ConnectStream establishes and returns a connected streaming session.
// ctx bounds the session lifetime, cancelling it closes the session.
func (c *Client) ConnectStream(ctx context.Context) (*stream.Session, error) {
	s := c.NewSession()
	if err := s.Connect(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

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

package stream

import (
	"errors"
	"fmt"
)

var (
	// ErrConnected is returned by Connect on a session that already left Idle.
	ErrConnected = errors.New("stream: session already connected")

	// ErrClosed is returned for operations on a closing or closed session.
	ErrClosed = errors.New("stream: session closed")

	// ErrUnknownSubscription is returned by Unsubscribe for an unknown ID.
	ErrUnknownSubscription = errors.New("stream: unknown subscription")
)

// ValidationError rejects a malformed subscription request
// before any bytes reach the transport.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("stream: invalid request: %s", e.Reason)
}

// TransportError wraps a connection-level failure.
// Reported through the exception handler when the session
// starts reconnecting.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("stream: transport: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ReconnectError is terminal: all reconnect attempts failed or
// the session was closed mid-retry.
type ReconnectError struct {
	Attempts int
	Err      error
}

func (e *ReconnectError) Error() string {
	return fmt.Sprintf("stream: reconnect gave up after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ReconnectError) Unwrap() error { return e.Err }

// HandlerError reports a panicking application handler.
// Delivered to the exception handler, it never stops the
// receive loop or the remaining handlers.
type HandlerError struct {
	Category  Category
	Recovered interface{}
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("stream: %s handler panic: %v", e.Category, e.Recovered)
}

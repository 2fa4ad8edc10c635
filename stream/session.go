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

// Package stream implements the persistent, authenticated streaming
// session of the Primary websocket API: market data, order reports and
// error notices are decoded and dispatched to registered handlers on a
// background receive goroutine, while subscriptions are retained and
// replayed across reconnects.
package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"go.uber.org/ratelimit"

	"github.com/matbarofex/gorofex/auth"
	"github.com/matbarofex/gorofex/internal/driver"
	"github.com/matbarofex/gorofex/trading"
)

// State of the streaming session.
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateAuthenticating
	StateActive
	StateReconnecting
	StateClosing
	StateClosed
)

func (st State) String() string {
	switch st {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateAuthenticating:
		return "authenticating"
	case StateActive:
		return "active"
	case StateReconnecting:
		return "reconnecting"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	}
	return fmt.Sprintf("state(%d)", int(st))
}

// TokenSource provides access tokens for the streaming handshake.
// Implemented by auth.Credentials.
type TokenSource interface {
	Token(ctx context.Context) (auth.Token, error)
}

// Defaults applied by New. The API does not prescribe a reconnect
// policy, the bounds below are this library's choice.
const (
	DefaultLoginTimeout     = 5 * time.Second
	DefaultHeartbeat        = 30 * time.Second
	DefaultMaxReconnects    = 5
	DefaultReconnectBackoff = time.Second

	maxReconnectBackoff = 30 * time.Second
	writeWait           = 10 * time.Second
	sendQueueLen        = 64
	sendRate            = 5 // outbound frames per second
)

// Config for a streaming session.
type Config struct {
	// URL of the websocket endpoint.
	URL string

	// Tokens authenticates the handshake.
	Tokens TokenSource

	// Dialer defaults to websocket.DefaultDialer.
	Dialer *websocket.Dialer

	// LoginTimeout bounds the wait for the login acknowledgement.
	LoginTimeout time.Duration

	// Heartbeat is the ping interval on the established connection.
	Heartbeat time.Duration

	// MaxReconnects bounds the retry attempts after a transport drop.
	MaxReconnects int

	// ReconnectBackoff is the initial retry delay.
	// It doubles per attempt, capped at 30 seconds.
	ReconnectBackoff time.Duration
}

// Session is a streaming connection to the exchange.
//
// A Session starts Idle. Connect performs the one blocking handshake,
// after which a background goroutine receives, decodes and dispatches
// inbound frames to the handlers registered on the embedded Registry.
// On transport failure the session reconnects with backoff and replays
// its retained subscriptions. All methods are safe for concurrent use.
type Session struct {
	Registry

	cfg Config

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	sendq   chan []byte
	limiter ratelimit.Limiter

	mtx   sync.Mutex // guards state, conn and subs
	state State
	conn  *websocket.Conn
	subs  subscriptionSet
}

// New returns an Idle session, applying defaults for zero Config fields.
func New(cfg Config) *Session {
	if cfg.LoginTimeout == 0 {
		cfg.LoginTimeout = DefaultLoginTimeout
	}
	if cfg.Heartbeat == 0 {
		cfg.Heartbeat = DefaultHeartbeat
	}
	if cfg.MaxReconnects == 0 {
		cfg.MaxReconnects = DefaultMaxReconnects
	}
	if cfg.ReconnectBackoff == 0 {
		cfg.ReconnectBackoff = DefaultReconnectBackoff
	}

	return &Session{
		cfg:     cfg,
		sendq:   make(chan []byte, sendQueueLen),
		limiter: ratelimit.New(sendRate),
	}
}

// State returns the current session state.
func (s *Session) State() State {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.state
}

// setState transitions to st, unless the session is already
// closing or closed.
func (s *Session) setState(st State) {
	s.mtx.Lock()
	if s.state != StateClosing && s.state != StateClosed {
		s.state = st
	}
	s.mtx.Unlock()
}

func (s *Session) closing() bool {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.state == StateClosing || s.state == StateClosed
}

func (s *Session) current() (*websocket.Conn, State) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.conn, s.state
}

// Connect establishes and authenticates the streaming connection.
// It blocks until the login acknowledgement is received or rejected,
// the only blocking call of the subsystem. The passed context bounds
// the whole session lifetime: when it cancels, the session closes.
//
// On authentication rejection or acknowledgement timeout the session
// transitions to Closed and an auth.AuthenticationError is returned.
func (s *Session) Connect(ctx context.Context) error {
	s.mtx.Lock()
	switch s.state {
	case StateIdle:
	case StateClosing, StateClosed:
		s.mtx.Unlock()
		return ErrClosed
	default:
		s.mtx.Unlock()
		return ErrConnected
	}
	// The session context must be published together with the state:
	// a concurrent Close observing Connecting cancels it.
	logger := zerolog.Ctx(ctx).With().Str("obj", "Session").Str("endpoint", s.cfg.URL).Logger()
	s.ctx, s.cancel = context.WithCancel(logger.WithContext(ctx))
	s.state = StateConnecting

	// Raised with the state, so a Close observing Connecting waits
	// for the goroutines whether or not they end up spawned.
	s.wg.Add(2)
	s.mtx.Unlock()

	conn, err := s.handshake(s.ctx)
	if err != nil {
		s.wg.Add(-2)
		s.close(nil)
		return err
	}

	if err = s.replayAndActivate(conn); err != nil {
		s.wg.Add(-2)
		s.close(conn)
		return err
	}

	go s.run(conn)
	go s.sendLoop()

	return nil
}

// handshake dials the endpoint and authenticates the connection.
func (s *Session) handshake(ctx context.Context) (*websocket.Conn, error) {
	tok, err := s.cfg.Tokens.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("stream: handshake: %w", err)
	}

	header := http.Header{}
	header.Set("X-Auth-Token", tok.Value)

	conn, err := driver.DialWebsocket(ctx, s.cfg.Dialer, s.cfg.URL, header)
	if err != nil {
		return nil, &TransportError{Err: err}
	}

	s.setState(StateAuthenticating)

	if err = s.login(conn, tok); err != nil {
		conn.Close()
		return nil, err
	}

	return conn, nil
}

// login sends the login frame and waits for the acknowledgement,
// bounded by LoginTimeout.
func (s *Session) login(conn *websocket.Conn, tok auth.Token) error {
	data, err := EncodeLogin(tok.Value)
	if err != nil {
		return err
	}

	deadline := time.Now().Add(s.cfg.LoginTimeout)
	conn.SetWriteDeadline(deadline)

	if err = conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return &TransportError{Err: err}
	}
	if err = conn.SetReadDeadline(deadline); err != nil {
		return &TransportError{Err: err}
	}

	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			if os.IsTimeout(err) {
				return &auth.AuthenticationError{Status: "login acknowledgement timeout"}
			}
			return &TransportError{Err: err}
		}

		var ack loginAck
		if err = json.Unmarshal(frame, &ack); err != nil {
			continue
		}
		if !strings.EqualFold(ack.Type, typeLoginAck) {
			continue
		}

		if !strings.EqualFold(ack.Status, "OK") {
			status := ack.Detail
			if status == "" {
				status = ack.Status
			}
			return &auth.AuthenticationError{Status: status}
		}

		return conn.SetReadDeadline(time.Time{})
	}
}

// replayAndActivate re-sends the retained subscriptions in creation
// order and publishes conn as the active connection. Holding the lock
// across the replay guarantees no concurrent subscription change is
// half-applied and no new inbound frame dispatches before the replay
// completes.
func (s *Session) replayAndActivate(conn *websocket.Conn) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if s.state == StateClosing || s.state == StateClosed {
		return ErrClosed
	}

	for _, sub := range s.subs.snapshot() {
		data, err := sub.frame()
		if err != nil {
			// Subscriptions are validated on entry, replay cannot
			// fail validation.
			continue
		}

		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err = conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return &TransportError{Err: fmt.Errorf("subscription replay: %w", err)}
		}

		zerolog.Ctx(s.ctx).Debug().Str("subscription", sub.ID).Msg("subscription replayed")
	}

	s.conn = conn
	s.state = StateActive

	return nil
}

// run owns the connection and its receive loop until the session ends.
func (s *Session) run(conn *websocket.Conn) {
	defer s.wg.Done()

	for {
		err := s.readLoop(conn)

		if s.closing() || s.ctx.Err() != nil {
			break
		}

		s.Exception(s.ctx, &TransportError{Err: err})

		next, rerr := s.reconnect()
		if rerr != nil {
			if !s.closing() {
				s.Exception(s.ctx, rerr)
			}
			break
		}

		conn = next
	}

	s.shutdown()
}

// readLoop receives, decodes and dispatches frames until the
// connection fails or the session starts closing.
func (s *Session) readLoop(conn *websocket.Conn) error {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		if _, st := s.current(); st != StateActive {
			// No dispatch after the session left Active.
			return nil
		}

		s.Dispatch(s.ctx, Decode(data))
	}
}

// reconnect re-attempts the handshake with exponential backoff.
// Authentication rejection and running out of attempts are terminal.
func (s *Session) reconnect() (*websocket.Conn, error) {
	s.setState(StateReconnecting)

	logger := zerolog.Ctx(s.ctx)
	backoff := s.cfg.ReconnectBackoff

	var lastErr error

	for attempt := 1; attempt <= s.cfg.MaxReconnects; attempt++ {
		timer := time.NewTimer(backoff)
		select {
		case <-s.ctx.Done():
			timer.Stop()
			return nil, &ReconnectError{Attempts: attempt - 1, Err: s.ctx.Err()}
		case <-timer.C:
		}

		if backoff *= 2; backoff > maxReconnectBackoff {
			backoff = maxReconnectBackoff
		}

		conn, err := s.handshake(s.ctx)
		if err != nil {
			var authErr *auth.AuthenticationError
			if errors.As(err, &authErr) {
				return nil, &ReconnectError{Attempts: attempt, Err: err}
			}

			lastErr = err
			logger.Err(err).Int("attempt", attempt).Msg("reconnect attempt")
			continue
		}

		if err = s.replayAndActivate(conn); err != nil {
			conn.Close()
			lastErr = err
			logger.Err(err).Int("attempt", attempt).Msg("reconnect replay")
			continue
		}

		logger.Info().Int("attempt", attempt).Msg("reconnected")
		return conn, nil
	}

	return nil, &ReconnectError{Attempts: s.cfg.MaxReconnects, Err: lastErr}
}

// sendLoop serializes all writes on the active connection:
// queued outbound frames, rate limited, and heartbeat pings.
// Frames queued while the session is not Active are dropped,
// retained subscriptions are replayed on activation instead.
func (s *Session) sendLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.Heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return

		case data := <-s.sendq:
			s.limiter.Take()

			conn, st := s.current()
			if st != StateActive || conn == nil {
				zerolog.Ctx(s.ctx).Debug().Bytes("frame", data).Msg("send dropped, session not active")
				continue
			}

			conn.SetWriteDeadline(time.Now().Add(writeWait))
			err := conn.WriteMessage(websocket.TextMessage, data)
			zerolog.Ctx(s.ctx).Err(err).Bytes("frame", data).Msg("websocket send")

		case <-ticker.C:
			conn, st := s.current()
			if st != StateActive || conn == nil {
				continue
			}

			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				zerolog.Ctx(s.ctx).Err(err).Msg("websocket ping")
			}
		}
	}
}

func (s *Session) enqueue(data []byte) {
	select {
	case s.sendq <- data:
	case <-s.ctx.Done():
		zerolog.Ctx(s.ctx).Debug().Bytes("frame", data).Msg("send dropped, session closed")
	}
}

// close releases resources after a failed Connect.
func (s *Session) close(conn *websocket.Conn) {
	if conn != nil {
		conn.Close()
	}

	s.mtx.Lock()
	s.state = StateClosed
	s.mtx.Unlock()

	s.cancel()
}

// shutdown finishes the session from the run goroutine.
func (s *Session) shutdown() {
	s.mtx.Lock()
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
	s.state = StateClosed
	s.mtx.Unlock()

	s.cancel()

	zerolog.Ctx(s.ctx).Debug().Msg("session closed")
}

// Close requests a graceful shutdown: pending sends are dropped, the
// transport is released and no further messages dispatch. It blocks
// until the background goroutines have drained. Closing an Idle
// session is allowed, closing twice returns ErrClosed.
//
// Close must not be called from inside a registered handler: handlers
// run on the receive goroutine Close waits for, so the call would
// deadlock. Close from another goroutine instead.
func (s *Session) Close() error {
	s.mtx.Lock()

	switch s.state {
	case StateIdle:
		s.state = StateClosed
		s.mtx.Unlock()
		return nil
	case StateClosing, StateClosed:
		s.mtx.Unlock()
		return ErrClosed
	}

	s.state = StateClosing
	conn := s.conn
	cancel := s.cancel
	s.mtx.Unlock()

	// Cancel first: unblocks backoff sleeps and the send loop.
	// Closing the connection unblocks the receive loop promptly.
	cancel()
	if conn != nil {
		conn.Close()
	}

	s.wg.Wait()

	return nil
}

// SubscribeMarketData records and, when Active, sends a market data
// subscription for the passed tickers and entry kinds. When not
// Active, sending is deferred to the next activation. The request is
// validated before any bytes reach the transport.
func (s *Session) SubscribeMarketData(tickers []string, entries trading.Entries, market trading.Market) (*Subscription, error) {
	return s.subscribe(&Subscription{
		ID:      uuid.NewString(),
		Kind:    KindMarketData,
		Tickers: tickers,
		Entries: entries,
		Market:  market,
		Level:   1,
	})
}

// SubscribeOrderReports records and, when Active, sends an order
// report subscription for the passed account.
func (s *Session) SubscribeOrderReports(account string, snapshotOnlyActive bool) (*Subscription, error) {
	return s.subscribe(&Subscription{
		ID:                 uuid.NewString(),
		Kind:               KindOrderReports,
		Account:            account,
		SnapshotOnlyActive: snapshotOnlyActive,
	})
}

func (s *Session) subscribe(sub *Subscription) (*Subscription, error) {
	frame, err := sub.frame()
	if err != nil {
		return nil, err
	}

	s.mtx.Lock()
	if s.state == StateClosing || s.state == StateClosed {
		s.mtx.Unlock()
		return nil, ErrClosed
	}
	s.subs.add(sub)
	st := s.state
	s.mtx.Unlock()

	if st == StateActive {
		s.enqueue(frame)
	}

	return sub, nil
}

// Unsubscribe removes a subscription from the retained set and, when
// Active, sends the matching cancellation.
func (s *Session) Unsubscribe(id string) error {
	s.mtx.Lock()
	sub, ok := s.subs.remove(id)
	st := s.state
	s.mtx.Unlock()

	if !ok {
		return ErrUnknownSubscription
	}

	if st == StateActive {
		data, err := sub.cancelFrame()
		if err != nil {
			return err
		}
		s.enqueue(data)
	}

	return nil
}

// Subscriptions returns the retained subscriptions in creation order.
func (s *Session) Subscriptions() []*Subscription {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	return append([]*Subscription(nil), s.subs.snapshot()...)
}

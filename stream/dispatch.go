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
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// Handler callbacks per message category. Handlers run on the
// session's receive goroutine: a slow handler delays subsequent
// frames, a panicking one is recovered and reported.
type (
	MarketDataHandler  func(*MarketDataMessage)
	OrderReportHandler func(*OrderReportMessage)
	ErrorHandler       func(*ErrorMessage)

	// ExceptionHandler receives client-side faults: transport drops,
	// terminal reconnect failures and recovered handler panics.
	ExceptionHandler func(error)
)

// Registration identifies an added handler, for removal.
type Registration struct {
	category Category
	id       uint64
}

type registration[H any] struct {
	id uint64
	fn H
}

// Registry holds the registered handlers per message category,
// in registration order. Registration is allowed at any time,
// also while the session dispatches concurrently.
type Registry struct {
	mtx          sync.RWMutex
	nextID       uint64
	marketData   []registration[MarketDataHandler]
	orderReports []registration[OrderReportHandler]
	errors       []registration[ErrorHandler]
	exception    ExceptionHandler
}

func (r *Registry) register() uint64 {
	r.nextID++
	return r.nextID
}

// AddMarketDataHandler appends a market data handler.
func (r *Registry) AddMarketDataHandler(h MarketDataHandler) Registration {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	id := r.register()
	r.marketData = append(r.marketData, registration[MarketDataHandler]{id, h})
	return Registration{CategoryMarketData, id}
}

// AddOrderReportHandler appends an order report handler.
func (r *Registry) AddOrderReportHandler(h OrderReportHandler) Registration {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	id := r.register()
	r.orderReports = append(r.orderReports, registration[OrderReportHandler]{id, h})
	return Registration{CategoryOrderReport, id}
}

// AddErrorHandler appends a handler for exchange error notices.
func (r *Registry) AddErrorHandler(h ErrorHandler) Registration {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	id := r.register()
	r.errors = append(r.errors, registration[ErrorHandler]{id, h})
	return Registration{CategoryError, id}
}

// SetExceptionHandler sets the single exception handler slot.
func (r *Registry) SetExceptionHandler(h ExceptionHandler) {
	r.mtx.Lock()
	r.exception = h
	r.mtx.Unlock()
}

func removeRegistration[H any](regs []registration[H], id uint64) []registration[H] {
	for i, reg := range regs {
		if reg.id == id {
			return append(regs[:i:i], regs[i+1:]...)
		}
	}
	return regs
}

// RemoveHandler removes a previously added handler.
func (r *Registry) RemoveHandler(reg Registration) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	switch reg.category {
	case CategoryMarketData:
		r.marketData = removeRegistration(r.marketData, reg.id)
	case CategoryOrderReport:
		r.orderReports = removeRegistration(r.orderReports, reg.id)
	case CategoryError:
		r.errors = removeRegistration(r.errors, reg.id)
	}
}

// invoke runs fn with panic recovery. A recovered panic is reported
// as a HandlerError and never reaches the receive loop.
func (r *Registry) invoke(ctx context.Context, cat Category, fn func()) {
	defer func() {
		if x := recover(); x != nil {
			r.Exception(ctx, &HandlerError{Category: cat, Recovered: x})
		}
	}()

	fn()
}

// Dispatch routes msg to every handler registered for its category,
// in registration order. Handler failures are isolated per handler.
func (r *Registry) Dispatch(ctx context.Context, msg Message) {
	switch m := msg.(type) {
	case *MarketDataMessage:
		r.mtx.RLock()
		regs := r.marketData
		r.mtx.RUnlock()

		for _, reg := range regs {
			h := reg.fn
			r.invoke(ctx, CategoryMarketData, func() { h(m) })
		}

	case *OrderReportMessage:
		r.mtx.RLock()
		regs := r.orderReports
		r.mtx.RUnlock()

		for _, reg := range regs {
			h := reg.fn
			r.invoke(ctx, CategoryOrderReport, func() { h(m) })
		}

	case *ErrorMessage:
		r.mtx.RLock()
		regs := r.errors
		r.mtx.RUnlock()

		if len(regs) == 0 {
			zerolog.Ctx(ctx).Warn().Bytes("frame", msg.RawFrame()).Msg("unhandled error message")
		}

		for _, reg := range regs {
			h := reg.fn
			r.invoke(ctx, CategoryError, func() { h(m) })
		}

	default:
		zerolog.Ctx(ctx).Warn().Bytes("frame", msg.RawFrame()).Msg("unhandled message in dispatch")
	}
}

// Exception delivers a client-side fault to the exception handler.
// Faults are logged when no handler is set, never swallowed silently.
func (r *Registry) Exception(ctx context.Context, err error) {
	r.mtx.RLock()
	h := r.exception
	r.mtx.RUnlock()

	if h == nil {
		zerolog.Ctx(ctx).Err(err).Msg("unhandled session exception")
		return
	}

	defer func() {
		if x := recover(); x != nil {
			zerolog.Ctx(ctx).Error().Interface("value", x).Msg("exception handler panic")
		}
	}()

	h(err)
}

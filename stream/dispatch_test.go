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
	"errors"
	"reflect"
	"testing"
)

func TestRegistry_Dispatch_order(t *testing.T) {
	var reg Registry
	var calls []string

	reg.AddMarketDataHandler(func(*MarketDataMessage) {
		calls = append(calls, "first")
	})
	reg.AddMarketDataHandler(func(*MarketDataMessage) {
		calls = append(calls, "second")
	})
	reg.AddOrderReportHandler(func(*OrderReportMessage) {
		calls = append(calls, "order")
	})
	reg.AddErrorHandler(func(*ErrorMessage) {
		calls = append(calls, "error")
	})

	reg.Dispatch(testCTX, &MarketDataMessage{})
	reg.Dispatch(testCTX, &OrderReportMessage{})
	reg.Dispatch(testCTX, &ErrorMessage{})

	want := []string{"first", "second", "order", "error"}
	if !reflect.DeepEqual(calls, want) {
		t.Errorf("dispatch calls = %v, want %v", calls, want)
	}
}

func TestRegistry_RemoveHandler(t *testing.T) {
	var reg Registry
	var calls []string

	first := reg.AddMarketDataHandler(func(*MarketDataMessage) {
		calls = append(calls, "first")
	})
	reg.AddMarketDataHandler(func(*MarketDataMessage) {
		calls = append(calls, "second")
	})

	reg.RemoveHandler(first)
	reg.Dispatch(testCTX, &MarketDataMessage{})

	want := []string{"second"}
	if !reflect.DeepEqual(calls, want) {
		t.Errorf("dispatch calls = %v, want %v", calls, want)
	}
}

func TestRegistry_Dispatch_panic(t *testing.T) {
	var reg Registry

	var excs []error
	reg.SetExceptionHandler(func(err error) {
		excs = append(excs, err)
	})

	var called bool
	reg.AddMarketDataHandler(func(*MarketDataMessage) {
		panic("boom")
	})
	reg.AddMarketDataHandler(func(*MarketDataMessage) {
		called = true
	})

	reg.Dispatch(testCTX, &MarketDataMessage{})

	if !called {
		t.Error("second handler not called after panic")
	}
	if len(excs) != 1 {
		t.Fatalf("got %d exceptions, want 1", len(excs))
	}

	var he *HandlerError
	if !errors.As(excs[0], &he) {
		t.Fatalf("exception = %T, want *HandlerError", excs[0])
	}
	if he.Category != CategoryMarketData || he.Recovered != "boom" {
		t.Errorf("HandlerError = %v", he)
	}
}

func TestRegistry_Exception(t *testing.T) {
	var reg Registry

	// Without a handler the fault is only logged.
	reg.Exception(testCTX, errors.New("unhandled"))

	var got error
	reg.SetExceptionHandler(func(err error) {
		got = err
	})

	want := errors.New("handled")
	reg.Exception(testCTX, want)
	if got != want {
		t.Errorf("exception = %v, want %v", got, want)
	}

	// A panicking exception handler must not take down the caller.
	reg.SetExceptionHandler(func(error) {
		panic("boom")
	})
	reg.Exception(context.Background(), errors.New("recovered"))
}

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
	"encoding/json"
	"fmt"
	"strings"

	"github.com/matbarofex/gorofex/trading"
)

// Category classifies an inbound message.
type Category int

const (
	CategoryMarketData Category = iota + 1
	CategoryOrderReport
	CategoryError
)

func (c Category) String() string {
	switch c {
	case CategoryMarketData:
		return "market data"
	case CategoryOrderReport:
		return "order report"
	case CategoryError:
		return "error"
	}
	return fmt.Sprintf("category(%d)", int(c))
}

// Message is an inbound frame, decoded and classified.
// The concrete types are MarketDataMessage, OrderReportMessage
// and ErrorMessage.
type Message interface {
	Category() Category

	// RawFrame returns the frame as received, for diagnostics.
	RawFrame() []byte
}

// MarketDataMessage is a market data snapshot or update for one instrument.
type MarketDataMessage struct {
	Type         string               `json:"type"`
	Timestamp    int64                `json:"timestamp"`
	InstrumentID trading.InstrumentID `json:"instrumentId"`
	MarketData   trading.MarketData   `json:"marketData"`

	raw []byte
}

func (m *MarketDataMessage) Category() Category { return CategoryMarketData }
func (m *MarketDataMessage) RawFrame() []byte   { return m.raw }

// OrderReportMessage is an asynchronous order status or fill notification.
type OrderReportMessage struct {
	Type        string              `json:"type"`
	Timestamp   int64               `json:"timestamp"`
	OrderReport trading.OrderReport `json:"orderReport"`

	raw []byte
}

func (m *OrderReportMessage) Category() Category { return CategoryOrderReport }
func (m *OrderReportMessage) RawFrame() []byte   { return m.raw }

// ErrorMessage is an error notice from the exchange, or a frame
// the codec could not classify.
type ErrorMessage struct {
	Status      string `json:"status"`
	Detail      string `json:"detail"`
	Description string `json:"description"`
	Message     string `json:"message"`

	raw []byte
}

func (m *ErrorMessage) Category() Category { return CategoryError }
func (m *ErrorMessage) RawFrame() []byte   { return m.raw }

func (m *ErrorMessage) Error() string {
	detail := m.Detail
	if detail == "" {
		detail = m.Description
	}
	if detail == "" {
		detail = m.Message
	}
	return fmt.Sprintf("stream: exchange error: %s", detail)
}

// Message type discriminants, as found in the "type" field of
// inbound frames after upper-casing.
const (
	typeMarketData  = "MD"
	typeOrderReport = "OR"
	typeLoginAck    = "LO"
)

// Decode classifies and parses an inbound frame.
// Frames that cannot be parsed, or carry an unknown discriminant,
// decode into an ErrorMessage carrying the raw frame. Decode never
// fails: one malformed frame must not break the receive loop.
func Decode(data []byte) Message {
	var probe struct {
		Type   string `json:"type"`
		Status string `json:"status"`
	}

	if err := json.Unmarshal(data, &probe); err != nil {
		return &ErrorMessage{
			Detail: fmt.Sprintf("unparseable frame: %v", err),
			raw:    data,
		}
	}

	if strings.EqualFold(probe.Status, "ERROR") {
		msg := &ErrorMessage{raw: data}
		_ = json.Unmarshal(data, msg)
		return msg
	}

	switch strings.ToUpper(probe.Type) {
	case typeMarketData:
		msg := &MarketDataMessage{raw: data}
		if err := json.Unmarshal(data, msg); err != nil {
			return &ErrorMessage{
				Detail: fmt.Sprintf("malformed market data frame: %v", err),
				raw:    data,
			}
		}
		return msg

	case typeOrderReport:
		msg := &OrderReportMessage{raw: data}
		if err := json.Unmarshal(data, msg); err != nil {
			return &ErrorMessage{
				Detail: fmt.Sprintf("malformed order report frame: %v", err),
				raw:    data,
			}
		}
		return msg
	}

	return &ErrorMessage{
		Detail: fmt.Sprintf("message type not supported: %q", probe.Type),
		raw:    data,
	}
}

type loginRequest struct {
	Type  string `json:"type"`
	Token string `json:"token"`
}

type loginAck struct {
	Type   string `json:"type"`
	Status string `json:"status"`
	Detail string `json:"detail"`
}

// EncodeLogin builds the authentication frame sent right after dialing.
func EncodeLogin(token string) ([]byte, error) {
	if token == "" {
		return nil, &ValidationError{Reason: "empty token"}
	}

	return json.Marshal(loginRequest{Type: "login", Token: token})
}

type marketDataRequest struct {
	Type     string                 `json:"type"`
	Level    int                    `json:"level,omitempty"`
	Entries  trading.Entries        `json:"entries,omitempty"`
	Products []trading.InstrumentID `json:"products"`
}

type orderReportRequest struct {
	Type               string          `json:"type"`
	Account            trading.Account `json:"account"`
	SnapshotOnlyActive bool            `json:"snapshotOnlyActive"`
}

func products(tickers []string, market trading.Market) ([]trading.InstrumentID, error) {
	if len(tickers) == 0 {
		return nil, &ValidationError{Reason: "at least one ticker is required"}
	}
	if market == "" {
		market = trading.MarketRofex
	}

	ps := make([]trading.InstrumentID, len(tickers))
	for i, ticker := range tickers {
		if ticker == "" {
			return nil, &ValidationError{Reason: "empty ticker"}
		}
		ps[i] = trading.InstrumentID{MarketID: market, Symbol: ticker}
	}

	return ps, nil
}

// EncodeMarketDataSubscription builds a market data subscription frame.
// The ticker list must be non-empty and every entry code known,
// or a ValidationError is returned before any bytes reach the transport.
func EncodeMarketDataSubscription(tickers []string, entries trading.Entries, market trading.Market, level int) ([]byte, error) {
	ps, err := products(tickers, market)
	if err != nil {
		return nil, err
	}

	if len(entries) == 0 {
		return nil, &ValidationError{Reason: "at least one market data entry is required"}
	}
	if entry, ok := entries.Validate(); !ok {
		return nil, &ValidationError{Reason: fmt.Sprintf("unknown market data entry %q", entry)}
	}

	if level == 0 {
		level = 1
	}

	return json.Marshal(marketDataRequest{
		Type:     "smd",
		Level:    level,
		Entries:  entries,
		Products: ps,
	})
}

// EncodeMarketDataUnsubscription builds the cancellation frame for a
// market data subscription.
func EncodeMarketDataUnsubscription(tickers []string, market trading.Market) ([]byte, error) {
	ps, err := products(tickers, market)
	if err != nil {
		return nil, err
	}

	return json.Marshal(marketDataRequest{
		Type:     "smu",
		Products: ps,
	})
}

// EncodeOrderReportSubscription builds an order report subscription frame
// for the passed account. With snapshotOnlyActive, reports for already
// finished orders are not replayed by the exchange.
func EncodeOrderReportSubscription(account string, snapshotOnlyActive bool) ([]byte, error) {
	if account == "" {
		return nil, &ValidationError{Reason: "empty account"}
	}

	return json.Marshal(orderReportRequest{
		Type:               "os",
		Account:            trading.Account{ID: account},
		SnapshotOnlyActive: snapshotOnlyActive,
	})
}

// EncodeOrderReportUnsubscription builds the cancellation frame for an
// order report subscription.
func EncodeOrderReportUnsubscription(account string) ([]byte, error) {
	if account == "" {
		return nil, &ValidationError{Reason: "empty account"}
	}

	return json.Marshal(orderReportRequest{
		Type:    "ou",
		Account: trading.Account{ID: account},
	})
}

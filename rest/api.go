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

package rest

import (
	"context"
	"fmt"

	"github.com/matbarofex/gorofex/trading"
)

// Segment is a market segment of the exchange.
type Segment struct {
	MarketSegmentID string `json:"marketSegmentId"`
	MarketID        string `json:"marketId"`
}

type SegmentsResp struct {
	statusResponse
	Segments []Segment `json:"segments"`
}

// GetSegments lists the valid market segments.
func (c *Client) GetSegments(ctx context.Context) (*SegmentsResp, error) {
	resp := new(SegmentsResp)
	return resp, c.GetJSON(ctx, PathSegments, nil, resp)
}

// Instrument describes a tradeable instrument.
type Instrument struct {
	InstrumentID       trading.InstrumentID `json:"instrumentId"`
	Segment            Segment              `json:"segment"`
	CFICode            string               `json:"cficode"`
	Currency           string               `json:"currency"`
	MaturityDate       string               `json:"maturityDate"`
	LowLimitPrice      float64              `json:"lowLimitPrice"`
	HighLimitPrice     float64              `json:"highLimitPrice"`
	MinPriceIncrement  float64              `json:"minPriceIncrement"`
	ContractMultiplier float64              `json:"contractMultiplier"`
}

type InstrumentsResp struct {
	statusResponse
	Instruments []Instrument `json:"instruments"`
}

// GetAllInstruments lists all available instruments.
func (c *Client) GetAllInstruments(ctx context.Context) (*InstrumentsResp, error) {
	resp := new(InstrumentsResp)
	return resp, c.GetJSON(ctx, PathInstruments, nil, resp)
}

// GetDetailedInstruments lists all available instruments with
// their full details.
func (c *Client) GetDetailedInstruments(ctx context.Context) (*InstrumentsResp, error) {
	resp := new(InstrumentsResp)
	return resp, c.GetJSON(ctx, PathDetailedInstruments, nil, resp)
}

type instrumentReq struct {
	MarketID trading.Market `schema:"marketId"`
	Symbol   string         `schema:"symbol"`
}

type InstrumentResp struct {
	statusResponse
	Instrument Instrument `json:"instrument"`
}

// GetInstrumentDetails requests the details of a single instrument.
// An empty market defaults to ROFEX.
func (c *Client) GetInstrumentDetails(ctx context.Context, symbol string, market trading.Market) (*InstrumentResp, error) {
	if symbol == "" {
		return nil, fmt.Errorf("rest: empty symbol")
	}
	if market == "" {
		market = trading.MarketRofex
	}

	resp := new(InstrumentResp)
	return resp, c.GetJSON(ctx, PathInstrumentDetail, instrumentReq{market, symbol}, resp)
}

// MarketDataReq requests a market data snapshot for one instrument.
type MarketDataReq struct {
	MarketID trading.Market  `schema:"marketId"`
	Symbol   string          `schema:"symbol"`
	Entries  trading.Entries `schema:"entries"`
	Depth    int             `schema:"depth"`
}

type MarketDataResp struct {
	statusResponse
	MarketData trading.MarketData `json:"marketData"`
	Depth      int                `json:"depth"`
	Aggregated bool               `json:"aggregated"`
}

// GetMarketData requests the current market data entries of an
// instrument. Zero request fields default to market ROFEX, all
// entries and depth 1.
func (c *Client) GetMarketData(ctx context.Context, req MarketDataReq) (*MarketDataResp, error) {
	if req.Symbol == "" {
		return nil, fmt.Errorf("rest: empty symbol")
	}
	if req.MarketID == "" {
		req.MarketID = trading.MarketRofex
	}
	if len(req.Entries) == 0 {
		req.Entries = trading.AllEntries()
	}
	if entry, ok := req.Entries.Validate(); !ok {
		return nil, fmt.Errorf("rest: unknown market data entry %q", entry)
	}
	if req.Depth == 0 {
		req.Depth = 1
	}

	resp := new(MarketDataResp)
	return resp, c.GetJSON(ctx, PathMarketData, req, resp)
}

// TradeHistoryReq requests historic trades for one instrument.
// Dates use the yyyy-MM-dd format.
type TradeHistoryReq struct {
	MarketID trading.Market `schema:"marketId"`
	Symbol   string         `schema:"symbol"`
	DateFrom string         `schema:"dateFrom"`
	DateTo   string         `schema:"dateTo"`
}

// Trade is a single historic trade.
type Trade struct {
	Price      float64 `json:"price"`
	Size       float64 `json:"size"`
	Datetime   string  `json:"datetime"`
	ServerTime int64   `json:"servertime"`
	Symbol     string  `json:"symbol"`
}

type TradesResp struct {
	statusResponse
	Symbol string  `json:"symbol"`
	Trades []Trade `json:"trades"`
}

// GetTradeHistory lists the trades of an instrument between two dates.
func (c *Client) GetTradeHistory(ctx context.Context, req TradeHistoryReq) (*TradesResp, error) {
	if req.MarketID == "" {
		req.MarketID = trading.MarketRofex
	}

	resp := new(TradesResp)
	return resp, c.GetJSON(ctx, PathTradeHistory, req, resp)
}

// NewOrderReq routes a new order to the market.
type NewOrderReq struct {
	MarketID       trading.Market      `schema:"marketId"`
	Symbol         string              `schema:"symbol"`
	Price          float64             `schema:"price,omitempty"`
	OrderQty       float64             `schema:"orderQty"`
	OrdType        trading.OrderType   `schema:"ordType"`
	Side           trading.Side        `schema:"side"`
	TimeInForce    trading.TimeInForce `schema:"timeInForce"`
	Account        string              `schema:"account"`
	CancelPrevious bool                `schema:"cancelPrevious"`
	Iceberg        bool                `schema:"iceberg,omitempty"`
	ExpireDate     string              `schema:"expireDate,omitempty"`
	DisplayQty     float64             `schema:"displayQty,omitempty"`
}

// OrderRef identifies a routed order.
type OrderRef struct {
	ClientOrderID string `json:"clientId"`
	Proprietary   string `json:"proprietary"`
}

type OrderResp struct {
	statusResponse
	Order OrderRef `json:"order"`
}

// SendOrder routes a new order. Zero request fields default to market
// ROFEX, time in force Day and the client's configured account.
// Limit orders require a price, GTD orders an expire date.
func (c *Client) SendOrder(ctx context.Context, req NewOrderReq) (*OrderResp, error) {
	if req.Symbol == "" {
		return nil, fmt.Errorf("rest: empty symbol")
	}
	if req.MarketID == "" {
		req.MarketID = trading.MarketRofex
	}
	if req.TimeInForce == "" {
		req.TimeInForce = trading.Day
	}
	if req.Account == "" {
		req.Account = c.cfg.Account
	}

	if req.OrdType == trading.Limit && req.Price == 0 {
		return nil, fmt.Errorf("rest: limit order without price")
	}
	if req.TimeInForce == trading.GoodTillDate && req.ExpireDate == "" {
		return nil, fmt.Errorf("rest: GTD order without expire date")
	}

	resp := new(OrderResp)
	return resp, c.GetJSON(ctx, PathNewOrder, req, resp)
}

type orderRefReq struct {
	ClientOrderID string `schema:"clOrdId"`
	Proprietary   string `schema:"proprietary"`
}

// CancelOrder requests cancellation of the passed order. The market
// answers with a new client order ID, verify its status separately.
// An empty proprietary applies the client's configured default.
func (c *Client) CancelOrder(ctx context.Context, clientOrderID, proprietary string) (*OrderResp, error) {
	if proprietary == "" {
		proprietary = c.cfg.Proprietary
	}

	resp := new(OrderResp)
	return resp, c.GetJSON(ctx, PathCancelOrder, orderRefReq{clientOrderID, proprietary}, resp)
}

type OrderStatusResp struct {
	statusResponse
	Order trading.OrderReport `json:"order"`
}

// GetOrderStatus requests the status of one order.
// An empty proprietary applies the client's configured default.
func (c *Client) GetOrderStatus(ctx context.Context, clientOrderID, proprietary string) (*OrderStatusResp, error) {
	if proprietary == "" {
		proprietary = c.cfg.Proprietary
	}

	resp := new(OrderStatusResp)
	return resp, c.GetJSON(ctx, PathOrderStatus, orderRefReq{clientOrderID, proprietary}, resp)
}

type allOrdersReq struct {
	AccountID string `schema:"accountId"`
}

type AllOrdersResp struct {
	statusResponse
	Orders []trading.OrderReport `json:"orders"`
}

// GetAllOrders lists the status of all orders of an account.
// An empty account applies the client's configured default.
func (c *Client) GetAllOrders(ctx context.Context, account string) (*AllOrdersResp, error) {
	if account == "" {
		account = c.cfg.Account
	}

	resp := new(AllOrdersResp)
	return resp, c.GetJSON(ctx, PathAllOrders, allOrdersReq{account}, resp)
}

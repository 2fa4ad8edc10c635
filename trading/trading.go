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

// Package trading defines the enumerations of the Primary trading API,
// with their wire representations.
package trading

// Market identifies the exchange an instrument trades on.
type Market string

const (
	// MarketRofex is the ROFEX exchange.
	MarketRofex Market = "ROFX"
)

// Side of an order.
type Side string

const (
	Buy  Side = "buy"
	Sell Side = "sell"
)

// OrderType identifies the supported order types.
type OrderType string

const (
	Limit         OrderType = "limit"
	MarketOrder   OrderType = "market"
	MarketToLimit OrderType = "market_to_limit"
)

// TimeInForce defines how long an order stays active.
type TimeInForce string

const (
	Day               TimeInForce = "Day"
	ImmediateOrCancel TimeInForce = "IOC"
	FillOrKill        TimeInForce = "FOK"
	GoodTillDate      TimeInForce = "GTD" // requires an expire date
)

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

package trading

// Account reference, as nested in order reports and subscriptions.
type Account struct {
	ID string `json:"id"`
}

// OrderReport carries the order state reported by the exchange,
// both in REST order status responses and streaming notifications.
type OrderReport struct {
	OrderID       string       `json:"orderId"`
	ClientOrderID string       `json:"clOrdId"`
	Proprietary   string       `json:"proprietary"`
	ExecID        string       `json:"execId"`
	Account       Account      `json:"accountId"`
	InstrumentID  InstrumentID `json:"instrumentId"`
	Price         float64      `json:"price"`
	OrderQty      float64      `json:"orderQty"`
	OrdType       OrderType    `json:"ordType"`
	Side          Side         `json:"side"`
	TimeInForce   TimeInForce  `json:"timeInForce"`
	CumQty        float64      `json:"cumQty"`
	LeavesQty     float64      `json:"leavesQty"`
	LastQty       float64      `json:"lastQty"`
	LastPrice     float64      `json:"lastPx"`
	AvgPrice      float64      `json:"avgPx"`
	Status        string       `json:"status"`
	Text          string       `json:"text"`
	TransactTime  string       `json:"transactTime"`
}

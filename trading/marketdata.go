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

import (
	"encoding/json"
	"fmt"
)

// PriceEntry is a single priced entry value, used for trade and
// book entries.
type PriceEntry struct {
	Price float64 `json:"price"`
	Size  float64 `json:"size"`
	Date  int64   `json:"date,omitempty"`
}

// MarketData holds entry values by entry code, as returned by both
// the REST snapshot and the streaming updates. The API encodes
// entries in three shapes: priced objects (Last, SettlementPrice),
// book arrays (Bids, Offers) and plain numbers (TradeVolume,
// IndexValue). Use the matching accessor.
type MarketData map[Entry]json.RawMessage

func (md MarketData) raw(entry Entry) (json.RawMessage, error) {
	data, ok := md[entry]
	if !ok || string(data) == "null" {
		return nil, fmt.Errorf("trading: no %q entry in market data", entry)
	}
	return data, nil
}

// Price returns the value of a priced entry, such as Last or SettlementPrice.
func (md MarketData) Price(entry Entry) (pe PriceEntry, err error) {
	data, err := md.raw(entry)
	if err != nil {
		return pe, err
	}

	if err = json.Unmarshal(data, &pe); err != nil {
		return pe, fmt.Errorf("trading: entry %q: %w", entry, err)
	}

	return pe, nil
}

// Last returns the last traded price entry.
func (md MarketData) Last() (PriceEntry, error) {
	return md.Price(Last)
}

// Book returns the value of a book entry, Bids or Offers.
func (md MarketData) Book(entry Entry) (pes []PriceEntry, err error) {
	data, err := md.raw(entry)
	if err != nil {
		return nil, err
	}

	if err = json.Unmarshal(data, &pes); err != nil {
		return nil, fmt.Errorf("trading: entry %q: %w", entry, err)
	}

	return pes, nil
}

// Value returns the value of a plain numeric entry,
// such as TradeVolume or IndexValue.
func (md MarketData) Value(entry Entry) (v float64, err error) {
	data, err := md.raw(entry)
	if err != nil {
		return 0, err
	}

	if err = json.Unmarshal(data, &v); err != nil {
		return 0, fmt.Errorf("trading: entry %q: %w", entry, err)
	}

	return v, nil
}

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

import "strings"

// Entry is a market data entry code for an instrument.
type Entry string

const (
	Bids                 Entry = "BI" // Best buy offer in the market book
	Offers               Entry = "OF" // Best sell offer in the market book
	Last                 Entry = "LA" // Last traded price
	OpeningPrice         Entry = "OP"
	ClosingPrice         Entry = "CL"
	SettlementPrice      Entry = "SE" // Futures only
	HighPrice            Entry = "HI"
	LowPrice             Entry = "LO"
	TradeVolume          Entry = "TV"
	OpenInterest         Entry = "OI" // Futures only
	IndexValue           Entry = "IV" // Index only
	TradeEffectiveVolume Entry = "EV"
	NominalVolume        Entry = "NV"
)

var validEntries = map[Entry]struct{}{
	Bids: {}, Offers: {}, Last: {},
	OpeningPrice: {}, ClosingPrice: {}, SettlementPrice: {},
	HighPrice: {}, LowPrice: {},
	TradeVolume: {}, OpenInterest: {}, IndexValue: {},
	TradeEffectiveVolume: {}, NominalVolume: {},
}

// Valid reports whether e is a known entry code.
func (e Entry) Valid() bool {
	_, ok := validEntries[e]
	return ok
}

// Entries is a set of entry codes, in request order.
type Entries []Entry

// AllEntries returns every known entry code.
// Used as the default for market data requests.
func AllEntries() Entries {
	return Entries{
		Bids, Offers, Last,
		OpeningPrice, ClosingPrice, SettlementPrice,
		HighPrice, LowPrice,
		TradeVolume, OpenInterest, IndexValue,
		TradeEffectiveVolume, NominalVolume,
	}
}

// Join returns the comma separated wire form, as used in query strings.
func (e Entries) Join() string {
	ss := make([]string, len(e))
	for i, entry := range e {
		ss[i] = string(entry)
	}
	return strings.Join(ss, ",")
}

// Validate returns the first entry code not known to the API, if any.
func (e Entries) Validate() (Entry, bool) {
	for _, entry := range e {
		if !entry.Valid() {
			return entry, false
		}
	}
	return "", true
}

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
	"reflect"
	"testing"
)

func TestEntry_Valid(t *testing.T) {
	tests := []struct {
		entry Entry
		want  bool
	}{
		{Last, true},
		{Bids, true},
		{NominalVolume, true},
		{Entry("XX"), false},
		{Entry(""), false},
	}
	for _, tt := range tests {
		t.Run(string(tt.entry), func(t *testing.T) {
			if got := tt.entry.Valid(); got != tt.want {
				t.Errorf("Entry.Valid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEntries_Join(t *testing.T) {
	tests := []struct {
		name    string
		entries Entries
		want    string
	}{
		{"empty", nil, ""},
		{"single", Entries{Last}, "LA"},
		{"multiple", Entries{Bids, Offers, Last}, "BI,OF,LA"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.entries.Join(); got != tt.want {
				t.Errorf("Entries.Join() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestEntries_Validate(t *testing.T) {
	tests := []struct {
		name      string
		entries   Entries
		wantEntry Entry
		wantOK    bool
	}{
		{"all known", AllEntries(), "", true},
		{"unknown", Entries{Last, "XX", Bids}, "XX", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry, ok := tt.entries.Validate()
			if entry != tt.wantEntry || ok != tt.wantOK {
				t.Errorf("Entries.Validate() = %q, %v, want %q, %v", entry, ok, tt.wantEntry, tt.wantOK)
			}
		})
	}
}

const marketDataJSON = `{
	"LA": {"price": 55.8, "size": 10, "date": 1571349600000},
	"OF": [{"price": 56.0, "size": 5}, {"price": 56.1, "size": 3}],
	"TV": 1250,
	"OI": null
}`

func testMarketData(t *testing.T) MarketData {
	var md MarketData
	if err := json.Unmarshal([]byte(marketDataJSON), &md); err != nil {
		t.Fatal(err)
	}
	return md
}

func TestMarketData_Price(t *testing.T) {
	md := testMarketData(t)

	got, err := md.Last()
	if err != nil {
		t.Fatal(err)
	}

	want := PriceEntry{Price: 55.8, Size: 10, Date: 1571349600000}
	if got != want {
		t.Errorf("MarketData.Last() = %v, want %v", got, want)
	}

	if _, err = md.Price(SettlementPrice); err == nil {
		t.Error("MarketData.Price(SE) err = nil, want error")
	}
	if _, err = md.Price(OpenInterest); err == nil {
		t.Error("MarketData.Price(OI) err = nil, want error on null entry")
	}
}

func TestMarketData_Book(t *testing.T) {
	md := testMarketData(t)

	got, err := md.Book(Offers)
	if err != nil {
		t.Fatal(err)
	}

	want := []PriceEntry{{Price: 56, Size: 5}, {Price: 56.1, Size: 3}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("MarketData.Book(OF) = %v, want %v", got, want)
	}

	if _, err = md.Book(Bids); err == nil {
		t.Error("MarketData.Book(BI) err = nil, want error")
	}
}

func TestMarketData_Value(t *testing.T) {
	md := testMarketData(t)

	got, err := md.Value(TradeVolume)
	if err != nil {
		t.Fatal(err)
	}
	if got != 1250 {
		t.Errorf("MarketData.Value(TV) = %v, want 1250", got)
	}

	if _, err = md.Value(Last); err == nil {
		t.Error("MarketData.Value(LA) err = nil, want error on object entry")
	}
}

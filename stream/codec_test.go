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
	"errors"
	"reflect"
	"testing"

	"github.com/matbarofex/gorofex/trading"
)

func TestDecode_marketData(t *testing.T) {
	const frame = `{
		"type": "Md",
		"timestamp": 1571349600000,
		"instrumentId": {"marketId": "ROFX", "symbol": "DODic19"},
		"marketData": {"LA": {"price": 55.8, "size": 10, "date": 1571349600000}}
	}`

	msg := Decode([]byte(frame))

	md, ok := msg.(*MarketDataMessage)
	if !ok {
		t.Fatalf("Decode() = %T, want *MarketDataMessage", msg)
	}
	if md.Category() != CategoryMarketData {
		t.Errorf("Category() = %v, want %v", md.Category(), CategoryMarketData)
	}
	if md.InstrumentID.Symbol != "DODic19" || md.InstrumentID.MarketID != trading.MarketRofex {
		t.Errorf("InstrumentID = %v", md.InstrumentID)
	}

	last, err := md.MarketData.Last()
	if err != nil {
		t.Fatal(err)
	}
	if last.Price != 55.8 {
		t.Errorf("Last().Price = %v, want 55.8", last.Price)
	}
}

func TestDecode_orderReport(t *testing.T) {
	const frame = `{
		"type": "or",
		"timestamp": 1571349600000,
		"orderReport": {
			"clOrdId": "client-1",
			"proprietary": "PBCP",
			"accountId": {"id": "10"},
			"instrumentId": {"marketId": "ROFX", "symbol": "DODic19"},
			"status": "NEW",
			"side": "buy",
			"price": 55.8,
			"orderQty": 10
		}
	}`

	msg := Decode([]byte(frame))

	or, ok := msg.(*OrderReportMessage)
	if !ok {
		t.Fatalf("Decode() = %T, want *OrderReportMessage", msg)
	}
	if or.OrderReport.ClientOrderID != "client-1" {
		t.Errorf("ClientOrderID = %s, want client-1", or.OrderReport.ClientOrderID)
	}
	if or.OrderReport.Account.ID != "10" {
		t.Errorf("Account.ID = %s, want 10", or.OrderReport.Account.ID)
	}
	if or.OrderReport.Side != trading.Buy {
		t.Errorf("Side = %s, want %s", or.OrderReport.Side, trading.Buy)
	}
}

func TestDecode_errors(t *testing.T) {
	tests := []struct {
		name  string
		frame string
	}{
		// Exchange-reported errors take precedence over the type field.
		{"status error", `{"type": "Md", "status": "ERROR", "description": "bad subscription"}`},
		{"unknown type", `{"type": "unknown"}`},
		{"no type", `{"timestamp": 1}`},
		{"unparseable", `{invalid`},
		{"malformed market data", `{"type": "Md", "marketData": 42}`},
		{"malformed order report", `{"type": "or", "orderReport": []}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := Decode([]byte(tt.frame))

			em, ok := msg.(*ErrorMessage)
			if !ok {
				t.Fatalf("Decode() = %T, want *ErrorMessage", msg)
			}
			if string(em.RawFrame()) != tt.frame {
				t.Errorf("RawFrame() = %s, want %s", em.RawFrame(), tt.frame)
			}
			if em.Error() == "" {
				t.Error("Error() is empty")
			}
		})
	}
}

func TestEncodeLogin(t *testing.T) {
	if _, err := EncodeLogin(""); err == nil {
		t.Error("EncodeLogin(\"\") err = nil, want ValidationError")
	}

	data, err := EncodeLogin("token-1")
	if err != nil {
		t.Fatal(err)
	}

	var got loginRequest
	if err = json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}

	want := loginRequest{Type: "login", Token: "token-1"}
	if got != want {
		t.Errorf("EncodeLogin() = %v, want %v", got, want)
	}
}

func TestEncodeMarketDataSubscription(t *testing.T) {
	tests := []struct {
		name    string
		tickers []string
		entries trading.Entries
		market  trading.Market
		level   int
		wantErr bool
	}{
		{
			name:    "no tickers",
			entries: trading.Entries{trading.Last},
			wantErr: true,
		},
		{
			name:    "empty ticker",
			tickers: []string{"DODic19", ""},
			entries: trading.Entries{trading.Last},
			wantErr: true,
		},
		{
			name:    "no entries",
			tickers: []string{"DODic19"},
			wantErr: true,
		},
		{
			name:    "unknown entry",
			tickers: []string{"DODic19"},
			entries: trading.Entries{"XX"},
			wantErr: true,
		},
		{
			name:    "success",
			tickers: []string{"DODic19", "DOFeb20"},
			entries: trading.Entries{trading.Bids, trading.Offers},
			level:   2,
		},
		{
			name:    "defaults",
			tickers: []string{"DODic19"},
			entries: trading.Entries{trading.Last},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := EncodeMarketDataSubscription(tt.tickers, tt.entries, tt.market, tt.level)
			if tt.wantErr {
				var ve *ValidationError
				if !errors.As(err, &ve) {
					t.Fatalf("err = %v, want ValidationError", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}

			var got marketDataRequest
			if err = json.Unmarshal(data, &got); err != nil {
				t.Fatal(err)
			}

			if got.Type != "smd" {
				t.Errorf("type = %s, want smd", got.Type)
			}

			wantLevel := tt.level
			if wantLevel == 0 {
				wantLevel = 1
			}
			if got.Level != wantLevel {
				t.Errorf("level = %d, want %d", got.Level, wantLevel)
			}

			wantProducts := make([]trading.InstrumentID, len(tt.tickers))
			for i, ticker := range tt.tickers {
				wantProducts[i] = trading.InstrumentID{MarketID: trading.MarketRofex, Symbol: ticker}
			}
			if !reflect.DeepEqual(got.Products, wantProducts) {
				t.Errorf("products = %v, want %v", got.Products, wantProducts)
			}
		})
	}
}

func TestEncodeOrderReportSubscription(t *testing.T) {
	if _, err := EncodeOrderReportSubscription("", false); err == nil {
		t.Error("empty account err = nil, want ValidationError")
	}

	data, err := EncodeOrderReportSubscription("10", true)
	if err != nil {
		t.Fatal(err)
	}

	var got orderReportRequest
	if err = json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}

	want := orderReportRequest{Type: "os", Account: trading.Account{ID: "10"}, SnapshotOnlyActive: true}
	if got != want {
		t.Errorf("EncodeOrderReportSubscription() = %v, want %v", got, want)
	}
}

func TestEncodeUnsubscriptions(t *testing.T) {
	data, err := EncodeMarketDataUnsubscription([]string{"DODic19"}, "")
	if err != nil {
		t.Fatal(err)
	}
	var md marketDataRequest
	if err = json.Unmarshal(data, &md); err != nil {
		t.Fatal(err)
	}
	if md.Type != "smu" {
		t.Errorf("type = %s, want smu", md.Type)
	}

	data, err = EncodeOrderReportUnsubscription("10")
	if err != nil {
		t.Fatal(err)
	}
	var or orderReportRequest
	if err = json.Unmarshal(data, &or); err != nil {
		t.Fatal(err)
	}
	if or.Type != "ou" {
		t.Errorf("type = %s, want ou", or.Type)
	}
}

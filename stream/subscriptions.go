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
	"github.com/matbarofex/gorofex/trading"
)

// SubscriptionKind discriminates the two subscription flavors.
type SubscriptionKind int

const (
	KindMarketData SubscriptionKind = iota + 1
	KindOrderReports
)

// Subscription is a recorded subscription request. It is retained by
// the session for its whole life, so it can be replayed after a
// reconnect, until explicitly unsubscribed.
type Subscription struct {
	ID   string
	Kind SubscriptionKind

	// Market data subscriptions.
	Tickers []string
	Entries trading.Entries
	Market  trading.Market
	Level   int

	// Order report subscriptions.
	Account            string
	SnapshotOnlyActive bool
}

// frame encodes the subscribe request, validating it.
func (s *Subscription) frame() ([]byte, error) {
	if s.Kind == KindOrderReports {
		return EncodeOrderReportSubscription(s.Account, s.SnapshotOnlyActive)
	}
	return EncodeMarketDataSubscription(s.Tickers, s.Entries, s.Market, s.Level)
}

// cancelFrame encodes the matching unsubscribe request.
func (s *Subscription) cancelFrame() ([]byte, error) {
	if s.Kind == KindOrderReports {
		return EncodeOrderReportUnsubscription(s.Account)
	}
	return EncodeMarketDataUnsubscription(s.Tickers, s.Market)
}

// subscriptionSet retains subscriptions in creation order.
// Not safe for concurrent use, guarded by Session.mtx.
type subscriptionSet struct {
	subs []*Subscription
}

func (set *subscriptionSet) add(sub *Subscription) {
	set.subs = append(set.subs, sub)
}

func (set *subscriptionSet) remove(id string) (*Subscription, bool) {
	for i, sub := range set.subs {
		if sub.ID == id {
			set.subs = append(set.subs[:i:i], set.subs[i+1:]...)
			return sub, true
		}
	}
	return nil, false
}

// snapshot returns the retained subscriptions in creation order.
func (set *subscriptionSet) snapshot() []*Subscription {
	return set.subs
}

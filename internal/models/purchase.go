package models

import "time"

// PurchasePrice is one catalog item. Identity is (TransactionClass, Distinguisher).
type PurchasePrice struct {
	TransactionClass string `json:"class"`
	Distinguisher    string `json:"distinguisher"`
	Price            int64  `json:"price"`
}

// Purchase is a purchase owned by the user. ID is unique within a UserState.
// A purchase with neither expiry set never expires.
type Purchase struct {
	ID               string     `json:"id"`
	TransactionClass string     `json:"class"`
	Distinguisher    string     `json:"distinguisher"`
	ServerExpiry     *time.Time `json:"serverTimeExpiry,omitempty"`
	LocalExpiry      *time.Time `json:"localTimeExpiry,omitempty"`
	Authorization    *string    `json:"authorization,omitempty"`
}

// HasExpiry reports whether at least one expiry is set.
func (p Purchase) HasExpiry() bool {
	return p.ServerExpiry != nil || p.LocalExpiry != nil
}

// EarliestExpiry returns the earliest of the set expiries, or false if the
// purchase is permanent.
func (p Purchase) EarliestExpiry() (time.Time, bool) {
	switch {
	case p.ServerExpiry != nil && p.LocalExpiry != nil:
		if p.LocalExpiry.Before(*p.ServerExpiry) {
			return *p.LocalExpiry, true
		}
		return *p.ServerExpiry, true
	case p.ServerExpiry != nil:
		return *p.ServerExpiry, true
	case p.LocalExpiry != nil:
		return *p.LocalExpiry, true
	}
	return time.Time{}, false
}

// Clone returns a deep copy of p with timestamps normalized to UTC and
// stripped of their monotonic reading, which is the form they are persisted in.
func (p Purchase) Clone() Purchase {
	out := p
	out.ServerExpiry = cloneTime(p.ServerExpiry)
	out.LocalExpiry = cloneTime(p.LocalExpiry)
	if p.Authorization != nil {
		a := *p.Authorization
		out.Authorization = &a
	}
	return out
}

// ClonePurchases deep-copies ps into a new non-nil slice.
func ClonePurchases(ps []Purchase) []Purchase {
	out := make([]Purchase, len(ps))
	for i, p := range ps {
		out[i] = p.Clone()
	}
	return out
}

// ClonePurchasePrices copies pps into a new non-nil slice.
func ClonePurchasePrices(pps []PurchasePrice) []PurchasePrice {
	out := make([]PurchasePrice, len(pps))
	copy(out, pps)
	return out
}

// TimePtr returns a pointer to t normalized the way Purchase stores times.
func TimePtr(t time.Time) *time.Time {
	return cloneTime(&t)
}

// StringPtr returns a pointer to a copy of s.
func StringPtr(s string) *string {
	return &s
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}

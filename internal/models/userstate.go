// Package models defines the client-side user state persisted by the
// PsiCash state engine: credits, authorization tokens, the purchase catalog
// and the purchases the user owns.
package models

import (
	"maps"
	"slices"
	"time"
)

// Token types known to the SDK. A token type is the key in AuthTokens.
const (
	TokenTypeEarner    = "earner"
	TokenTypeSpender   = "spender"
	TokenTypeIndicator = "indicator"
	TokenTypeAccount   = "account"
)

// AuthTokens maps a token type to its token value. An empty map means the
// user holds no valid tokens.
type AuthTokens map[string]string

// Types returns the token types with a non-empty value, sorted.
func (t AuthTokens) Types() []string {
	types := make([]string, 0, len(t))
	for _, k := range slices.Sorted(maps.Keys(t)) {
		if t[k] != "" {
			types = append(types, k)
		}
	}
	return types
}

// UserState is the aggregate owned by the persistent store.
type UserState struct {
	// IsAccount distinguishes a registered account from an anonymous tracker.
	IsAccount bool

	// Balance is the credit balance in the smallest currency unit. Never negative.
	Balance int64

	// RequestMetadata holds arbitrary client-supplied key/value pairs.
	RequestMetadata map[string]string

	// AuthTokens holds the currently valid tokens keyed by type.
	AuthTokens AuthTokens

	// PurchasePrices is the purchasable catalog as last fetched.
	PurchasePrices []PurchasePrice

	// Purchases are the purchases currently owned by the user.
	Purchases []Purchase

	// ServerTimeDiff is server clock minus local clock.
	ServerTimeDiff time.Duration
}

// NewUserState returns a UserState with every field at its default and all
// collections non-nil.
func NewUserState() UserState {
	return UserState{
		RequestMetadata: map[string]string{},
		AuthTokens:      AuthTokens{},
		PurchasePrices:  []PurchasePrice{},
		Purchases:       []Purchase{},
	}
}

// Clone returns a deep copy of s. Nil collections come back as empty ones so
// callers never have to distinguish the two.
func (s UserState) Clone() UserState {
	return UserState{
		IsAccount:       s.IsAccount,
		Balance:         s.Balance,
		ServerTimeDiff:  s.ServerTimeDiff,
		RequestMetadata: CloneStringMap(s.RequestMetadata),
		AuthTokens:      AuthTokens(CloneStringMap(s.AuthTokens)),
		PurchasePrices:  ClonePurchasePrices(s.PurchasePrices),
		Purchases:       ClonePurchases(s.Purchases),
	}
}

// CloneStringMap copies m into a new non-nil map.
func CloneStringMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

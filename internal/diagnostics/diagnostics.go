// Package diagnostics renders a privacy-safe summary of the user state for
// support and feedback. Tokens, ids, authorizations and metadata values are
// never included.
package diagnostics

import (
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/psicash/internal/models"
)

// PurchasePrice is a catalog entry as reported.
type PurchasePrice struct {
	Class         string `json:"class"`
	Distinguisher string `json:"distinguisher"`
	Price         int64  `json:"price"`
}

// Purchase is an owned purchase as reported.
type Purchase struct {
	Class         string `json:"class"`
	Distinguisher string `json:"distinguisher"`
}

// Info is the diagnostic report. Fields are declared in key order so the
// JSON form is stable.
type Info struct {
	Balance        int64           `json:"balance"`
	IsAccount      bool            `json:"isAccount"`
	PurchasePrices []PurchasePrice `json:"purchasePrices"`
	Purchases      []Purchase      `json:"purchases"`
	// ServerTimeDiff is in milliseconds.
	ServerTimeDiff  int64    `json:"serverTimeDiff"`
	ValidTokenTypes []string `json:"validTokenTypes"`
}

// Source supplies a consistent view of the state.
type Source interface {
	View(fn func(state models.UserState))
}

// Collect builds the report from one consistent view of src.
func Collect(src Source) Info {
	var info Info
	src.View(func(st models.UserState) {
		info = FromState(st)
	})
	return info
}

// FromState builds the report for st. Lists are never nil.
func FromState(st models.UserState) Info {
	info := Info{
		Balance:         st.Balance,
		IsAccount:       st.IsAccount,
		PurchasePrices:  make([]PurchasePrice, 0, len(st.PurchasePrices)),
		Purchases:       make([]Purchase, 0, len(st.Purchases)),
		ServerTimeDiff:  st.ServerTimeDiff.Milliseconds(),
		ValidTokenTypes: st.AuthTokens.Types(),
	}
	for _, pp := range st.PurchasePrices {
		info.PurchasePrices = append(info.PurchasePrices, PurchasePrice{
			Class:         pp.TransactionClass,
			Distinguisher: pp.Distinguisher,
			Price:         pp.Price,
		})
	}
	for _, p := range st.Purchases {
		info.Purchases = append(info.Purchases, Purchase{
			Class:         p.TransactionClass,
			Distinguisher: p.Distinguisher,
		})
	}
	return info
}

// JSON returns the compact JSON form of info.
func (info Info) JSON() (string, error) {
	b, err := json.Marshal(info)
	if err != nil {
		return "", fmt.Errorf("marshal diagnostic info: %w", err)
	}
	return string(b), nil
}

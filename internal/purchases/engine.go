// Package purchases implements the purchase lifecycle on top of the user
// state store: expiry evaluation, expiring and removing owned purchases, and
// access to the purchasable catalog.
//
// Expiry is evaluated lazily, only when a caller asks. A purchase without
// any expiry is permanent. A purchase with one or both expiries set is
// expired as soon as any of them is at or before "now".
package purchases

import (
	"context"
	"slices"
	"time"

	"github.com/dmitrijs2005/psicash/internal/logging"
	"github.com/dmitrijs2005/psicash/internal/models"
	"github.com/dmitrijs2005/psicash/internal/userdata"
)

// Store is the part of userdata.Store the engine needs.
type Store interface {
	Purchases() []models.Purchase
	PurchasePrices() []models.PurchasePrice
	SetPurchasePrices(ctx context.Context, pps []models.PurchasePrice) error
	Update(ctx context.Context, fn func(state *models.UserState) error) error
}

// Engine evaluates and prunes the purchases held by a Store.
type Engine struct {
	store Store
	log   logging.Logger
	now   func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the clock used to decide expiry.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func NewEngine(store Store, log logging.Logger, opts ...Option) *Engine {
	if log == nil {
		log = logging.Discard()
	}
	e := &Engine{store: store, log: log, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// IsExpired reports whether p is expired at now.
func IsExpired(p models.Purchase, now time.Time) bool {
	exp, ok := p.EarliestExpiry()
	return ok && !exp.After(now)
}

// GetPurchases returns every owned purchase in stored order.
func (e *Engine) GetPurchases() []models.Purchase {
	return e.store.Purchases()
}

// ValidPurchases returns the purchases that are not expired, in stored order.
func (e *Engine) ValidPurchases() []models.Purchase {
	now := e.now()
	ps := e.store.Purchases()
	return slices.DeleteFunc(ps, func(p models.Purchase) bool {
		return IsExpired(p, now)
	})
}

// PurchasesByClass returns the purchases whose transaction class is one of
// classes, in stored order.
func (e *Engine) PurchasesByClass(classes ...string) []models.Purchase {
	ps := e.store.Purchases()
	return slices.DeleteFunc(ps, func(p models.Purchase) bool {
		return !slices.Contains(classes, p.TransactionClass)
	})
}

// NextExpiringPurchase returns the purchase with the earliest expiry, or
// false when no purchase has one. Ties go to the first in stored order.
func (e *Engine) NextExpiringPurchase() (models.Purchase, bool) {
	var (
		next     models.Purchase
		earliest time.Time
		found    bool
	)
	for _, p := range e.store.Purchases() {
		exp, ok := p.EarliestExpiry()
		if !ok {
			continue
		}
		if !found || exp.Before(earliest) {
			next, earliest, found = p, exp, true
		}
	}
	return next, found
}

// ExpirePurchases removes every expired purchase from the store and returns
// them in their original relative order. When nothing has expired the store
// is not written and an empty slice is returned.
func (e *Engine) ExpirePurchases(ctx context.Context) ([]models.Purchase, error) {
	now := e.now()
	expired := []models.Purchase{}

	err := e.store.Update(ctx, func(st *models.UserState) error {
		kept := make([]models.Purchase, 0, len(st.Purchases))
		for _, p := range st.Purchases {
			if IsExpired(p, now) {
				expired = append(expired, p)
			} else {
				kept = append(kept, p)
			}
		}
		if len(expired) == 0 {
			return userdata.ErrNoChange
		}
		st.Purchases = kept
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(expired) > 0 {
		e.log.Info(ctx, "expired purchases removed", "count", len(expired))
	}
	return expired, nil
}

// RemovePurchases deletes the purchases with the given ids regardless of
// their expiry. Unknown ids are ignored.
func (e *Engine) RemovePurchases(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return e.store.Update(ctx, func(st *models.UserState) error {
		n := len(st.Purchases)
		st.Purchases = slices.DeleteFunc(st.Purchases, func(p models.Purchase) bool {
			return slices.Contains(ids, p.ID)
		})
		if len(st.Purchases) == n {
			return userdata.ErrNoChange
		}
		e.log.Debug(ctx, "purchases removed", "count", n-len(st.Purchases))
		return nil
	})
}

// GetPurchasePrices returns the catalog as last stored.
func (e *Engine) GetPurchasePrices() []models.PurchasePrice {
	return e.store.PurchasePrices()
}

// SetPurchasePrices replaces the catalog wholesale.
func (e *Engine) SetPurchasePrices(ctx context.Context, pps []models.PurchasePrice) error {
	return e.store.SetPurchasePrices(ctx, pps)
}

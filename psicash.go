// Package psicash is the client-side state engine of the PsiCash SDK.
//
// A PsiCash owns the durable user state (credits, authorization tokens, the
// purchase catalog and owned purchases) and builds the reward context that
// is handed to a landing page or rewarded activity. State lives in a SQLite
// file inside the directory passed to Init; every mutation is written
// before the call returns.
//
// All methods are safe for concurrent use. Calls made before a successful
// Init fail with ErrNotInitialized.
package psicash

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/psicash/internal/common"
	"github.com/dmitrijs2005/psicash/internal/diagnostics"
	"github.com/dmitrijs2005/psicash/internal/logging"
	"github.com/dmitrijs2005/psicash/internal/models"
	"github.com/dmitrijs2005/psicash/internal/purchases"
	"github.com/dmitrijs2005/psicash/internal/rewardctx"
	"github.com/dmitrijs2005/psicash/internal/tokens"
	"github.com/dmitrijs2005/psicash/internal/userdata"
)

type PsiCash struct {
	mu        sync.RWMutex
	log       logging.Logger
	now       func() time.Time
	store     *userdata.Store
	tokens    *tokens.Manager
	purchases *purchases.Engine
	requestFn HTTPRequestFunc
}

type Option func(*PsiCash)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l Logger) Option {
	return func(pc *PsiCash) {
		if l != nil {
			pc.log = l
		}
	}
}

// WithClock overrides the clock used for expiry and server time sync.
func WithClock(now func() time.Time) Option {
	return func(pc *PsiCash) {
		if now != nil {
			pc.now = now
		}
	}
}

func New(opts ...Option) *PsiCash {
	pc := &PsiCash{log: logging.Discard(), now: time.Now}
	for _, opt := range opts {
		opt(pc)
	}
	return pc
}

// Init binds pc to the data directory location and loads the stored state,
// writing a default state when there is none. The directory is created if
// only its last segment is missing. fn may be nil and set later.
//
// Calling Init again rebinds pc, closing the previous store.
func (pc *PsiCash) Init(ctx context.Context, location string, fn HTTPRequestFunc) error {
	store, err := userdata.Open(ctx, location, pc.log.With("component", "userdata"),
		userdata.WithClock(pc.now))
	if err != nil {
		return err
	}

	pc.mu.Lock()
	defer pc.mu.Unlock()

	if pc.store != nil {
		if err := pc.store.Close(); err != nil {
			pc.log.Warn(ctx, "failed to close previous store", "error", err)
		}
	}
	pc.store = store
	pc.tokens = tokens.NewManager(store)
	pc.purchases = purchases.NewEngine(store, pc.log.With("component", "purchases"),
		purchases.WithClock(pc.now))
	pc.requestFn = fn
	pc.log.Info(ctx, "psicash initialized", "location", location)
	return nil
}

// Initialized reports whether Init has succeeded and Close has not been called.
func (pc *PsiCash) Initialized() bool {
	pc.mu.RLock()
	defer pc.mu.RUnlock()
	return pc.store != nil
}

// Close releases the underlying store. pc may be initialized again.
func (pc *PsiCash) Close() error {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	if pc.store == nil {
		return nil
	}
	err := pc.store.Close()
	pc.store, pc.tokens, pc.purchases = nil, nil, nil
	return err
}

// SetHTTPRequestFn replaces the request function given to Init.
func (pc *PsiCash) SetHTTPRequestFn(fn HTTPRequestFunc) {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	pc.requestFn = fn
}

func (pc *PsiCash) HasHTTPRequestFn() bool {
	pc.mu.RLock()
	defer pc.mu.RUnlock()
	return pc.requestFn != nil
}

type components struct {
	store     *userdata.Store
	tokens    *tokens.Manager
	purchases *purchases.Engine
}

func (pc *PsiCash) components() (components, error) {
	pc.mu.RLock()
	defer pc.mu.RUnlock()
	if pc.store == nil {
		return components{}, common.ErrNotInitialized
	}
	return components{store: pc.store, tokens: pc.tokens, purchases: pc.purchases}, nil
}

//
// Tokens and metadata
//

// ValidTokenTypes returns the types of the tokens currently held, sorted.
func (pc *PsiCash) ValidTokenTypes() ([]string, error) {
	c, err := pc.components()
	if err != nil {
		return nil, err
	}
	return c.tokens.ValidTokenTypes(), nil
}

func (pc *PsiCash) IsAccount() (bool, error) {
	c, err := pc.components()
	if err != nil {
		return false, err
	}
	return c.tokens.IsAccount(), nil
}

func (pc *PsiCash) Balance() (int64, error) {
	c, err := pc.components()
	if err != nil {
		return 0, err
	}
	return c.tokens.Balance(), nil
}

// SetBalance stores the balance reported by the server. It must not be negative.
func (pc *PsiCash) SetBalance(ctx context.Context, balance int64) error {
	c, err := pc.components()
	if err != nil {
		return err
	}
	return c.store.SetBalance(ctx, balance)
}

// SetAuthTokens replaces the held tokens and the account flag together.
func (pc *PsiCash) SetAuthTokens(ctx context.Context, tokens AuthTokens, isAccount bool) error {
	c, err := pc.components()
	if err != nil {
		return err
	}
	return c.tokens.SetAuthTokens(ctx, tokens, isAccount)
}

// SetRequestMetadataItem sets one metadata entry included in the reward
// context. key must not be empty.
func (pc *PsiCash) SetRequestMetadataItem(ctx context.Context, key, value string) error {
	c, err := pc.components()
	if err != nil {
		return err
	}
	return c.tokens.SetRequestMetadataItem(ctx, key, value)
}

//
// Purchases
//

func (pc *PsiCash) GetPurchasePrices() ([]PurchasePrice, error) {
	c, err := pc.components()
	if err != nil {
		return nil, err
	}
	return c.purchases.GetPurchasePrices(), nil
}

// SetPurchasePrices replaces the catalog.
func (pc *PsiCash) SetPurchasePrices(ctx context.Context, pps []PurchasePrice) error {
	c, err := pc.components()
	if err != nil {
		return err
	}
	return c.purchases.SetPurchasePrices(ctx, pps)
}

func (pc *PsiCash) GetPurchases() ([]Purchase, error) {
	c, err := pc.components()
	if err != nil {
		return nil, err
	}
	return c.purchases.GetPurchases(), nil
}

// SetPurchases replaces the owned purchases. Ids must be unique.
func (pc *PsiCash) SetPurchases(ctx context.Context, ps []Purchase) error {
	c, err := pc.components()
	if err != nil {
		return err
	}
	return c.store.SetPurchases(ctx, ps)
}

// AddPurchase records a new purchase. A missing local expiry is derived
// from the server expiry and the known server time difference.
func (pc *PsiCash) AddPurchase(ctx context.Context, p Purchase) error {
	c, err := pc.components()
	if err != nil {
		return err
	}
	return c.store.AddPurchase(ctx, p)
}

// ValidPurchases returns the purchases that have not expired.
func (pc *PsiCash) ValidPurchases() ([]Purchase, error) {
	c, err := pc.components()
	if err != nil {
		return nil, err
	}
	return c.purchases.ValidPurchases(), nil
}

func (pc *PsiCash) PurchasesByClass(classes ...string) ([]Purchase, error) {
	c, err := pc.components()
	if err != nil {
		return nil, err
	}
	return c.purchases.PurchasesByClass(classes...), nil
}

// NextExpiringPurchase returns the purchase that expires first. The bool is
// false when no purchase has an expiry.
func (pc *PsiCash) NextExpiringPurchase() (Purchase, bool, error) {
	c, err := pc.components()
	if err != nil {
		return Purchase{}, false, err
	}
	p, ok := c.purchases.NextExpiringPurchase()
	return p, ok, nil
}

// ExpirePurchases removes and returns the expired purchases.
func (pc *PsiCash) ExpirePurchases(ctx context.Context) ([]Purchase, error) {
	c, err := pc.components()
	if err != nil {
		return nil, err
	}
	return c.purchases.ExpirePurchases(ctx)
}

// RemovePurchases removes the purchases with the given ids.
func (pc *PsiCash) RemovePurchases(ctx context.Context, ids []string) error {
	c, err := pc.components()
	if err != nil {
		return err
	}
	return c.purchases.RemovePurchases(ctx, ids)
}

//
// Server time
//

func (pc *PsiCash) ServerTimeDiff() (time.Duration, error) {
	c, err := pc.components()
	if err != nil {
		return 0, err
	}
	return c.store.ServerTimeDiff(), nil
}

// SyncServerTime records the difference between serverNow and the local clock.
func (pc *PsiCash) SyncServerTime(ctx context.Context, serverNow time.Time) error {
	c, err := pc.components()
	if err != nil {
		return err
	}
	return c.store.SyncServerTime(ctx, serverNow)
}

// Clear resets all user state to defaults.
func (pc *PsiCash) Clear(ctx context.Context) error {
	c, err := pc.components()
	if err != nil {
		return err
	}
	return c.store.Clear(ctx)
}

//
// Reward context
//

func (c components) rewardContext() rewardctx.Context {
	var rc rewardctx.Context
	c.store.View(func(st models.UserState) {
		rc.Metadata = st.RequestMetadata
		if tok := st.AuthTokens[models.TokenTypeEarner]; tok != "" {
			rc.Tokens = &tok
		}
	})
	return rc
}

// ModifyLandingPage returns url with the reward context attached.
func (pc *PsiCash) ModifyLandingPage(url string) (string, error) {
	c, err := pc.components()
	if err != nil {
		return "", err
	}
	return rewardctx.ModifyLandingPage(url, c.rewardContext())
}

// GetRewardedActivityData returns the base64 reward context for a rewarded
// activity. It fails with ErrNoValidTokens when no earner token is held.
func (pc *PsiCash) GetRewardedActivityData() (string, error) {
	c, err := pc.components()
	if err != nil {
		return "", err
	}
	return rewardctx.ActivityData(c.rewardContext())
}

//
// Diagnostics
//

// Diagnostics returns the redacted state summary.
func (pc *PsiCash) Diagnostics() (DiagnosticInfo, error) {
	c, err := pc.components()
	if err != nil {
		return DiagnosticInfo{}, err
	}
	return diagnostics.Collect(c.store), nil
}

// GetDiagnosticInfo returns Diagnostics as compact JSON.
func (pc *PsiCash) GetDiagnosticInfo() (string, error) {
	info, err := pc.Diagnostics()
	if err != nil {
		return "", err
	}
	s, err := info.JSON()
	if err != nil {
		return "", fmt.Errorf("diagnostic info: %w", err)
	}
	return s, nil
}

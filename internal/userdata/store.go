// Package userdata implements the persistent user state store.
//
// A Store owns exactly one models.UserState. Every read and write goes
// through a single mutex, and every mutator writes the complete state to the
// underlying Persister before it returns. When a write fails the previous
// state stays in memory and on disk, so a failed call is never half applied.
//
// Getters return deep copies; callers never share mutable state with the
// store or with each other.
package userdata

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/psicash/internal/common"
	"github.com/dmitrijs2005/psicash/internal/datastore"
	"github.com/dmitrijs2005/psicash/internal/logging"
	"github.com/dmitrijs2005/psicash/internal/models"
)

// ErrNoChange may be returned by an Update function to skip the write.
// Update then returns nil and leaves the state untouched.
var ErrNoChange = errors.New("no change")

// Persister is the durable snapshot storage a Store writes through.
// *datastore.Datastore implements it.
type Persister interface {
	Load(ctx context.Context) (map[string][]byte, error)
	Save(ctx context.Context, values map[string][]byte) error
	Close() error
}

// Store is the single serialized handle to the user state.
type Store struct {
	mu        sync.Mutex
	persister Persister
	state     models.UserState
	log       logging.Logger
	now       func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the local clock used by SyncServerTime.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Open binds a store to the SQLite datastore at location and loads (or
// initializes) the user state there.
func Open(ctx context.Context, location string, log logging.Logger, opts ...Option) (*Store, error) {
	ds, err := datastore.Open(ctx, location)
	if err != nil {
		return nil, err
	}
	s, err := New(ctx, ds, log, opts...)
	if err != nil {
		_ = ds.Close()
		return nil, err
	}
	return s, nil
}

// New loads the state held by p. An empty persister is initialized with a
// default UserState, which is written before New returns.
func New(ctx context.Context, p Persister, log logging.Logger, opts ...Option) (*Store, error) {
	if log == nil {
		log = logging.Discard()
	}
	s := &Store{persister: p, log: log, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}

	values, err := p.Load(ctx)
	if err != nil {
		return nil, err
	}

	if len(values) == 0 {
		s.state = models.NewUserState()
		if err := s.persist(ctx, s.state); err != nil {
			return nil, err
		}
		s.log.Info(ctx, "initialized new user data")
		return s, nil
	}

	state, err := decodeState(values)
	if err != nil {
		return nil, err
	}
	s.state = state
	s.log.Info(ctx, "loaded user data",
		"purchases", len(state.Purchases), "is_account", state.IsAccount)
	return s, nil
}

// Close releases the persister.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persister.Close()
}

// Snapshot returns a deep copy of the whole state.
func (s *Store) Snapshot() models.UserState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// View runs fn on a copy of the state with the store lock held. Use it to
// read several fields consistently.
func (s *Store) View(fn func(state models.UserState)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.state.Clone())
}

// Update runs fn on a copy of the state and persists the result. The copy
// replaces the current state only after it has been written. fn runs with
// the store lock held and must not call back into the Store.
func (s *Store) Update(ctx context.Context, fn func(state *models.UserState) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.state.Clone()
	if err := fn(&next); err != nil {
		if errors.Is(err, ErrNoChange) {
			return nil
		}
		return err
	}

	if err := s.persist(ctx, next); err != nil {
		return err
	}
	s.state = next
	return nil
}

func (s *Store) persist(ctx context.Context, state models.UserState) error {
	values, err := encodeState(state)
	if err == nil {
		err = s.persister.Save(ctx, values)
	}
	if err != nil {
		s.log.Error(ctx, "failed to persist user data", "error", err)
		if !errors.Is(err, common.ErrStorage) {
			err = fmt.Errorf("%w: %w", common.ErrStorage, err)
		}
		return err
	}
	return nil
}

func (s *Store) IsAccount() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.IsAccount
}

func (s *Store) SetIsAccount(ctx context.Context, v bool) error {
	return s.Update(ctx, func(st *models.UserState) error {
		st.IsAccount = v
		return nil
	})
}

func (s *Store) Balance() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Balance
}

// SetBalance rejects negative balances with common.ErrInvalidArgument.
func (s *Store) SetBalance(ctx context.Context, b int64) error {
	if err := validateBalance(b); err != nil {
		return err
	}
	return s.Update(ctx, func(st *models.UserState) error {
		st.Balance = b
		return nil
	})
}

func (s *Store) AuthTokens() models.AuthTokens {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.AuthTokens(models.CloneStringMap(s.state.AuthTokens))
}

// SetAuthTokens replaces the tokens and the account flag in one write: the
// token set changes whenever the account status does.
func (s *Store) SetAuthTokens(ctx context.Context, tokens models.AuthTokens, isAccount bool) error {
	if err := validateAuthTokens(tokens); err != nil {
		return err
	}
	return s.Update(ctx, func(st *models.UserState) error {
		st.AuthTokens = models.AuthTokens(models.CloneStringMap(tokens))
		st.IsAccount = isAccount
		return nil
	})
}

func (s *Store) RequestMetadata() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.CloneStringMap(s.state.RequestMetadata)
}

// SetRequestMetadataItem merges key=value into the metadata, overwriting an
// existing value for key.
func (s *Store) SetRequestMetadataItem(ctx context.Context, key, value string) error {
	if key == "" {
		return fmt.Errorf("%w: empty metadata key", common.ErrInvalidArgument)
	}
	return s.Update(ctx, func(st *models.UserState) error {
		st.RequestMetadata[key] = value
		return nil
	})
}

func (s *Store) PurchasePrices() []models.PurchasePrice {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.ClonePurchasePrices(s.state.PurchasePrices)
}

// SetPurchasePrices replaces the catalog wholesale.
func (s *Store) SetPurchasePrices(ctx context.Context, pps []models.PurchasePrice) error {
	if err := validatePurchasePrices(pps); err != nil {
		return err
	}
	return s.Update(ctx, func(st *models.UserState) error {
		st.PurchasePrices = models.ClonePurchasePrices(pps)
		return nil
	})
}

func (s *Store) Purchases() []models.Purchase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.ClonePurchases(s.state.Purchases)
}

// SetPurchases replaces the owned purchases. Ids must be non-empty and unique.
func (s *Store) SetPurchases(ctx context.Context, ps []models.Purchase) error {
	if err := validatePurchases(ps); err != nil {
		return err
	}
	return s.Update(ctx, func(st *models.UserState) error {
		st.Purchases = models.ClonePurchases(ps)
		return nil
	})
}

// AddPurchase appends p. When p carries only a server expiry, its local
// expiry is derived by shifting it onto the local clock with ServerTimeDiff.
func (s *Store) AddPurchase(ctx context.Context, p models.Purchase) error {
	return s.Update(ctx, func(st *models.UserState) error {
		p = p.Clone()
		if p.LocalExpiry == nil && p.ServerExpiry != nil {
			p.LocalExpiry = models.TimePtr(p.ServerExpiry.Add(-st.ServerTimeDiff))
		}
		ps := append(st.Purchases, p)
		if err := validatePurchases(ps); err != nil {
			return err
		}
		st.Purchases = ps
		return nil
	})
}

func (s *Store) ServerTimeDiff() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.ServerTimeDiff
}

func (s *Store) SetServerTimeDiff(ctx context.Context, d time.Duration) error {
	return s.Update(ctx, func(st *models.UserState) error {
		st.ServerTimeDiff = d
		return nil
	})
}

// SyncServerTime records the skew between serverNow and the local clock.
func (s *Store) SyncServerTime(ctx context.Context, serverNow time.Time) error {
	return s.SetServerTimeDiff(ctx, serverNow.Sub(s.now()))
}

// Clear resets the state to defaults, e.g. on logout.
func (s *Store) Clear(ctx context.Context) error {
	err := s.Update(ctx, func(st *models.UserState) error {
		*st = models.NewUserState()
		return nil
	})
	if err == nil {
		s.log.Info(ctx, "user data cleared")
	}
	return err
}

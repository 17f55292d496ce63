// Package tokens exposes the authorization tokens and request metadata held
// in the user state.
package tokens

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/psicash/internal/common"
	"github.com/dmitrijs2005/psicash/internal/models"
)

// Store is the part of userdata.Store the manager needs.
type Store interface {
	IsAccount() bool
	Balance() int64
	AuthTokens() models.AuthTokens
	SetAuthTokens(ctx context.Context, tokens models.AuthTokens, isAccount bool) error
	SetRequestMetadataItem(ctx context.Context, key, value string) error
}

type Manager struct {
	store Store
}

func NewManager(store Store) *Manager {
	return &Manager{store: store}
}

// ValidTokenTypes returns the token types currently held, sorted.
func (m *Manager) ValidTokenTypes() []string {
	return m.store.AuthTokens().Types()
}

// HasTokenType reports whether a non-empty token of type t is held.
func (m *Manager) HasTokenType(t string) bool {
	return m.store.AuthTokens()[t] != ""
}

// EarnerToken returns the earner token, if any.
func (m *Manager) EarnerToken() (string, bool) {
	tok := m.store.AuthTokens()[models.TokenTypeEarner]
	return tok, tok != ""
}

func (m *Manager) IsAccount() bool {
	return m.store.IsAccount()
}

func (m *Manager) Balance() int64 {
	return m.store.Balance()
}

// SetAuthTokens replaces the held tokens and the account flag together.
func (m *Manager) SetAuthTokens(ctx context.Context, tokens models.AuthTokens, isAccount bool) error {
	return m.store.SetAuthTokens(ctx, tokens, isAccount)
}

// SetRequestMetadataItem sets one request metadata entry, overwriting any
// previous value for key.
func (m *Manager) SetRequestMetadataItem(ctx context.Context, key, value string) error {
	if key == "" {
		return fmt.Errorf("%w: metadata key must not be empty", common.ErrInvalidArgument)
	}
	return m.store.SetRequestMetadataItem(ctx, key, value)
}

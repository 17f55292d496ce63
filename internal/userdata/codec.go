package userdata

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrijs2005/psicash/internal/common"
	"github.com/dmitrijs2005/psicash/internal/models"
)

// Datastore keys. Every UserState field is stored as one JSON value.
const (
	keyVersion         = "v"
	keyIsAccount       = "isAccount"
	keyBalance         = "balance"
	keyRequestMetadata = "requestMetadata"
	keyAuthTokens      = "authTokens"
	keyPurchasePrices  = "purchasePrices"
	keyPurchases       = "purchases"
	keyServerTimeDiff  = "serverTimeDiff"
)

const schemaVersion = 1

func encodeState(s models.UserState) (map[string][]byte, error) {
	fields := map[string]any{
		keyVersion:         schemaVersion,
		keyIsAccount:       s.IsAccount,
		keyBalance:         s.Balance,
		keyRequestMetadata: s.RequestMetadata,
		keyAuthTokens:      s.AuthTokens,
		keyPurchasePrices:  s.PurchasePrices,
		keyPurchases:       s.Purchases,
		keyServerTimeDiff:  int64(s.ServerTimeDiff),
	}

	out := make(map[string][]byte, len(fields))
	for k, v := range fields {
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("%w: encode %s: %w", common.ErrStorage, k, err)
		}
		out[k] = b
	}
	return out, nil
}

// decodeState rebuilds a UserState from stored values. Missing keys keep
// their defaults, which lets older snapshots load after new fields are added.
func decodeState(values map[string][]byte) (models.UserState, error) {
	s := models.NewUserState()

	var version int
	var diff int64
	targets := map[string]any{
		keyVersion:         &version,
		keyIsAccount:       &s.IsAccount,
		keyBalance:         &s.Balance,
		keyRequestMetadata: &s.RequestMetadata,
		keyAuthTokens:      &s.AuthTokens,
		keyPurchasePrices:  &s.PurchasePrices,
		keyPurchases:       &s.Purchases,
		keyServerTimeDiff:  &diff,
	}

	for k, dst := range targets {
		raw, ok := values[k]
		if !ok {
			continue
		}
		if err := json.Unmarshal(raw, dst); err != nil {
			return models.UserState{}, fmt.Errorf("%w: decode %s: %w", common.ErrStorage, k, err)
		}
	}

	if version > schemaVersion {
		return models.UserState{}, fmt.Errorf("%w: unsupported user data version %d", common.ErrStorage, version)
	}
	s.ServerTimeDiff = time.Duration(diff)

	// JSON null leaves collections nil; Clone turns them back into empty ones.
	return s.Clone(), nil
}

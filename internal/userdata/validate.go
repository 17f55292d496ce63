package userdata

import (
	"fmt"

	"github.com/dmitrijs2005/psicash/internal/common"
	"github.com/dmitrijs2005/psicash/internal/models"
)

func validateBalance(b int64) error {
	if b < 0 {
		return fmt.Errorf("%w: negative balance %d", common.ErrInvalidArgument, b)
	}
	return nil
}

func validateAuthTokens(tokens models.AuthTokens) error {
	for k, v := range tokens {
		if k == "" {
			return fmt.Errorf("%w: empty token type", common.ErrInvalidArgument)
		}
		if v == "" {
			return fmt.Errorf("%w: empty token for type %q", common.ErrInvalidArgument, k)
		}
	}
	return nil
}

func validatePurchases(ps []models.Purchase) error {
	seen := make(map[string]struct{}, len(ps))
	for _, p := range ps {
		if p.ID == "" {
			return fmt.Errorf("%w: purchase with empty id", common.ErrInvalidArgument)
		}
		if _, dup := seen[p.ID]; dup {
			return fmt.Errorf("%w: duplicate purchase id %q", common.ErrInvalidArgument, p.ID)
		}
		seen[p.ID] = struct{}{}
	}
	return nil
}

func validatePurchasePrices(pps []models.PurchasePrice) error {
	for _, pp := range pps {
		if pp.Price < 0 {
			return fmt.Errorf("%w: negative price for %s/%s", common.ErrInvalidArgument, pp.TransactionClass, pp.Distinguisher)
		}
	}
	return nil
}

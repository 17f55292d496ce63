package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPurchase_EarliestExpiry(t *testing.T) {
	now := time.Now()
	early := now.Add(-time.Hour)
	late := now.Add(time.Hour)

	tests := []struct {
		name   string
		p      Purchase
		want   time.Time
		wantOK bool
	}{
		{name: "permanent", p: Purchase{ID: "p"}, wantOK: false},
		{name: "server only", p: Purchase{ServerExpiry: &late}, want: late, wantOK: true},
		{name: "local only", p: Purchase{LocalExpiry: &early}, want: early, wantOK: true},
		{name: "local earlier", p: Purchase{ServerExpiry: &late, LocalExpiry: &early}, want: early, wantOK: true},
		{name: "server earlier", p: Purchase{ServerExpiry: &early, LocalExpiry: &late}, want: early, wantOK: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.p.EarliestExpiry()
			require.Equal(t, tt.wantOK, ok)
			require.Equal(t, tt.wantOK, tt.p.HasExpiry())
			if ok {
				require.True(t, tt.want.Equal(got))
			}
		})
	}
}

func TestPurchase_CloneDoesNotAlias(t *testing.T) {
	exp := time.Now()
	p := Purchase{ID: "id1", ServerExpiry: &exp, Authorization: StringPtr("auth")}

	c := p.Clone()
	*c.Authorization = "changed"
	*c.ServerExpiry = c.ServerExpiry.Add(time.Hour)

	require.Equal(t, "auth", *p.Authorization)
	require.True(t, exp.Equal(*p.ServerExpiry))
	require.Equal(t, time.UTC, c.ServerExpiry.Location())
}

func TestUserState_CloneIsDeep(t *testing.T) {
	s := NewUserState()
	s.RequestMetadata["k"] = "v"
	s.AuthTokens[TokenTypeEarner] = "e"
	s.Purchases = append(s.Purchases, Purchase{ID: "id1"})
	s.PurchasePrices = append(s.PurchasePrices, PurchasePrice{TransactionClass: "tc", Distinguisher: "d", Price: 1})

	c := s.Clone()
	c.RequestMetadata["k"] = "other"
	c.AuthTokens[TokenTypeEarner] = "other"
	c.Purchases[0].ID = "other"
	c.PurchasePrices[0].Price = 2

	require.Equal(t, "v", s.RequestMetadata["k"])
	require.Equal(t, "e", s.AuthTokens[TokenTypeEarner])
	require.Equal(t, "id1", s.Purchases[0].ID)
	require.Equal(t, int64(1), s.PurchasePrices[0].Price)
}

func TestUserState_CloneOfZeroValueHasEmptyCollections(t *testing.T) {
	c := UserState{}.Clone()
	require.NotNil(t, c.RequestMetadata)
	require.NotNil(t, c.AuthTokens)
	require.NotNil(t, c.PurchasePrices)
	require.NotNil(t, c.Purchases)
}

func TestAuthTokens_Types(t *testing.T) {
	require.Equal(t, []string{}, AuthTokens(nil).Types())
	require.Equal(t, []string{"a", "c"}, AuthTokens{"c": "1", "b": "", "a": "2"}.Types())
}

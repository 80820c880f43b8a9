package cache

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RajeswariKodigudla/cashbook-mobile-sub001/internal/client/models"
)

func TestKeys(t *testing.T) {
	assert.Equal(t, "transactions_personal", TransactionsKey(""))
	assert.Equal(t, "transactions_personal", TransactionsKey(models.PersonalAccountID))
	assert.Equal(t, "summary_7", SummaryKey("7"))
	assert.Equal(t, "members_7", MembersKey("7"))
}

func TestHelpers_InvalidateAccountCache(t *testing.T) {
	ctx := context.Background()
	h := NewHelpers(newCache(t, newStore(t), newFakeClock(), Options{}))

	h.CacheTransactions(ctx, "7", []models.Transaction{{ID: "1", Amount: decimal.NewFromInt(5)}})
	h.CacheSummary(ctx, "7", models.Summary{Count: 1})
	h.CacheMembers(ctx, "7", []models.Membership{{ID: "m"}})
	h.CacheTransactions(ctx, "8", []models.Transaction{{ID: "2"}})
	h.CacheTransactions(ctx, "", []models.Transaction{{ID: "3"}})

	ts, ok := h.GetCachedTransactions(ctx, "7")
	require.True(t, ok)
	require.Len(t, ts, 1)
	assert.True(t, ts[0].Amount.Equal(decimal.NewFromInt(5)))

	h.InvalidateAccountCache(ctx, "7")

	_, ok = h.GetCachedTransactions(ctx, "7")
	assert.False(t, ok)
	_, ok = h.GetCachedSummary(ctx, "7")
	assert.False(t, ok)
	_, ok = h.GetCachedMembers(ctx, "7")
	assert.False(t, ok)

	_, ok = h.GetCachedTransactions(ctx, "8")
	assert.True(t, ok, "other scopes untouched")
	_, ok = h.GetCachedTransactions(ctx, models.PersonalAccountID)
	assert.True(t, ok, "empty scope is personal")
}

func TestHelpers_TTLs(t *testing.T) {
	ctx := context.Background()
	clk := newFakeClock()
	h := NewHelpers(newCache(t, newStore(t), clk, Options{}))

	h.CacheUser(ctx, models.User{ID: "5"})
	h.CacheNotifications(ctx, []models.Notification{{ID: "n"}})
	h.CacheAccounts(ctx, []models.Account{models.NewPersonalAccount("5", clk.Now())})

	clk.Advance(3 * time.Minute)
	_, ok := h.GetCachedNotifications(ctx)
	assert.False(t, ok, "notifications expire after two minutes")
	_, ok = h.GetCachedAccounts(ctx)
	assert.True(t, ok)

	clk.Advance(3 * time.Minute)
	_, ok = h.GetCachedAccounts(ctx)
	assert.False(t, ok)

	u, ok := h.GetCachedUser(ctx)
	require.True(t, ok)
	assert.Equal(t, "5", u.ID)

	clk.Advance(24 * time.Hour)
	_, ok = h.GetCachedUser(ctx)
	assert.False(t, ok)
}

func TestHelpers_InvalidateAccountsAndClearAll(t *testing.T) {
	ctx := context.Background()
	h := NewHelpers(newCache(t, newStore(t), newFakeClock(), Options{}))

	h.CacheAccounts(ctx, []models.Account{{ID: "7"}})
	h.CacheUser(ctx, models.User{ID: "5"})
	h.InvalidateAccounts(ctx)
	_, ok := h.GetCachedAccounts(ctx)
	assert.False(t, ok)
	_, ok = h.GetCachedUser(ctx)
	assert.True(t, ok)

	h.ClearAll(ctx)
	_, ok = h.GetCachedUser(ctx)
	assert.False(t, ok)
}

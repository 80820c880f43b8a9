package cache

import (
	"context"
	"time"

	"github.com/RajeswariKodigudla/cashbook-mobile-sub001/internal/client/models"
)

const (
	KeyAccounts      = "accounts"
	KeyCurrentUser   = "current_user"
	KeyNotifications = "notifications"
)

const (
	UserTTL          = 24 * time.Hour
	DataTTL          = 5 * time.Minute
	NotificationsTTL = 2 * time.Minute
)

// Scope maps an account id to its cache scope token.
func Scope(accountID string) string {
	if models.IsPersonalID(accountID) {
		return models.PersonalAccountID
	}
	return accountID
}

func TransactionsKey(accountID string) string { return "transactions_" + Scope(accountID) }
func SummaryKey(accountID string) string      { return "summary_" + Scope(accountID) }
func MembersKey(accountID string) string      { return "members_" + Scope(accountID) }

// Helpers is the cashbook key scheme over a Cache.
type Helpers struct {
	c *Cache
}

func NewHelpers(c *Cache) *Helpers {
	return &Helpers{c: c}
}

// Cache exposes the underlying Cache.
func (h *Helpers) Cache() *Cache { return h.c }

func (h *Helpers) CacheAccounts(ctx context.Context, accounts []models.Account) {
	h.c.SetWithTTL(ctx, KeyAccounts, accounts, DataTTL)
}

func (h *Helpers) GetCachedAccounts(ctx context.Context) ([]models.Account, bool) {
	return Lookup[[]models.Account](ctx, h.c, KeyAccounts)
}

func (h *Helpers) CacheTransactions(ctx context.Context, accountID string, ts []models.Transaction) {
	h.c.SetWithTTL(ctx, TransactionsKey(accountID), ts, DataTTL)
}

func (h *Helpers) GetCachedTransactions(ctx context.Context, accountID string) ([]models.Transaction, bool) {
	return Lookup[[]models.Transaction](ctx, h.c, TransactionsKey(accountID))
}

func (h *Helpers) CacheSummary(ctx context.Context, accountID string, s models.Summary) {
	h.c.SetWithTTL(ctx, SummaryKey(accountID), s, DataTTL)
}

func (h *Helpers) GetCachedSummary(ctx context.Context, accountID string) (models.Summary, bool) {
	return Lookup[models.Summary](ctx, h.c, SummaryKey(accountID))
}

func (h *Helpers) CacheUser(ctx context.Context, u models.User) {
	h.c.SetWithTTL(ctx, KeyCurrentUser, u, UserTTL)
}

func (h *Helpers) GetCachedUser(ctx context.Context) (models.User, bool) {
	return Lookup[models.User](ctx, h.c, KeyCurrentUser)
}

func (h *Helpers) CacheNotifications(ctx context.Context, ns []models.Notification) {
	h.c.SetWithTTL(ctx, KeyNotifications, ns, NotificationsTTL)
}

func (h *Helpers) GetCachedNotifications(ctx context.Context) ([]models.Notification, bool) {
	return Lookup[[]models.Notification](ctx, h.c, KeyNotifications)
}

func (h *Helpers) CacheMembers(ctx context.Context, accountID string, ms []models.Membership) {
	h.c.SetWithTTL(ctx, MembersKey(accountID), ms, DataTTL)
}

func (h *Helpers) GetCachedMembers(ctx context.Context, accountID string) ([]models.Membership, bool) {
	return Lookup[[]models.Membership](ctx, h.c, MembersKey(accountID))
}

// InvalidateAccountCache drops the transactions, summary and member list of
// exactly one account scope. Call it after every mutation in that scope.
func (h *Helpers) InvalidateAccountCache(ctx context.Context, accountID string) {
	h.c.Remove(ctx, TransactionsKey(accountID))
	h.c.Remove(ctx, SummaryKey(accountID))
	h.c.Remove(ctx, MembersKey(accountID))
}

// InvalidateAccounts drops the cached account list.
func (h *Helpers) InvalidateAccounts(ctx context.Context) {
	h.c.Remove(ctx, KeyAccounts)
}

// ClearAll drops every cached entry, e.g. on logout.
func (h *Helpers) ClearAll(ctx context.Context) {
	h.c.Clear(ctx)
}

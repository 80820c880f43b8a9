package services

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/RajeswariKodigudla/cashbook-mobile-sub001/internal/client/cache"
	"github.com/RajeswariKodigudla/cashbook-mobile-sub001/internal/client/client"
	"github.com/RajeswariKodigudla/cashbook-mobile-sub001/internal/client/models"
	"github.com/RajeswariKodigudla/cashbook-mobile-sub001/internal/client/repositories/kv"
)

type reply struct {
	raw string
	err error
}

// fakeAPI answers each endpoint with a queued or fixed reply. Calls to an
// endpoint without a reply panic through the embedded nil interface.
type fakeAPI struct {
	client.Client

	mu      sync.Mutex
	replies map[string][]reply
	fixed   map[string]reply
	calls   map[string]int
	hooks   map[string]func()
	bodies  map[string][]any
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		replies: map[string][]reply{},
		fixed:   map[string]reply{},
		calls:   map[string]int{},
		hooks:   map[string]func(){},
		bodies:  map[string][]any{},
	}
}

// on answers every call to endpoint with raw and err.
func (f *fakeAPI) on(endpoint, raw string, err error) *fakeAPI {
	f.mu.Lock()
	f.fixed[endpoint] = reply{raw: raw, err: err}
	f.mu.Unlock()
	return f
}

// then queues a one-shot reply, consumed before the fixed one.
func (f *fakeAPI) then(endpoint, raw string, err error) *fakeAPI {
	f.mu.Lock()
	f.replies[endpoint] = append(f.replies[endpoint], reply{raw: raw, err: err})
	f.mu.Unlock()
	return f
}

// hook runs fn, outside the lock, at the start of every call to endpoint.
func (f *fakeAPI) hook(endpoint string, fn func()) {
	f.mu.Lock()
	f.hooks[endpoint] = fn
	f.mu.Unlock()
}

func (f *fakeAPI) count(endpoint string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[endpoint]
}

func (f *fakeAPI) sent(endpoint string) []any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bodies[endpoint]
}

func (f *fakeAPI) answer(endpoint string, body any) (json.RawMessage, error) {
	f.mu.Lock()
	f.calls[endpoint]++
	if body != nil {
		f.bodies[endpoint] = append(f.bodies[endpoint], body)
	}
	h := f.hooks[endpoint]
	var r reply
	if q := f.replies[endpoint]; len(q) > 0 {
		r, f.replies[endpoint] = q[0], q[1:]
	} else if fx, ok := f.fixed[endpoint]; ok {
		r = fx
	} else {
		f.mu.Unlock()
		panic("fakeAPI: unexpected call to " + endpoint)
	}
	f.mu.Unlock()

	if h != nil {
		h()
	}
	if r.err != nil {
		return nil, r.err
	}
	if r.raw == "" {
		return json.RawMessage("null"), nil
	}
	return json.RawMessage(r.raw), nil
}

func (f *fakeAPI) GetAccounts(context.Context) (json.RawMessage, error) {
	return f.answer("accounts", nil)
}

func (f *fakeAPI) CreateAccount(_ context.Context, name string) (json.RawMessage, error) {
	return f.answer("create_account", name)
}

func (f *fakeAPI) GetAccountMembers(_ context.Context, id string) (json.RawMessage, error) {
	return f.answer("members", id)
}

func (f *fakeAPI) InviteMember(_ context.Context, id string, req client.InviteRequest) error {
	_, err := f.answer("invite", req)
	return err
}

func (f *fakeAPI) UpdateMemberPermissions(_ context.Context, id, member string, p models.Permissions) error {
	_, err := f.answer("update_member", p)
	return err
}

func (f *fakeAPI) RemoveMember(_ context.Context, id, member string) error {
	_, err := f.answer("remove_member", member)
	return err
}

func (f *fakeAPI) GetInvitations(context.Context) (json.RawMessage, error) {
	return f.answer("invitations", nil)
}

func (f *fakeAPI) AcceptInvitation(_ context.Context, id string) error {
	_, err := f.answer("accept", id)
	return err
}

func (f *fakeAPI) RejectInvitation(_ context.Context, id string) error {
	_, err := f.answer("reject", id)
	return err
}

func (f *fakeAPI) GetNotifications(context.Context) (json.RawMessage, error) {
	return f.answer("notifications", nil)
}

func (f *fakeAPI) MarkNotificationRead(_ context.Context, id string) error {
	_, err := f.answer("read", id)
	return err
}

func (f *fakeAPI) MarkAllNotificationsRead(context.Context) error {
	_, err := f.answer("read_all", nil)
	return err
}

func (f *fakeAPI) GetTransactions(_ context.Context, scope string) (json.RawMessage, error) {
	return f.answer("transactions", scope)
}

func (f *fakeAPI) GetSummary(_ context.Context, scope string) (json.RawMessage, error) {
	return f.answer("summary", scope)
}

func (f *fakeAPI) CreateTransaction(_ context.Context, scope string, in models.TransactionInput) (json.RawMessage, error) {
	return f.answer("create_transaction", in)
}

func (f *fakeAPI) UpdateTransaction(_ context.Context, scope, id string, in models.TransactionInput) (json.RawMessage, error) {
	return f.answer("update_transaction", in)
}

func (f *fakeAPI) DeleteTransaction(_ context.Context, scope, id string) error {
	_, err := f.answer("delete_transaction", id)
	return err
}

type fakeIdentity struct {
	mu     sync.Mutex
	authed bool
	userID string
}

func (f *fakeIdentity) Authenticated() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.authed
}

func (f *fakeIdentity) UserID() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.userID
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

type env struct {
	api   *fakeAPI
	id    *fakeIdentity
	clock *fakeClock
	store *kv.LevelDBRepository
	cache *cache.Helpers
}

func newEnv(t *testing.T) *env {
	t.Helper()
	store, err := kv.NewMemLevelDB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	clk := newFakeClock()
	c, err := cache.New(store, cache.Options{Now: clk.Now})
	require.NoError(t, err)

	return &env{
		api:   newFakeAPI(),
		id:    &fakeIdentity{authed: true, userID: "u1"},
		clock: clk,
		store: store,
		cache: cache.NewHelpers(c),
	}
}

func (e *env) deps() Deps {
	return Deps{
		API:      e.api,
		Cache:    e.cache,
		Store:    e.store,
		Identity: e.id,
		Now:      e.clock.Now,
	}
}

// status builds the error the HTTP client returns for a non-2xx reply.
func status(code int, message string) error {
	e := &client.APIError{StatusCode: code, Message: message}
	switch {
	case code == 401:
		e.Err = client.ErrUnauthorized
	case code == 403:
		e.Err = client.ErrForbidden
	case code == 404:
		e.Err = client.ErrNotFound
	}
	return e
}

func ids[T any](items []T, id func(T) string) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, id(it))
	}
	return out
}

func accountID(a models.Account) string           { return a.ID }
func notificationID(n models.Notification) string { return n.ID }

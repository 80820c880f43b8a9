package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RajeswariKodigudla/cashbook-mobile-sub001/internal/client/client"
	"github.com/RajeswariKodigudla/cashbook-mobile-sub001/internal/client/config"
	"github.com/RajeswariKodigudla/cashbook-mobile-sub001/internal/client/models"
	"github.com/RajeswariKodigudla/cashbook-mobile-sub001/internal/client/realtime"
	"github.com/RajeswariKodigudla/cashbook-mobile-sub001/internal/client/repositories/kv"
	"github.com/RajeswariKodigudla/cashbook-mobile-sub001/internal/client/services"
	"github.com/RajeswariKodigudla/cashbook-mobile-sub001/internal/client/session"
)

// backend is a minimal cashbook API.
type backend struct {
	mu      sync.Mutex
	created []map[string]any
	routes  map[string]string
}

func newBackend(t *testing.T) (*backend, *httptest.Server) {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": 1,
		"exp":     time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("test"))
	require.NoError(t, err)

	b := &backend{routes: map[string]string{
		"POST /api/auth/login/":             `{"access":"` + token + `"}`,
		"GET /api/auth/user/":               `{"id":1,"username":"alice"}`,
		"GET /api/accounts/":                `[{"id":7,"accountName":"Family"}]`,
		"GET /api/accounts/7/members/":      `[{"id":3,"user":1,"role":"owner"}]`,
		"GET /api/accounts/invitations/":    `[]`,
		"GET /api/notifications/":           `[{"id":5,"title":"Welcome","read":false,"timestamp":"2024-05-01T10:00:00Z"}]`,
		"POST /api/notifications/read-all/": ``,
		"GET /api/transactions/":            `[{"id":11,"type":"expense","amount":"12.50","date":"2024-05-01","category":"food"}]`,
		"POST /api/transactions/":           `{"id":11,"type":"expense","amount":"12.50"}`,
		"GET /api/transactions/summary/":    "404",
	}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		b.mu.Lock()
		reply, ok := b.routes[key]
		if key == "POST /api/transactions/" {
			var body map[string]any
			raw, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(raw, &body)
			b.created = append(b.created, body)
		}
		b.mu.Unlock()

		switch {
		case !ok, reply == "404":
			http.Error(w, `{"detail":"Not found."}`, http.StatusNotFound)
		case reply == "":
			w.WriteHeader(http.StatusNoContent)
		default:
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, reply)
		}
	}))
	t.Cleanup(srv.Close)
	return b, srv
}

func testConfig(srv *httptest.Server) *config.Config {
	c := &config.Config{}
	c.LoadDefaults()
	c.APIBaseURL = srv.URL + "/api/"
	c.StoreDriver = "memory"
	c.PollInterval = time.Hour
	c.AccountDebounce = 0
	c.MembershipDebounce = 0
	return c
}

func newTestApp(t *testing.T, c *config.Config, store kv.Repository, input string) (*App, *bytes.Buffer) {
	t.Helper()
	sess := session.New(nil)
	api, err := client.NewHTTPClient(c.APIBaseURL, time.Second, sess)
	require.NoError(t, err)
	a, err := assemble(context.Background(), c, store, api, sess, realtime.NewChannel(), nil)
	require.NoError(t, err)
	var out bytes.Buffer
	a.out = &out
	a.reader = rdr(input)
	t.Cleanup(func() { a.Close(context.Background()) })
	return a, &out
}

func memStore(t *testing.T) *kv.LevelDBRepository {
	t.Helper()
	s, err := kv.NewMemLevelDB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestApp_SessionFlow(t *testing.T) {
	stubTerminal(t, false, nil, nil)
	ctx := context.Background()
	b, srv := newBackend(t)
	store := memStore(t)
	a, out := newTestApp(t, testConfig(srv), store, "alice\npw\n")

	require.NoError(t, a.Login(ctx, nil))
	a.accounts.Wait()
	assert.Contains(t, out.String(), "Logged in as alice")
	assert.True(t, a.isLoggedIn())
	assert.Equal(t, "1", a.session.UserID())
	require.Eventually(t, func() bool { return len(a.notifications.Notifications()) == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, a.listAccounts(ctx, nil))
	assert.Contains(t, out.String(), "Family")

	require.NoError(t, a.switchAccount(ctx, []string{"7"}))
	a.accounts.Wait()
	assert.True(t, a.accounts.Can(models.ActionManageMembers))
	assert.Contains(t, a.getStatus(), "@Family")

	require.NoError(t, a.addTransaction(ctx, []string{"expense", "12.50", "food", "team", "lunch"}))
	assert.Contains(t, out.String(), "Added 11")
	b.mu.Lock()
	require.Len(t, b.created, 1)
	assert.Equal(t, "food", b.created[0]["category"])
	assert.Equal(t, "team lunch", b.created[0]["note"])
	assert.Equal(t, "7", b.created[0]["account"])
	b.mu.Unlock()

	require.NoError(t, a.summary(ctx, nil))
	assert.Contains(t, out.String(), "balance -12.50")

	require.NoError(t, a.markAllRead(ctx, nil))
	assert.Zero(t, a.notifications.UnreadCount())

	require.ErrorIs(t, a.switchAccount(ctx, []string{"42"}), services.ErrUnknownAccount)

	require.NoError(t, a.Logout(ctx, nil))
	assert.False(t, a.isLoggedIn())
	assert.Empty(t, a.notifications.Notifications())
	stored, err := store.Get(ctx, services.CurrentAccountKey)
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestApp_LoginFailureShowsBackendMessage(t *testing.T) {
	stubTerminal(t, false, nil, nil)
	b, srv := newBackend(t)
	b.routes["POST /api/auth/login/"] = "404"
	a, _ := newTestApp(t, testConfig(srv), memStore(t), "alice\nwrong\n")

	err := a.Login(context.Background(), nil)
	require.Error(t, err)
	assert.Equal(t, "Not found.", err.Error())
	assert.False(t, a.isLoggedIn())
}

func TestApp_TokenSurvivesRestartWithSecret(t *testing.T) {
	stubTerminal(t, false, nil, nil)
	ctx := context.Background()
	_, srv := newBackend(t)
	store := memStore(t)
	c := testConfig(srv)
	c.CacheSecret = "hunter2"

	first, _ := newTestApp(t, c, store, "alice\npw\n")
	require.NoError(t, first.Login(ctx, nil))
	first.Close(ctx)

	sealed, err := store.Get(ctx, tokenKey)
	require.NoError(t, err)
	require.NotNil(t, sealed)
	assert.NotContains(t, string(sealed), "eyJ")

	second, out := newTestApp(t, c, store, "exit\n")
	second.Run(ctx)
	assert.True(t, second.isLoggedIn())
	assert.Contains(t, out.String(), "Welcome to cashbook")
	assert.Contains(t, out.String(), "(alice @")
}

func TestApp_TokenNotPersistedWithoutSecret(t *testing.T) {
	stubTerminal(t, false, nil, nil)
	ctx := context.Background()
	_, srv := newBackend(t)
	store := memStore(t)
	a, _ := newTestApp(t, testConfig(srv), store, "alice\npw\n")

	require.NoError(t, a.Login(ctx, nil))

	sealed, err := store.Get(ctx, tokenKey)
	require.NoError(t, err)
	assert.Nil(t, sealed)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	for _, f := range []string{config.LogFormatAuto, config.LogFormatText, config.LogFormatJSON, config.LogFormatZap} {
		l, flush, err := newLogger(f, &buf)
		require.NoError(t, err, f)
		require.NotNil(t, l)
		_ = flush()
	}
	_, _, err := newLogger("xml", &buf)
	require.Error(t, err)
}

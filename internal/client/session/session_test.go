package session

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RajeswariKodigudla/cashbook-mobile-sub001/internal/client/cache"
	"github.com/RajeswariKodigudla/cashbook-mobile-sub001/internal/client/repositories/kv"
)

var now = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return now }

func signed(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("server-secret"))
	require.NoError(t, err)
	return tok
}

type fakeUsers struct {
	calls int
	raw   string
	err   error
}

func (f *fakeUsers) GetCurrentUser(context.Context) (json.RawMessage, error) {
	f.calls++
	return json.RawMessage(f.raw), f.err
}

func newHelpers(t *testing.T) *cache.Helpers {
	t.Helper()
	store, err := kv.NewMemLevelDB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	c, err := cache.New(store, cache.Options{Now: clock})
	require.NoError(t, err)
	return cache.NewHelpers(c)
}

func TestSetToken_ReadsClaims(t *testing.T) {
	cases := map[string]struct {
		claims jwt.MapClaims
		want   string
	}{
		"numeric user_id": {jwt.MapClaims{"user_id": 42, "exp": now.Add(time.Hour).Unix()}, "42"},
		"string user_id":  {jwt.MapClaims{"user_id": "abc"}, "abc"},
		"subject":         {jwt.MapClaims{"sub": "7"}, "7"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			s := New(clock)
			require.NoError(t, s.SetToken(signed(t, tc.claims)))
			assert.True(t, s.Authenticated())
			assert.Equal(t, tc.want, s.UserID())
			assert.NotEmpty(t, s.Token())
		})
	}
}

func TestSetToken_Expired(t *testing.T) {
	s := New(clock)
	err := s.SetToken(signed(t, jwt.MapClaims{"user_id": 1, "exp": now.Add(-time.Minute).Unix()}))
	require.ErrorIs(t, err, ErrNotAuthenticated)
	assert.False(t, s.Authenticated())
	assert.Empty(t, s.Token())
}

func TestSetToken_ExpiresLater(t *testing.T) {
	current := now
	s := New(func() time.Time { return current })
	require.NoError(t, s.SetToken(signed(t, jwt.MapClaims{"user_id": 1, "exp": now.Add(time.Minute).Unix()})))
	assert.True(t, s.Authenticated())

	current = now.Add(2 * time.Minute)
	assert.False(t, s.Authenticated())
	assert.Empty(t, s.Token())
}

func TestSetToken_OpaqueAndEmpty(t *testing.T) {
	s := New(clock)
	require.NoError(t, s.SetToken("not-a-jwt"))
	assert.True(t, s.Authenticated())
	assert.Empty(t, s.UserID())

	require.ErrorIs(t, s.SetToken(""), ErrNotAuthenticated)

	s.Clear()
	assert.False(t, s.Authenticated())
}

func TestCurrentUser_ReadThrough(t *testing.T) {
	ctx := context.Background()
	h := newHelpers(t)
	s := New(clock)
	require.NoError(t, s.SetToken("opaque"))

	api := &fakeUsers{raw: `{"id": 9, "username": "ann"}`}
	u, err := s.CurrentUser(ctx, api, h)
	require.NoError(t, err)
	assert.Equal(t, "ann", u.Username)
	assert.Equal(t, "9", s.UserID(), "opaque token learns its user id from the profile")

	api.err = errors.New("offline")
	u, err = s.CurrentUser(ctx, api, h)
	require.NoError(t, err)
	assert.Equal(t, "9", u.ID)
	assert.Equal(t, 1, api.calls, "second read served from cache")
}

func TestCurrentUser_Errors(t *testing.T) {
	ctx := context.Background()
	h := newHelpers(t)
	s := New(clock)

	_, err := s.CurrentUser(ctx, &fakeUsers{}, h)
	require.ErrorIs(t, err, ErrNotAuthenticated)

	require.NoError(t, s.SetToken("opaque"))
	boom := errors.New("boom")
	_, err = s.CurrentUser(ctx, &fakeUsers{err: boom}, h)
	require.ErrorIs(t, err, boom)

	_, err = s.CurrentUser(ctx, &fakeUsers{raw: `[]`}, h)
	require.Error(t, err)
}

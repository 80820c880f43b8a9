package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/RajeswariKodigudla/cashbook-mobile-sub001/internal/client/client"
)

// tokenKey holds the sealed bearer token between runs. It is only written
// when a cache secret is configured.
const tokenKey = "session_token"

// getSimpleText and getPassword are indirections used to facilitate testing.
var (
	getSimpleText = GetSimpleText
	getPassword   = GetPassword
)

// Login prompts for credentials, authenticates and starts syncing.
func (a *App) Login(ctx context.Context, _ []string) error {
	userName, err := getSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.reader, a.out)
	if err != nil {
		return err
	}
	defer wipe(password)

	token, err := a.api.Login(ctx, userName, string(password))
	if err != nil {
		return errors.New(client.Message(err))
	}
	if err := a.session.SetToken(token); err != nil {
		return err
	}
	a.userName = userName
	a.saveToken(ctx, token)
	a.startSession(ctx)
	fmt.Fprintln(a.out, "Logged in as", userName)
	return nil
}

// Logout stops syncing and forgets the session, the selection and the
// cache.
func (a *App) Logout(ctx context.Context, _ []string) error {
	a.notifications.Stop()
	a.notifications.Reset()
	a.accounts.Reset(ctx)
	a.session.Clear()
	a.once.Reset()
	a.userName = ""
	if err := a.store.Delete(ctx, tokenKey); err != nil {
		a.log.Warn(ctx, "clearing stored token failed", "error", err)
	}
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

// restoreSession picks up a token from the config or, failing that, from
// the store.
func (a *App) restoreSession(ctx context.Context) {
	token := a.config.Token
	if token == "" {
		token = a.loadToken(ctx)
	}
	if token == "" {
		return
	}
	if err := a.session.SetToken(token); err != nil {
		a.log.Info(ctx, "stored session is not usable", "error", err)
		return
	}
	a.startSession(ctx)
}

func (a *App) startSession(ctx context.Context) {
	a.once.Reset()
	if u, err := a.session.CurrentUser(ctx, a.api, a.cache); err != nil {
		a.log.Warn(ctx, "fetching profile failed", "error", err)
	} else if a.userName == "" {
		a.userName = u.Username
	}
	a.accounts.OnAuthChanged(ctx)
	a.accounts.RefreshInvitations(ctx)
	a.notifications.Start(ctx)
}

func (a *App) saveToken(ctx context.Context, token string) {
	if a.cipher == nil {
		return
	}
	sealed, err := a.cipher.Seal([]byte(token))
	if err == nil {
		err = a.store.Set(ctx, tokenKey, sealed)
	}
	if err != nil {
		a.log.Warn(ctx, "persisting token failed", "error", err)
	}
}

func (a *App) loadToken(ctx context.Context) string {
	if a.cipher == nil {
		return ""
	}
	sealed, err := a.store.Get(ctx, tokenKey)
	if err != nil || sealed == nil {
		return ""
	}
	token, err := a.cipher.Open(sealed)
	if err != nil {
		a.log.Warn(ctx, "stored token could not be opened", "error", err)
		return ""
	}
	return string(token)
}

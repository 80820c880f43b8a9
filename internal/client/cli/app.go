package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/RajeswariKodigudla/cashbook-mobile-sub001/internal/client/cache"
	"github.com/RajeswariKodigudla/cashbook-mobile-sub001/internal/client/client"
	"github.com/RajeswariKodigudla/cashbook-mobile-sub001/internal/client/config"
	"github.com/RajeswariKodigudla/cashbook-mobile-sub001/internal/client/realtime"
	"github.com/RajeswariKodigudla/cashbook-mobile-sub001/internal/client/repositories/kv"
	"github.com/RajeswariKodigudla/cashbook-mobile-sub001/internal/client/services"
	"github.com/RajeswariKodigudla/cashbook-mobile-sub001/internal/client/session"
	"github.com/RajeswariKodigudla/cashbook-mobile-sub001/internal/cryptox"
	"github.com/RajeswariKodigudla/cashbook-mobile-sub001/internal/logging"
)

// saltKey holds the salt the cache key is derived with. It sits outside the
// cache namespace so Clear keeps it.
const saltKey = "cache_salt"

type App struct {
	config  *config.Config
	log     logging.Logger
	once    *logging.Once
	store   kv.Repository
	cipher  *cryptox.Cipher
	api     client.Client
	session *session.Session
	cache   *cache.Helpers

	accounts      *services.AccountService
	notifications *services.NotificationService
	transactions  *services.TransactionService

	reader   *bufio.Reader
	out      io.Writer
	userName string
	closers  []func() error
}

// NewApp opens the durable store, builds the HTTP client and wires the
// sync engines.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	log, syncLog, err := newLogger(c.LogFormat, os.Stderr)
	if err != nil {
		return nil, err
	}

	st, err := client.OpenStore(ctx, c.StoreDriver, c.StorePath)
	if err != nil {
		log.Error(ctx, "error opening store", "driver", c.StoreDriver, "error", err)
		return nil, err
	}

	sess := session.New(nil)
	api, err := client.NewHTTPClient(c.APIBaseURL, c.RequestTimeout, sess, client.WithLogger(log))
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	var source realtime.Source = realtime.Unavailable{}
	if c.RealtimeURL != "" {
		source = realtime.NewAMQPSource(c.RealtimeURL, c.RealtimeQueue, log)
	}

	a, err := assemble(ctx, c, st.KV, api, sess, source, log)
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	a.reader = bufio.NewReader(os.Stdin)
	a.closers = append(a.closers, st.Close, syncLog)
	return a, nil
}

// assemble wires the engines over already opened collaborators.
func assemble(ctx context.Context, c *config.Config, store kv.Repository, api client.Client, sess *session.Session, source realtime.Source, log logging.Logger) (*App, error) {
	log = logging.OrNop(log)

	cipher, err := newCipher(ctx, store, c.CacheSecret)
	if err != nil {
		return nil, fmt.Errorf("preparing cache cipher: %w", err)
	}

	ttl := c.CacheDefaultTTL
	if ttl < 0 {
		ttl = cache.NoExpiry
	}
	cc, err := cache.New(store, cache.Options{
		DefaultTTL:      ttl,
		MaxSize:         c.CacheMaxSize,
		CleanupInterval: c.CacheCleanupInterval,
		Logger:          log,
		Cipher:          cipher,
	})
	if err != nil {
		return nil, err
	}
	helpers := cache.NewHelpers(cc)

	once := logging.NewOnce()
	deps := services.Deps{
		API:      api,
		Cache:    helpers,
		Store:    store,
		Identity: sess,
		Logger:   log,
		Once:     once,
	}

	accounts := services.NewAccountService(deps, services.AccountOptions{
		AccountDebounce:    c.AccountDebounce,
		MembershipDebounce: c.MembershipDebounce,
		SequenceGuard:      c.SequenceGuard,
	})
	notifications := services.NewNotificationService(deps, source, services.NotificationOptions{
		PollInterval:  c.PollInterval,
		PendingGrace:  c.PendingGrace,
		SequenceGuard: c.SequenceGuard,
	})
	accounts.SetNotificationRefresher(notifications)

	return &App{
		config:        c,
		log:           log,
		once:          once,
		store:         store,
		cipher:        cipher,
		api:           api,
		session:       sess,
		cache:         helpers,
		accounts:      accounts,
		notifications: notifications,
		transactions:  services.NewTransactionService(deps),
		reader:        bufio.NewReader(os.Stdin),
		out:           os.Stdout,
	}, nil
}

// newCipher derives the cache key from secret. No secret means durable
// entries are stored in the clear.
func newCipher(ctx context.Context, store kv.Repository, secret string) (*cryptox.Cipher, error) {
	if secret == "" || store == nil {
		return nil, nil
	}
	salt, err := store.Get(ctx, saltKey)
	if err != nil {
		return nil, err
	}
	if salt == nil {
		if salt, err = cryptox.NewSalt(16); err != nil {
			return nil, err
		}
		if err := store.Set(ctx, saltKey, salt); err != nil {
			return nil, err
		}
	}
	return cryptox.NewCipher(cryptox.DeriveKey([]byte(secret), salt))
}

// Run restores a session when one is available and blocks in the REPL
// until the user exits.
func (a *App) Run(ctx context.Context) {
	defer a.Close(ctx)

	fmt.Fprintln(a.out, "Welcome to cashbook (type 'help' for commands)")
	a.restoreSession(ctx)

	runREPL(ctx, a, a.getStatus, bufio.NewScanner(a.reader), a.out)
}

// Close stops background work and releases the store.
func (a *App) Close(ctx context.Context) {
	a.notifications.Stop()
	a.accounts.Stop()
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Debug(ctx, "close failed", "error", err)
		}
	}
	a.closers = nil
}

func (a *App) isLoggedIn() bool {
	return a.session.Authenticated()
}

func (a *App) getStatus() string {
	if !a.isLoggedIn() {
		return ""
	}
	s := a.userName
	if s == "" {
		s = a.session.UserID()
	}
	cur := a.accounts.CurrentAccount()
	if s != "" {
		s += " "
	}
	s += "@" + cur.AccountName
	if n := a.notifications.UnreadCount(); n > 0 {
		s += fmt.Sprintf(" [%d]", n)
	}
	return "(" + s + ")"
}

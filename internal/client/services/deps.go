package services

import (
	"github.com/RajeswariKodigudla/cashbook-mobile-sub001/internal/client/cache"
	"github.com/RajeswariKodigudla/cashbook-mobile-sub001/internal/client/client"
	"github.com/RajeswariKodigudla/cashbook-mobile-sub001/internal/client/repositories/kv"
	"github.com/RajeswariKodigudla/cashbook-mobile-sub001/internal/logging"
	"github.com/RajeswariKodigudla/cashbook-mobile-sub001/internal/timex"
)

// Identity is the slice of the session the engines need.
type Identity interface {
	Authenticated() bool
	UserID() string
}

// Deps are the collaborators shared by every engine.
type Deps struct {
	API      client.Client
	Cache    *cache.Helpers
	Store    kv.Repository
	Identity Identity
	Logger   logging.Logger
	// Once gates log lines to one per session; the owner resets it on logout.
	Once *logging.Once
	Now  timex.Clock
}

func (d Deps) withDefaults() Deps {
	d.Logger = logging.OrNop(d.Logger)
	if d.Once == nil {
		d.Once = logging.NewOnce()
	}
	d.Now = d.Now.OrNow()
	return d
}

package services

import (
	"context"
	"strings"

	"github.com/RajeswariKodigudla/cashbook-mobile-sub001/internal/client/cache"
	"github.com/RajeswariKodigudla/cashbook-mobile-sub001/internal/client/client"
	"github.com/RajeswariKodigudla/cashbook-mobile-sub001/internal/client/models"
	"github.com/RajeswariKodigudla/cashbook-mobile-sub001/internal/logging"
	"github.com/RajeswariKodigudla/cashbook-mobile-sub001/internal/timex"
)

// TransactionService reads transactions and summaries through the cache
// and invalidates a scope after every write to it.
type TransactionService struct {
	api   client.Client
	cache *cache.Helpers
	log   logging.Logger
	once  *logging.Once
	now   timex.Clock
}

func NewTransactionService(d Deps) *TransactionService {
	d = d.withDefaults()
	return &TransactionService{
		api:   d.API,
		cache: d.Cache,
		log:   d.Logger.With("component", "transactions"),
		once:  d.Once,
		now:   d.Now,
	}
}

// Cached returns the cached list for scope without a network call.
func (s *TransactionService) Cached(ctx context.Context, scope string) ([]models.Transaction, bool) {
	return s.cache.GetCachedTransactions(ctx, scope)
}

// List serves scope from the cache, fetching on a miss.
func (s *TransactionService) List(ctx context.Context, scope string) ([]models.Transaction, error) {
	if ts, ok := s.cache.GetCachedTransactions(ctx, scope); ok {
		return ts, nil
	}
	return s.fetch(ctx, scope)
}

// Refresh bypasses the cache. On failure the cached list is returned with
// the error when one exists.
func (s *TransactionService) Refresh(ctx context.Context, scope string) ([]models.Transaction, error) {
	ts, err := s.fetch(ctx, scope)
	if err == nil {
		return ts, nil
	}
	if cached, ok := s.cache.GetCachedTransactions(ctx, scope); ok {
		s.once.Do("transactions.fallback", func() {
			s.log.Warn(ctx, "transactions unavailable, serving cached list", "scope", cache.Scope(scope), "error", err)
		})
		return cached, nil
	}
	return nil, err
}

func (s *TransactionService) fetch(ctx context.Context, scope string) ([]models.Transaction, error) {
	raw, err := s.api.GetTransactions(ctx, scope)
	if err != nil {
		if client.Classify(err) == client.ClassFeatureAbsent {
			return []models.Transaction{}, nil
		}
		return nil, err
	}
	ts := models.DecodeTransactions(raw)
	s.cache.CacheTransactions(ctx, scope, ts)
	return ts, nil
}

// Summary serves scope's totals from the cache, fetching on a miss. A
// backend without the summary endpoint gets the totals computed locally.
func (s *TransactionService) Summary(ctx context.Context, scope string) (models.Summary, error) {
	if sum, ok := s.cache.GetCachedSummary(ctx, scope); ok {
		return sum, nil
	}
	raw, err := s.api.GetSummary(ctx, scope)
	if err != nil {
		if client.Classify(err) != client.ClassFeatureAbsent {
			return models.Summary{}, err
		}
		ts, lerr := s.List(ctx, scope)
		if lerr != nil {
			return models.Summary{}, lerr
		}
		sum := models.Summarize(ts)
		s.cache.CacheSummary(ctx, scope, sum)
		return sum, nil
	}
	sum, ok := models.DecodeSummary(raw)
	if !ok {
		return models.Summary{}, ErrUnrecognisedPayload
	}
	s.cache.CacheSummary(ctx, scope, sum)
	return sum, nil
}

func (s *TransactionService) Create(ctx context.Context, scope string, in models.TransactionInput) (models.Transaction, error) {
	const op = "create transaction"
	in, err := s.normalize(op, in)
	if err != nil {
		return models.Transaction{}, err
	}
	raw, err := s.api.CreateTransaction(ctx, scope, in)
	if err != nil {
		return models.Transaction{}, mutationFailed(op, err)
	}
	s.cache.InvalidateAccountCache(ctx, scope)
	t, ok := models.DecodeTransaction(raw)
	if !ok {
		t = fromInput(in, scope)
	}
	return t, nil
}

func (s *TransactionService) Update(ctx context.Context, scope, id string, in models.TransactionInput) (models.Transaction, error) {
	const op = "update transaction"
	if strings.TrimSpace(id) == "" {
		return models.Transaction{}, invalid(op, "transaction id is required")
	}
	in, err := s.normalize(op, in)
	if err != nil {
		return models.Transaction{}, err
	}
	raw, err := s.api.UpdateTransaction(ctx, scope, id, in)
	if err != nil {
		return models.Transaction{}, mutationFailed(op, err)
	}
	s.cache.InvalidateAccountCache(ctx, scope)
	t, ok := models.DecodeTransaction(raw)
	if !ok {
		t = fromInput(in, scope)
		t.ID = id
	}
	return t, nil
}

func (s *TransactionService) Delete(ctx context.Context, scope, id string) error {
	const op = "delete transaction"
	if strings.TrimSpace(id) == "" {
		return invalid(op, "transaction id is required")
	}
	if err := s.api.DeleteTransaction(ctx, scope, id); err != nil {
		return mutationFailed(op, err)
	}
	s.cache.InvalidateAccountCache(ctx, scope)
	return nil
}

func (s *TransactionService) normalize(op string, in models.TransactionInput) (models.TransactionInput, error) {
	in.Type = models.TransactionType(strings.ToLower(strings.TrimSpace(string(in.Type))))
	if in.Type != models.Income && in.Type != models.Expense {
		return in, invalid(op, "type must be income or expense")
	}
	if !in.Amount.IsPositive() {
		return in, invalid(op, "amount must be greater than zero")
	}
	in.Category = strings.TrimSpace(in.Category)
	in.Note = strings.TrimSpace(in.Note)
	if in.Date.IsZero() {
		in.Date = s.now()
	}
	return in, nil
}

func fromInput(in models.TransactionInput, scope string) models.Transaction {
	return models.Transaction{
		AccountID: cache.Scope(scope),
		Type:      in.Type,
		Amount:    in.Amount,
		Category:  in.Category,
		Note:      in.Note,
		Date:      in.Date,
	}
}

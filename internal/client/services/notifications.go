package services

import (
	"context"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/RajeswariKodigudla/cashbook-mobile-sub001/internal/client/cache"
	"github.com/RajeswariKodigudla/cashbook-mobile-sub001/internal/client/client"
	"github.com/RajeswariKodigudla/cashbook-mobile-sub001/internal/client/models"
	"github.com/RajeswariKodigudla/cashbook-mobile-sub001/internal/client/realtime"
	"github.com/RajeswariKodigudla/cashbook-mobile-sub001/internal/client/scheduler"
	"github.com/RajeswariKodigudla/cashbook-mobile-sub001/internal/logging"
	"github.com/RajeswariKodigudla/cashbook-mobile-sub001/internal/timex"
)

const seqNotifications = "notifications"

const (
	DefaultPollInterval = 30 * time.Second
	DefaultPushDebounce = 500 * time.Millisecond
	DefaultPendingGrace = 2 * time.Minute
)

type NotificationOptions struct {
	PollInterval  time.Duration
	PushDebounce  time.Duration
	PendingGrace  time.Duration
	SequenceGuard bool
}

type pendingPush struct {
	n          models.Notification
	receivedAt time.Time
}

// NotificationService keeps the notification feed. Polling is the primary
// path; a push source only prepends events early and schedules a fetch.
type NotificationService struct {
	api    client.Client
	cache  *cache.Helpers
	id     Identity
	log    logging.Logger
	once   *logging.Once
	now    timex.Clock
	source realtime.Source
	opts   NotificationOptions

	debounce *scheduler.Coalescer
	seq      *scheduler.Sequencer

	mu      sync.RWMutex
	feed    []models.Notification
	pending map[string]pendingPush

	runMu  sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewNotificationService creates the engine. A nil source means no push
// transport.
func NewNotificationService(d Deps, source realtime.Source, opts NotificationOptions) *NotificationService {
	d = d.withDefaults()
	if source == nil {
		source = realtime.Unavailable{}
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.PushDebounce <= 0 {
		opts.PushDebounce = DefaultPushDebounce
	}
	if opts.PendingGrace <= 0 {
		opts.PendingGrace = DefaultPendingGrace
	}
	return &NotificationService{
		api:      d.API,
		cache:    d.Cache,
		id:       d.Identity,
		log:      d.Logger.With("component", "notifications"),
		once:     d.Once,
		now:      d.Now,
		source:   source,
		opts:     opts,
		debounce: scheduler.NewCoalescer(opts.PushDebounce),
		seq:      scheduler.NewSequencer(opts.SequenceGuard),
		feed:     []models.Notification{},
		pending:  map[string]pendingPush{},
	}
}

// Notifications is the feed, newest first.
func (s *NotificationService) Notifications() []models.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Notification{}, s.feed...)
}

func (s *NotificationService) UnreadCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return models.UnreadCount(s.feed)
}

// RefreshNotifications fetches the feed and replaces it wholesale. It never
// fails; errors resolve to the cached feed or an empty one.
func (s *NotificationService) RefreshNotifications(ctx context.Context) {
	if !s.id.Authenticated() {
		return
	}
	reqID := s.seq.Next(seqNotifications)
	raw, err := s.api.GetNotifications(ctx)
	if !s.seq.IsLatest(seqNotifications, reqID) {
		s.log.Debug(ctx, "discarding stale notifications response", "request", reqID)
		return
	}
	if err != nil {
		s.refreshFailed(ctx, err)
		return
	}

	list := models.DecodeNotifications(raw)
	s.cache.CacheNotifications(ctx, list)
	s.replace(list, true)
}

func (s *NotificationService) refreshFailed(ctx context.Context, err error) {
	switch cls := client.Classify(err); cls {
	case client.ClassFeatureAbsent:
		s.once.Do("notifications.absent", func() {
			s.log.Info(ctx, "backend has no notifications endpoint")
		})
		s.mu.Lock()
		s.feed = []models.Notification{}
		s.pending = map[string]pendingPush{}
		s.mu.Unlock()
	case client.ClassTransient, client.ClassUnauthenticated:
		s.once.Do("notifications."+cls.String(), func() {
			s.log.Warn(ctx, "notifications unavailable, serving cached feed", "class", cls.String(), "error", err)
		})
		s.replace(s.cachedOrEmpty(ctx), false)
	default:
		s.log.Error(ctx, "notifications refresh failed", "class", cls.String(), "error", err)
		s.replace(s.cachedOrEmpty(ctx), false)
	}
}

func (s *NotificationService) cachedOrEmpty(ctx context.Context) []models.Notification {
	if cached, ok := s.cache.GetCachedNotifications(ctx); ok {
		return cached
	}
	return []models.Notification{}
}

// replace installs list plus any pushed notifications it does not contain
// yet. Pending entries seen in an authoritative list, or older than the
// grace period, are dropped.
func (s *NotificationService) replace(list []models.Notification, authoritative bool) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]struct{}, len(list))
	for _, n := range list {
		seen[n.ID] = struct{}{}
	}
	feed := append(make([]models.Notification, 0, len(list)+len(s.pending)), list...)
	for id, p := range s.pending {
		_, inList := seen[id]
		switch {
		case inList && authoritative:
			delete(s.pending, id)
		case now.Sub(p.receivedAt) > s.opts.PendingGrace:
			delete(s.pending, id)
		case !inList:
			feed = append(feed, p.n)
		}
	}
	models.SortNewestFirst(feed)
	s.feed = feed
}

// Start registers with the push source when it offers push and polls until
// ctx ends or Stop is called. A failed registration leaves polling alone.
func (s *NotificationService) Start(ctx context.Context) {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	if s.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	if s.source.Capability() == realtime.CapabilityPush {
		if err := s.source.Register(func(ev realtime.Event) { s.handlePush(ctx, ev) }); err != nil {
			s.log.Warn(ctx, "real-time source unavailable, polling only", "error", err)
		} else {
			s.log.Info(ctx, "real-time notifications enabled")
		}
	}

	go s.poll(ctx, s.done)
}

func (s *NotificationService) poll(ctx context.Context, done chan struct{}) {
	defer close(done)
	s.RefreshNotifications(ctx)

	ticker := time.NewTicker(s.opts.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RefreshNotifications(ctx)
		}
	}
}

// Stop unregisters from the push source and ends polling.
func (s *NotificationService) Stop() {
	s.runMu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.runMu.Unlock()

	if cancel == nil {
		return
	}
	s.source.Unregister()
	cancel()
	<-done
	s.debounce.Cancel(seqNotifications)
	s.debounce.Wait()
}

// Wait blocks until debounced fetches have run.
func (s *NotificationService) Wait() { s.debounce.Wait() }

func (s *NotificationService) handlePush(ctx context.Context, ev realtime.Event) {
	n, ok := models.DecodeNotification(ev.Payload)
	if !ok {
		s.log.Warn(ctx, "dropping malformed pushed notification")
		return
	}
	if n.Timestamp.IsZero() {
		n.Timestamp = ev.ReceivedAt
	}
	if s.Push(n) {
		s.debounce.Trigger(ctx, seqNotifications, s.RefreshNotifications)
	}
}

// Push prepends n to the feed ahead of the next fetch. It reports false
// for a duplicate.
func (s *NotificationService) Push(n models.Notification) bool {
	now := s.now()
	if n.ID == "" {
		n.ID = ulid.Make().String()
	}
	if n.Timestamp.IsZero() {
		n.Timestamp = now
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.feed {
		if existing.ID == n.ID {
			return false
		}
	}
	s.feed = append([]models.Notification{n}, s.feed...)
	models.SortNewestFirst(s.feed)
	s.pending[n.ID] = pendingPush{n: n, receivedAt: now}
	return true
}

// MarkAsRead marks id read on the backend, then locally. A backend without
// the endpoint still gets the local change.
func (s *NotificationService) MarkAsRead(ctx context.Context, id string) error {
	if err := s.api.MarkNotificationRead(ctx, id); err != nil && client.Classify(err) != client.ClassFeatureAbsent {
		return mutationFailed("mark notification read", err)
	}
	s.mu.Lock()
	for i := range s.feed {
		if s.feed[i].ID == id {
			s.feed[i].Read = true
		}
	}
	if p, ok := s.pending[id]; ok {
		p.n.Read = true
		s.pending[id] = p
	}
	s.mu.Unlock()
	s.persist(ctx)
	return nil
}

func (s *NotificationService) MarkAllAsRead(ctx context.Context) error {
	if err := s.api.MarkAllNotificationsRead(ctx); err != nil && client.Classify(err) != client.ClassFeatureAbsent {
		return mutationFailed("mark all notifications read", err)
	}
	s.mu.Lock()
	for i := range s.feed {
		s.feed[i].Read = true
	}
	for id, p := range s.pending {
		p.n.Read = true
		s.pending[id] = p
	}
	s.mu.Unlock()
	s.persist(ctx)
	return nil
}

// persist writes the feed back to the cache so a fallback shows local read
// state.
func (s *NotificationService) persist(ctx context.Context) {
	s.cache.CacheNotifications(ctx, s.Notifications())
}

// Reset drops the feed on logout.
func (s *NotificationService) Reset() {
	s.debounce.Cancel(seqNotifications)
	s.seq.Invalidate(seqNotifications)
	s.mu.Lock()
	s.feed = []models.Notification{}
	s.pending = map[string]pendingPush{}
	s.mu.Unlock()
}

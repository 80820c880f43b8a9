package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/RajeswariKodigudla/cashbook-mobile-sub001/internal/client/cache"
	"github.com/RajeswariKodigudla/cashbook-mobile-sub001/internal/client/client"
	"github.com/RajeswariKodigudla/cashbook-mobile-sub001/internal/client/models"
	"github.com/RajeswariKodigudla/cashbook-mobile-sub001/internal/client/repositories/kv"
	"github.com/RajeswariKodigudla/cashbook-mobile-sub001/internal/client/scheduler"
	"github.com/RajeswariKodigudla/cashbook-mobile-sub001/internal/logging"
	"github.com/RajeswariKodigudla/cashbook-mobile-sub001/internal/timex"
)

// CurrentAccountKey is the durable key of the selected account id. It lives
// outside the cache namespace so clearing the cache keeps the selection.
const CurrentAccountKey = "current_account_id"

const (
	seqAccounts    = "accounts"
	seqMembership  = "membership"
	seqInvitations = "invitations"
)

type AccountOptions struct {
	AccountDebounce    time.Duration
	MembershipDebounce time.Duration
	SequenceGuard      bool
}

// NotificationRefresher is refreshed alongside accounts after an accepted
// invitation.
type NotificationRefresher interface {
	RefreshNotifications(ctx context.Context)
}

// AccountService owns the account list, the current account and the
// current user's membership in it. Its lock is never held across I/O;
// responses are applied only if they still match the latest request.
type AccountService struct {
	api      client.Client
	cache    *cache.Helpers
	store    kv.Repository
	id       Identity
	log      logging.Logger
	once     *logging.Once
	now      timex.Clock
	notifier NotificationRefresher

	accountsDebounce   *scheduler.Coalescer
	membershipDebounce *scheduler.Coalescer
	seq                *scheduler.Sequencer

	mu            sync.RWMutex
	bootstrapped  bool
	accounts      []models.Account // nil until a list was resolved
	current       models.Account
	storedID      string
	membership    *models.Membership
	members       []models.Membership
	invitations   []models.Invite
	featureAbsent bool
}

func NewAccountService(d Deps, opts AccountOptions) *AccountService {
	d = d.withDefaults()
	return &AccountService{
		api:                d.API,
		cache:              d.Cache,
		store:              d.Store,
		id:                 d.Identity,
		log:                d.Logger.With("component", "accounts"),
		once:               d.Once,
		now:                d.Now,
		accountsDebounce:   scheduler.NewCoalescer(opts.AccountDebounce),
		membershipDebounce: scheduler.NewCoalescer(opts.MembershipDebounce),
		seq:                scheduler.NewSequencer(opts.SequenceGuard),
		invitations:        []models.Invite{},
	}
}

// SetNotificationRefresher wires the feed refreshed after AcceptInvitation.
func (s *AccountService) SetNotificationRefresher(n NotificationRefresher) {
	s.mu.Lock()
	s.notifier = n
	s.mu.Unlock()
}

// Accounts is the full list, personal first. Before the first resolution it
// holds only the personal account.
func (s *AccountService) Accounts() []models.Account {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.accounts == nil {
		return []models.Account{s.personalLocked()}
	}
	return append([]models.Account(nil), s.accounts...)
}

func (s *AccountService) PersonalAccount() models.Account {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.personalLocked()
}

// SharedAccounts is every non-personal account.
func (s *AccountService) SharedAccounts() []models.Account {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Account{}
	for _, a := range s.accounts {
		if !a.IsPersonal() {
			out = append(out, a)
		}
	}
	return out
}

func (s *AccountService) CurrentAccount() models.Account {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current.ID == "" {
		return s.personalLocked()
	}
	return s.current
}

// Membership is the current user's membership in the current shared
// account; nil for the personal account or when none is known.
func (s *AccountService) Membership() *models.Membership {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.membership == nil {
		return nil
	}
	m := *s.membership
	return &m
}

func (s *AccountService) Members() []models.Membership {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Membership(nil), s.members...)
}

func (s *AccountService) Invitations() []models.Invite {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Invite{}, s.invitations...)
}

// FeatureAbsent reports whether the backend lacks shared accounts.
func (s *AccountService) FeatureAbsent() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.featureAbsent
}

// Can evaluates a against the current account. The personal account allows
// everything; a shared account without a known membership allows nothing.
func (s *AccountService) Can(a models.Action) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current.ID == "" || s.current.IsPersonal() {
		return true
	}
	if s.membership == nil {
		return false
	}
	return s.membership.Can(a)
}

// OnAuthChanged schedules an account refresh after a login or session
// change. Bursts inside the debounce window refresh once.
func (s *AccountService) OnAuthChanged(ctx context.Context) {
	if !s.id.Authenticated() {
		return
	}
	s.Bootstrap(ctx)
	s.accountsDebounce.Trigger(ctx, seqAccounts, s.RefreshAccounts)
}

// Bootstrap makes the personal account current so nothing waits on the
// network, then loads the stored selection. It runs once per session.
func (s *AccountService) Bootstrap(ctx context.Context) {
	s.mu.Lock()
	if s.bootstrapped {
		s.mu.Unlock()
		return
	}
	s.bootstrapped = true
	s.current = s.personalLocked()
	s.mu.Unlock()

	stored := s.loadStoredID(ctx)

	s.mu.Lock()
	if s.storedID == "" {
		s.storedID = stored
	}
	s.mu.Unlock()
}

// RefreshAccounts fetches the account list and resolves the current
// account against it. It never fails; see the package doc.
func (s *AccountService) RefreshAccounts(ctx context.Context) {
	if !s.id.Authenticated() {
		return
	}
	s.Bootstrap(ctx)

	reqID := s.seq.Next(seqAccounts)

	if cached, ok := s.cache.GetCachedAccounts(ctx); ok && !s.loaded() {
		s.applyAccounts(ctx, cached, false)
	}

	if s.FeatureAbsent() {
		s.applyAccounts(ctx, s.personalOnly(), true)
		return
	}

	raw, err := s.api.GetAccounts(ctx)
	if !s.seq.IsLatest(seqAccounts, reqID) {
		s.log.Debug(ctx, "discarding stale accounts response", "request", reqID)
		return
	}
	if err != nil {
		s.accountsFailed(ctx, err)
		return
	}

	decoded := models.DecodeAccounts(raw)
	personal := s.PersonalAccount()
	if decoded.Personal != nil {
		personal = *decoded.Personal
		if personal.OwnerID == "" {
			personal.OwnerID = s.id.UserID()
		}
	}
	list := append([]models.Account{personal}, decoded.Shared...)
	if decoded.Shape == models.ShapeUnknown {
		s.log.Warn(ctx, "unrecognised accounts payload, keeping last known list")
		s.applyFallback(ctx)
		return
	}

	s.cache.CacheAccounts(ctx, list)
	s.applyAccounts(ctx, list, true)
	s.log.Debug(ctx, "accounts refreshed", "count", len(list), "shape", decoded.Shape.String())
}

func (s *AccountService) accountsFailed(ctx context.Context, err error) {
	switch cls := client.Classify(err); cls {
	case client.ClassFeatureAbsent:
		s.mu.Lock()
		s.featureAbsent = true
		s.mu.Unlock()
		s.once.Do("accounts.absent", func() {
			s.log.Info(ctx, "backend has no shared accounts, using personal account only")
		})
		list := s.personalOnly()
		s.cache.CacheAccounts(ctx, list)
		s.applyAccounts(ctx, list, true)
	case client.ClassTransient, client.ClassUnauthenticated:
		s.once.Do("accounts."+cls.String(), func() {
			s.log.Warn(ctx, "accounts unavailable, serving last known list", "class", cls.String(), "error", err)
		})
		s.applyFallback(ctx)
	default:
		s.log.Error(ctx, "accounts refresh failed", "class", cls.String(), "error", err)
		s.applyFallback(ctx)
	}
}

// applyFallback serves the cached list, or personal only. Neither is
// authoritative, so an unmatched stored selection is kept for later.
func (s *AccountService) applyFallback(ctx context.Context) {
	if cached, ok := s.cache.GetCachedAccounts(ctx); ok && len(cached) > 0 {
		s.applyAccounts(ctx, cached, false)
		return
	}
	if s.loaded() {
		return
	}
	s.applyAccounts(ctx, s.personalOnly(), false)
}

// applyAccounts installs list and resolves the current account: the stored
// id when it is in the list, personal otherwise. Only an authoritative list
// may overwrite the stored id with the personal fallback.
func (s *AccountService) applyAccounts(ctx context.Context, list []models.Account, authoritative bool) {
	list = ensurePersonalFirst(list, s.PersonalAccount())

	s.mu.Lock()
	s.accounts = list
	want := s.storedID
	resolved := list[0]
	found := models.IsPersonalID(want)
	for _, a := range list {
		if want != "" && a.ID == want {
			resolved, found = a, true
			break
		}
	}
	previous := s.current.ID
	s.current = resolved
	if resolved.IsPersonal() || resolved.ID != previous {
		s.membership, s.members = nil, nil
	}
	persistFallback := !found && authoritative
	if persistFallback {
		s.storedID = models.PersonalAccountID
	}
	s.mu.Unlock()

	if persistFallback {
		s.log.Info(ctx, "stored account no longer exists, switched to personal", "stored", want)
		s.saveStoredID(ctx, models.PersonalAccountID)
	}
	if !resolved.IsPersonal() {
		s.scheduleMembership(ctx, resolved.ID)
	}
}

// SetCurrentAccount selects id, persists it and schedules a debounced
// membership refresh. Before the first list resolution the id is stored and
// applied once a list arrives.
func (s *AccountService) SetCurrentAccount(ctx context.Context, id string) error {
	if models.IsPersonalID(id) {
		id = models.PersonalAccountID
	}

	s.mu.Lock()
	var target *models.Account
	if s.accounts == nil {
		if id == models.PersonalAccountID {
			p := s.personalLocked()
			target = &p
		}
	} else {
		for i := range s.accounts {
			if s.accounts[i].ID == id {
				target = &s.accounts[i]
				break
			}
		}
		if target == nil {
			s.mu.Unlock()
			return &MutationError{Op: "switch account", Class: client.ClassRejected, Message: "account " + id + " does not exist", Err: ErrUnknownAccount}
		}
	}
	s.storedID = id
	if target != nil {
		if target.ID != s.current.ID {
			s.membership = nil
			s.members = nil
		}
		s.current = *target
	}
	s.mu.Unlock()

	s.saveStoredID(ctx, id)

	if id == models.PersonalAccountID {
		s.membershipDebounce.Cancel(seqMembership)
		s.seq.Invalidate(seqMembership)
		return nil
	}
	if target != nil {
		s.scheduleMembership(ctx, id)
	}
	return nil
}

func (s *AccountService) scheduleMembership(ctx context.Context, accountID string) {
	s.membershipDebounce.Trigger(ctx, seqMembership, func(ctx context.Context) {
		s.RefreshCurrentUserMembership(ctx, accountID)
	})
}

// RefreshCurrentUserMembership fetches accountID's members and picks the
// current user's entry. Transient failures keep the existing membership;
// 403 and 404 clear it. Results for an account that is no longer current
// are dropped.
func (s *AccountService) RefreshCurrentUserMembership(ctx context.Context, accountID string) {
	if models.IsPersonalID(accountID) {
		s.mu.Lock()
		s.membership, s.members = nil, nil
		s.mu.Unlock()
		return
	}
	if !s.id.Authenticated() {
		return
	}

	reqID := s.seq.Next(seqMembership)

	if cached, ok := s.cache.GetCachedMembers(ctx, accountID); ok {
		s.applyMembers(accountID, cached, false)
	}

	raw, err := s.api.GetAccountMembers(ctx, accountID)
	if !s.seq.IsLatest(seqMembership, reqID) || s.CurrentAccount().ID != accountID {
		s.log.Debug(ctx, "discarding stale membership response", "account", accountID)
		return
	}
	if err != nil {
		cls := client.Classify(err)
		switch {
		case client.IsStatus(err, 403, 404):
			s.mu.Lock()
			s.membership, s.members = nil, nil
			s.mu.Unlock()
			s.once.Do("membership.denied", func() {
				s.log.Info(ctx, "no membership for account", "account", accountID, "error", err)
			})
		case cls == client.ClassTransient:
			s.once.Do("membership.transient", func() {
				s.log.Warn(ctx, "membership unavailable, keeping last known", "error", err)
			})
		default:
			s.log.Error(ctx, "membership refresh failed", "account", accountID, "class", cls.String(), "error", err)
		}
		return
	}

	members := models.DecodeMembers(raw, accountID)
	s.cache.CacheMembers(ctx, accountID, members)
	s.applyMembers(accountID, members, true)
}

// applyMembers installs members for accountID if it is still current. A
// non-authoritative list only fills an unknown membership.
func (s *AccountService) applyMembers(accountID string, members []models.Membership, authoritative bool) {
	m, ok := models.FindMember(members, s.id.UserID())

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current.ID != accountID {
		return
	}
	if !authoritative && s.membership != nil {
		return
	}
	s.members = members
	if ok {
		s.membership = &m
	} else if authoritative {
		s.membership = nil
	}
}

// RefreshInvitations reloads pending invitations. It never fails.
func (s *AccountService) RefreshInvitations(ctx context.Context) {
	if !s.id.Authenticated() {
		return
	}
	reqID := s.seq.Next(seqInvitations)
	raw, err := s.api.GetInvitations(ctx)
	if !s.seq.IsLatest(seqInvitations, reqID) {
		return
	}
	if err != nil {
		switch cls := client.Classify(err); cls {
		case client.ClassFeatureAbsent:
			s.mu.Lock()
			s.invitations = []models.Invite{}
			s.mu.Unlock()
			s.once.Do("invitations.absent", func() {
				s.log.Info(ctx, "backend has no invitations")
			})
		case client.ClassTransient, client.ClassUnauthenticated:
			s.once.Do("invitations."+cls.String(), func() {
				s.log.Warn(ctx, "invitations unavailable", "class", cls.String(), "error", err)
			})
		default:
			s.log.Error(ctx, "invitations refresh failed", "class", cls.String(), "error", err)
		}
		return
	}
	invites := models.DecodeInvitations(raw)
	s.mu.Lock()
	s.invitations = invites
	s.mu.Unlock()
}

// AcceptInvitation accepts inviteID, then refreshes invitations, accounts
// and notifications concurrently and waits for all three.
func (s *AccountService) AcceptInvitation(ctx context.Context, inviteID string) error {
	if err := s.api.AcceptInvitation(ctx, inviteID); err != nil {
		return mutationFailed("accept invitation", err)
	}
	s.dropInvite(inviteID)
	s.cache.InvalidateAccounts(ctx)

	s.mu.RLock()
	notifier := s.notifier
	s.mu.RUnlock()

	var g errgroup.Group
	g.Go(func() error { s.RefreshInvitations(ctx); return nil })
	g.Go(func() error { s.RefreshAccounts(ctx); return nil })
	if notifier != nil {
		g.Go(func() error { notifier.RefreshNotifications(ctx); return nil })
	}
	return g.Wait()
}

// RejectInvitation rejects inviteID and refreshes invitations. A backend
// without invitation endpoints (404) only drops it locally.
func (s *AccountService) RejectInvitation(ctx context.Context, inviteID string) error {
	if err := s.api.RejectInvitation(ctx, inviteID); err != nil {
		if client.Classify(err) == client.ClassFeatureAbsent {
			s.dropInvite(inviteID)
			return nil
		}
		return mutationFailed("reject invitation", err)
	}
	s.dropInvite(inviteID)
	s.RefreshInvitations(ctx)
	return nil
}

func (s *AccountService) dropInvite(id string) {
	s.mu.Lock()
	s.invitations = models.RemoveInvite(s.invitations, id)
	s.mu.Unlock()
}

// CreateAccount creates a shared account and refreshes the list.
func (s *AccountService) CreateAccount(ctx context.Context, name string) (models.Account, error) {
	const op = "create account"
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Account{}, invalid(op, "account name is required")
	}
	raw, err := s.api.CreateAccount(ctx, name)
	if err != nil {
		return models.Account{}, mutationFailed(op, err)
	}
	created, ok := models.DecodeAccount(raw)
	if !ok {
		created = models.Account{AccountName: name}
	}
	s.cache.InvalidateAccounts(ctx)
	s.RefreshAccounts(ctx)
	return created, nil
}

// InviteMember invites username into the shared account accountID.
func (s *AccountService) InviteMember(ctx context.Context, accountID, username string, p models.Permissions) error {
	const op = "invite member"
	if models.IsPersonalID(accountID) {
		return &MutationError{Op: op, Class: client.ClassRejected, Message: "members can only be invited to shared accounts", Err: ErrPersonalScope}
	}
	username = strings.TrimSpace(username)
	if username == "" {
		return invalid(op, "username is required")
	}
	if err := s.api.InviteMember(ctx, accountID, client.InviteRequest{Username: username, Permissions: p}); err != nil {
		return mutationFailed(op, err)
	}
	s.afterMemberChange(ctx, accountID)
	return nil
}

func (s *AccountService) UpdateMemberPermissions(ctx context.Context, accountID, memberID string, p models.Permissions) error {
	const op = "update permissions"
	if models.IsPersonalID(accountID) {
		return &MutationError{Op: op, Class: client.ClassRejected, Message: "personal accounts have no members", Err: ErrPersonalScope}
	}
	if err := s.api.UpdateMemberPermissions(ctx, accountID, memberID, p); err != nil {
		return mutationFailed(op, err)
	}
	s.afterMemberChange(ctx, accountID)
	return nil
}

func (s *AccountService) RemoveMember(ctx context.Context, accountID, memberID string) error {
	const op = "remove member"
	if models.IsPersonalID(accountID) {
		return &MutationError{Op: op, Class: client.ClassRejected, Message: "personal accounts have no members", Err: ErrPersonalScope}
	}
	if err := s.api.RemoveMember(ctx, accountID, memberID); err != nil {
		return mutationFailed(op, err)
	}
	s.afterMemberChange(ctx, accountID)
	return nil
}

func (s *AccountService) afterMemberChange(ctx context.Context, accountID string) {
	s.cache.InvalidateAccountCache(ctx, accountID)
	if s.CurrentAccount().ID == accountID {
		s.RefreshCurrentUserMembership(ctx, accountID)
	}
}

// Wait blocks until debounced refreshes have run.
func (s *AccountService) Wait() {
	s.accountsDebounce.Wait()
	s.membershipDebounce.Wait()
}

// Stop cancels pending debounced work and waits for runs in flight.
func (s *AccountService) Stop() {
	s.accountsDebounce.Stop()
	s.membershipDebounce.Stop()
	s.Wait()
}

// Reset forgets everything about the session: in-memory state, the stored
// selection and the cache.
func (s *AccountService) Reset(ctx context.Context) {
	s.accountsDebounce.Cancel(seqAccounts)
	s.membershipDebounce.Cancel(seqMembership)
	for _, k := range []string{seqAccounts, seqMembership, seqInvitations} {
		s.seq.Invalidate(k)
	}

	s.mu.Lock()
	s.bootstrapped = false
	s.accounts = nil
	s.current = models.Account{}
	s.storedID = ""
	s.membership, s.members = nil, nil
	s.invitations = []models.Invite{}
	s.featureAbsent = false
	s.mu.Unlock()

	if s.store != nil {
		if err := s.store.Delete(ctx, CurrentAccountKey); err != nil {
			s.log.Warn(ctx, "clearing stored account failed", "error", err)
		}
	}
	s.cache.ClearAll(ctx)
}

func (s *AccountService) loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accounts != nil
}

func (s *AccountService) personalOnly() []models.Account {
	return []models.Account{s.PersonalAccount()}
}

func (s *AccountService) personalLocked() models.Account {
	for _, a := range s.accounts {
		if a.IsPersonal() {
			return a
		}
	}
	if s.current.IsPersonal() && s.current.ID != "" {
		return s.current
	}
	return models.NewPersonalAccount(s.id.UserID(), s.now())
}

func (s *AccountService) loadStoredID(ctx context.Context) string {
	if s.store == nil {
		return ""
	}
	raw, err := s.store.Get(ctx, CurrentAccountKey)
	if err != nil {
		s.log.Warn(ctx, "reading stored account failed", "error", err)
		return ""
	}
	return string(raw)
}

func (s *AccountService) saveStoredID(ctx context.Context, id string) {
	if s.store == nil {
		return
	}
	if err := s.store.Set(ctx, CurrentAccountKey, []byte(id)); err != nil {
		s.log.Warn(ctx, "persisting current account failed", "account", id, "error", err)
	}
}

// ensurePersonalFirst returns list with exactly one personal account at the
// front and no empty ids.
func ensurePersonalFirst(list []models.Account, fallback models.Account) []models.Account {
	personal := fallback
	personal.ID = models.PersonalAccountID
	out := make([]models.Account, 1, len(list)+1)
	for _, a := range list {
		switch {
		case a.ID == models.PersonalAccountID:
			personal = a
		case a.ID == "":
		default:
			out = append(out, a)
		}
	}
	out[0] = personal
	return out
}

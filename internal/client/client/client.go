package client

import (
	"context"
	"encoding/json"

	"github.com/RajeswariKodigudla/cashbook-mobile-sub001/internal/client/models"
)

// Client is the remote API the sync engines consume.
type Client interface {
	Login(ctx context.Context, username, password string) (string, error)
	GetCurrentUser(ctx context.Context) (json.RawMessage, error)

	GetAccounts(ctx context.Context) (json.RawMessage, error)
	CreateAccount(ctx context.Context, name string) (json.RawMessage, error)
	GetAccountMembers(ctx context.Context, accountID string) (json.RawMessage, error)
	InviteMember(ctx context.Context, accountID string, req InviteRequest) error
	UpdateMemberPermissions(ctx context.Context, accountID, memberID string, p models.Permissions) error
	RemoveMember(ctx context.Context, accountID, memberID string) error

	GetInvitations(ctx context.Context) (json.RawMessage, error)
	AcceptInvitation(ctx context.Context, inviteID string) error
	RejectInvitation(ctx context.Context, inviteID string) error

	GetNotifications(ctx context.Context) (json.RawMessage, error)
	MarkNotificationRead(ctx context.Context, id string) error
	MarkAllNotificationsRead(ctx context.Context) error

	GetTransactions(ctx context.Context, accountID string) (json.RawMessage, error)
	GetSummary(ctx context.Context, accountID string) (json.RawMessage, error)
	CreateTransaction(ctx context.Context, accountID string, in models.TransactionInput) (json.RawMessage, error)
	UpdateTransaction(ctx context.Context, accountID, id string, in models.TransactionInput) (json.RawMessage, error)
	DeleteTransaction(ctx context.Context, accountID, id string) error
}

// InviteRequest invites a user, by username or email, into a shared account.
type InviteRequest struct {
	Username    string
	Permissions models.Permissions
}

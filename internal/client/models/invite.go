package models

import (
	"encoding/json"
	"strings"
	"time"
)

// Invite is a pending invitation for the current user to join an account.
type Invite struct {
	ID          string       `json:"id"`
	AccountID   string       `json:"accountId,omitempty"`
	AccountName string       `json:"accountName"`
	InvitedBy   string       `json:"invitedBy"`
	Permissions Permissions  `json:"permissions"`
	Status      MemberStatus `json:"status"`
	CreatedAt   time.Time    `json:"createdAt"`
}

// DecodeInvitations normalizes an invitation-list payload.
func DecodeInvitations(raw json.RawMessage) []Invite {
	items, _ := splitList(raw, "invitations")
	out := make([]Invite, 0, len(items))
	for _, item := range items {
		r, ok := asRecord(item)
		if !ok {
			continue
		}
		inv := Invite{
			ID:          r.str("id", "pk"),
			AccountID:   r.str("accountId", "account_id", "account"),
			AccountName: r.str("accountName", "account_name"),
			InvitedBy:   r.name("invitedBy", "invited_by"),
			Permissions: decodePermissions(r),
			Status:      MemberStatus(strings.ToUpper(r.str("status"))),
			CreatedAt:   r.timestamp("createdAt", "created_at", "invited_at"),
		}
		if inv.AccountName == "" {
			if v, ok := r.field("account"); ok {
				if acc, ok := asRecord(v); ok {
					inv.AccountName = acc.str("accountName", "account_name", "name")
				}
			}
		}
		if inv.Status == "" {
			inv.Status = StatusPending
		}
		if inv.ID == "" {
			continue
		}
		out = append(out, inv)
	}
	return out
}

// RemoveInvite returns invites without id. The input is not modified.
func RemoveInvite(invites []Invite, id string) []Invite {
	out := make([]Invite, 0, len(invites))
	for _, inv := range invites {
		if inv.ID != id {
			out = append(out, inv)
		}
	}
	return out
}

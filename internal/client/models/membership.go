package models

import (
	"encoding/json"
	"strings"
)

type Role string

const (
	RoleOwner  Role = "OWNER"
	RoleMember Role = "MEMBER"
)

type MemberStatus string

const (
	StatusAccepted MemberStatus = "ACCEPTED"
	StatusPending  MemberStatus = "PENDING"
	StatusRejected MemberStatus = "REJECTED"
	StatusInvited  MemberStatus = "INVITED"
)

// Permissions are the per-member capability flags of a shared account.
type Permissions struct {
	CanAddEntry       bool `json:"canAddEntry"`
	CanEditOwnEntry   bool `json:"canEditOwnEntry"`
	CanEditAllEntries bool `json:"canEditAllEntries"`
	CanDeleteEntry    bool `json:"canDeleteEntry"`
}

// FullPermissions has every flag set.
var FullPermissions = Permissions{CanAddEntry: true, CanEditOwnEntry: true, CanEditAllEntries: true, CanDeleteEntry: true}

// Action is a permission-gated operation on a shared account.
type Action string

const (
	ActionAddEntry      Action = "add_entry"
	ActionEditOwnEntry  Action = "edit_own_entry"
	ActionEditAnyEntry  Action = "edit_all_entries"
	ActionDeleteEntry   Action = "delete_entry"
	ActionManageMembers Action = "manage_members"
)

// Membership is a user's relationship to one shared account.
type Membership struct {
	ID          string       `json:"id"`
	AccountID   string       `json:"accountId"`
	UserID      string       `json:"userId"`
	Username    string       `json:"username,omitempty"`
	Role        Role         `json:"role"`
	Status      MemberStatus `json:"status"`
	Permissions Permissions  `json:"permissions"`
}

// Can evaluates a against the membership. Owners may do anything; other
// members need an accepted status and the matching flag.
func (m Membership) Can(a Action) bool {
	if m.Role == RoleOwner {
		return true
	}
	if m.Status != StatusAccepted {
		return false
	}
	switch a {
	case ActionAddEntry:
		return m.Permissions.CanAddEntry
	case ActionEditOwnEntry:
		return m.Permissions.CanEditOwnEntry || m.Permissions.CanEditAllEntries
	case ActionEditAnyEntry:
		return m.Permissions.CanEditAllEntries
	case ActionDeleteEntry:
		return m.Permissions.CanDeleteEntry
	default:
		return false
	}
}

// DecodeMembers normalizes a member-list payload for accountID. Records
// without their own account reference inherit accountID.
func DecodeMembers(raw json.RawMessage, accountID string) []Membership {
	items, _ := splitList(raw, "members")
	out := make([]Membership, 0, len(items))
	for _, item := range items {
		r, ok := asRecord(item)
		if !ok {
			continue
		}
		m := decodeMembership(r)
		if m.AccountID == "" {
			m.AccountID = accountID
		}
		out = append(out, m)
	}
	return out
}

// FindMember returns the membership of userID, if any.
func FindMember(members []Membership, userID string) (Membership, bool) {
	if userID == "" {
		return Membership{}, false
	}
	for _, m := range members {
		if m.UserID == userID {
			return m, true
		}
	}
	return Membership{}, false
}

func decodeMembership(r record) Membership {
	m := Membership{
		ID:          r.str("id", "pk"),
		AccountID:   r.str("accountId", "account_id", "account"),
		UserID:      r.str("userId", "user_id", "user"),
		Username:    r.name("username", "user_name", "user"),
		Role:        Role(strings.ToUpper(r.str("role"))),
		Status:      MemberStatus(strings.ToUpper(r.str("status"))),
		Permissions: decodePermissions(r),
	}
	if m.Username == m.UserID {
		m.Username = r.str("username", "email")
	}
	if m.Role == "" {
		m.Role = RoleMember
	}
	if m.Status == "" {
		m.Status = StatusPending
	}
	return m
}

// decodePermissions reads a nested permissions object when present and the
// flattened flags otherwise.
func decodePermissions(r record) Permissions {
	src := r
	if v, ok := r.field("permissions"); ok {
		if nested, ok := asRecord(v); ok {
			src = nested
		}
	}
	return Permissions{
		CanAddEntry:       src.boolean("canAddEntry", "can_add_entry"),
		CanEditOwnEntry:   src.boolean("canEditOwnEntry", "can_edit_own_entry"),
		CanEditAllEntries: src.boolean("canEditAllEntries", "can_edit_all_entries"),
		CanDeleteEntry:    src.boolean("canDeleteEntry", "can_delete_entry"),
	}
}

// PermissionsPayload is the snake_case body the backend accepts.
func (p Permissions) PermissionsPayload() map[string]bool {
	return map[string]bool{
		"can_add_entry":        p.CanAddEntry,
		"can_edit_own_entry":   p.CanEditOwnEntry,
		"can_edit_all_entries": p.CanEditAllEntries,
		"can_delete_entry":     p.CanDeleteEntry,
	}
}

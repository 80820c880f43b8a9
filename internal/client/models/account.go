package models

import (
	"encoding/json"
	"strings"
	"time"
)

// PersonalAccountID is the id of the synthetic per-user personal account.
const PersonalAccountID = "personal"

// Account is one entry of the account list. The personal account is always
// built locally; shared accounts come from the backend.
type Account struct {
	ID          string    `json:"id"`
	AccountName string    `json:"accountName"`
	OwnerID     string    `json:"ownerId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// IsPersonal reports whether a is the personal scope.
func (a Account) IsPersonal() bool {
	return IsPersonalID(a.ID)
}

// IsPersonalID treats the empty id and "personal" as the personal scope.
func IsPersonalID(id string) bool {
	return id == "" || id == PersonalAccountID
}

// NewPersonalAccount synthesizes the personal account for ownerID.
func NewPersonalAccount(ownerID string, now time.Time) Account {
	return Account{
		ID:          PersonalAccountID,
		AccountName: "Personal",
		OwnerID:     ownerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// AccountList is the decoded accounts payload: an optional personal record
// reported by the backend and the shared accounts.
type AccountList struct {
	Personal *Account
	Shared   []Account
	Shape    ListShape
}

// DecodeAccounts normalizes an accounts payload. Records with an empty id
// or the personal id, or flagged as personal, never land in Shared.
func DecodeAccounts(raw json.RawMessage) AccountList {
	items, shape := splitList(raw, "accounts")
	out := AccountList{Shape: shape, Shared: []Account{}}
	for _, item := range items {
		r, ok := asRecord(item)
		if !ok {
			continue
		}
		a := decodeAccount(r)
		personal := r.boolean("is_personal", "isPersonal") ||
			strings.EqualFold(r.str("type", "account_type", "accountType"), PersonalAccountID)
		if personal || a.ID == PersonalAccountID {
			if out.Personal == nil {
				p := a
				p.ID = PersonalAccountID
				if p.AccountName == "" {
					p.AccountName = "Personal"
				}
				out.Personal = &p
			}
			continue
		}
		if a.ID == "" {
			continue
		}
		out.Shared = append(out.Shared, a)
	}
	return out
}

// DecodeAccount normalizes a single account object, e.g. a create response.
func DecodeAccount(raw json.RawMessage) (Account, bool) {
	r, ok := unwrapObject(raw)
	if !ok {
		return Account{}, false
	}
	if v, ok := r.field("account"); ok {
		if inner, ok := asRecord(v); ok {
			r = inner
		}
	}
	a := decodeAccount(r)
	return a, a.ID != ""
}

func decodeAccount(r record) Account {
	return Account{
		ID:          r.str("id", "pk", "account_id", "accountId"),
		AccountName: r.str("accountName", "account_name", "name"),
		OwnerID:     r.str("ownerId", "owner_id", "owner", "created_by", "createdBy"),
		CreatedAt:   r.timestamp("createdAt", "created_at"),
		UpdatedAt:   r.timestamp("updatedAt", "updated_at"),
	}
}

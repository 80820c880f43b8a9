package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlexBool(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{`true`, true},
		{`"true"`, true},
		{`1`, true},
		{`"1"`, true},
		{`false`, false},
		{`"false"`, false},
		{`0`, false},
		{`"0"`, false},
		{`null`, false},
		{`"yes"`, false},
		{`2`, false},
		{`{}`, false},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, FlexBool(json.RawMessage(tc.in)))
		})
	}
}

func TestDecodeNotifications_ReadFlag(t *testing.T) {
	raw := json.RawMessage(`[
		{"id": 1, "read": "1", "timestamp": "2024-01-01T10:00:00Z"},
		{"id": 2, "read": null, "timestamp": "2024-01-01T11:00:00Z"},
		{"id": 3, "is_read": 0, "timestamp": "2024-01-01T09:00:00Z"}
	]`)
	got := DecodeNotifications(raw)
	require.Len(t, got, 3)

	byID := map[string]bool{}
	for _, n := range got {
		byID[n.ID] = n.Read
	}
	assert.True(t, byID["1"])
	assert.False(t, byID["2"])
	assert.False(t, byID["3"])
	assert.Equal(t, 2, UnreadCount(got))
}

func TestDecodeNotifications_SortedNewestFirst(t *testing.T) {
	raw := json.RawMessage(`{"notifications": [
		{"id": "a", "created_at": "2024-01-01T09:00:00Z"},
		{"id": "b", "created_at": "2024-01-03T09:00:00Z"},
		{"id": "c", "created_at": "2024-01-02T09:00:00Z"}
	]}`)
	got := DecodeNotifications(raw)
	ids := make([]string, 0, len(got))
	for _, n := range got {
		ids = append(ids, n.ID)
	}
	assert.Equal(t, []string{"b", "c", "a"}, ids)
}

func TestDecodeNotifications_Shapes(t *testing.T) {
	cases := map[string]struct {
		raw  string
		want int
	}{
		"array":         {`[{"id":1}]`, 1},
		"data":          {`{"data":[{"id":1},{"id":2}]}`, 2},
		"named":         {`{"notifications":[{"id":1}]}`, 1},
		"unknown shape": {`{"items":[{"id":1}]}`, 0},
		"scalar":        {`"oops"`, 0},
		"invalid":       {`{`, 0},
		"empty":         {``, 0},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			got := DecodeNotifications(json.RawMessage(tc.raw))
			require.NotNil(t, got)
			assert.Len(t, got, tc.want)
		})
	}
}

func TestDecodeAccounts_Shapes(t *testing.T) {
	cases := map[string]struct {
		raw   string
		shape ListShape
	}{
		"bare array": {`[{"id":7,"account_name":"Family"}]`, ShapeArray},
		"data":       {`{"data":[{"id":"7","accountName":"Family"}]}`, ShapeData},
		"named":      {`{"accounts":[{"id":"7","name":"Family"}]}`, ShapeNamed},
		"envelope":   {`{"success":true,"data":[{"id":"7","accountName":"Family"}]}`, ShapeEnvelope},
		"nested":     {`{"success":true,"data":{"accounts":[{"id":"7","accountName":"Family"}]}}`, ShapeEnvelope},
		"results":    {`{"count":1,"results":[{"id":"7","accountName":"Family"}]}`, ShapeResults},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			got := DecodeAccounts(json.RawMessage(tc.raw))
			assert.Equal(t, tc.shape, got.Shape)
			require.Len(t, got.Shared, 1)
			assert.Equal(t, "7", got.Shared[0].ID)
			assert.Equal(t, "Family", got.Shared[0].AccountName)
			assert.Nil(t, got.Personal)
		})
	}
}

func TestDecodeAccounts_FiltersPersonalAndEmpty(t *testing.T) {
	raw := json.RawMessage(`[
		{"id":"personal","accountName":"Mine","owner_id":3},
		{"id":"","accountName":"Ghost"},
		{"accountName":"No id"},
		{"id":9,"is_personal":true,"accountName":"Also personal"},
		{"id":"12","accountName":"Trip","owner":{"id":4}}
	]`)
	got := DecodeAccounts(raw)

	require.NotNil(t, got.Personal)
	assert.Equal(t, PersonalAccountID, got.Personal.ID)
	assert.Equal(t, "Mine", got.Personal.AccountName)
	assert.Equal(t, "3", got.Personal.OwnerID)

	require.Len(t, got.Shared, 1)
	assert.Equal(t, "12", got.Shared[0].ID)
	assert.Equal(t, "4", got.Shared[0].OwnerID)
}

func TestDecodeAccounts_UnknownShapeFailsClosed(t *testing.T) {
	got := DecodeAccounts(json.RawMessage(`{"error":"nope"}`))
	assert.Equal(t, ShapeUnknown, got.Shape)
	assert.NotNil(t, got.Shared)
	assert.Empty(t, got.Shared)
}

func TestDecodeMembers_NormalizesNamingConventions(t *testing.T) {
	raw := json.RawMessage(`{"members":[
		{"id":1,"user":{"id":5,"username":"ann"},"role":"owner","status":"accepted"},
		{"id":2,"user_id":6,"role":"MEMBER","status":"ACCEPTED",
		 "permissions":{"can_add_entry":true,"canEditOwnEntry":"1","can_delete_entry":0}},
		{"id":3,"userId":"7","role":"member","status":"pending","canAddEntry":true}
	]}`)
	got := DecodeMembers(raw, "42")

	want := []Membership{
		{ID: "1", AccountID: "42", UserID: "5", Username: "ann", Role: RoleOwner, Status: StatusAccepted},
		{ID: "2", AccountID: "42", UserID: "6", Role: RoleMember, Status: StatusAccepted,
			Permissions: Permissions{CanAddEntry: true, CanEditOwnEntry: true}},
		{ID: "3", AccountID: "42", UserID: "7", Role: RoleMember, Status: StatusPending,
			Permissions: Permissions{CanAddEntry: true}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("members mismatch (-want +got):\n%s", diff)
	}

	m, ok := FindMember(got, "6")
	require.True(t, ok)
	assert.Equal(t, "2", m.ID)
	_, ok = FindMember(got, "99")
	assert.False(t, ok)
	_, ok = FindMember(got, "")
	assert.False(t, ok)
}

func TestMembership_Can(t *testing.T) {
	owner := Membership{Role: RoleOwner, Status: StatusPending}
	assert.True(t, owner.Can(ActionManageMembers))
	assert.True(t, owner.Can(ActionDeleteEntry))

	member := Membership{Role: RoleMember, Status: StatusAccepted, Permissions: Permissions{CanAddEntry: true, CanEditAllEntries: true}}
	assert.True(t, member.Can(ActionAddEntry))
	assert.True(t, member.Can(ActionEditOwnEntry))
	assert.True(t, member.Can(ActionEditAnyEntry))
	assert.False(t, member.Can(ActionDeleteEntry))
	assert.False(t, member.Can(ActionManageMembers))

	pending := Membership{Role: RoleMember, Status: StatusPending, Permissions: FullPermissions}
	assert.False(t, pending.Can(ActionAddEntry))
}

func TestDecodeMembers_MissingStatusGrantsNothing(t *testing.T) {
	got := DecodeMembers(json.RawMessage(`[
		{"id":1,"user":5,"role":"member","can_add_entry":true,"can_delete_entry":true},
		{"id":2,"user":6,"role":"owner"}
	]`), "42")
	require.Len(t, got, 2)

	assert.Equal(t, StatusPending, got[0].Status)
	assert.False(t, got[0].Can(ActionAddEntry))
	assert.False(t, got[0].Can(ActionDeleteEntry))

	assert.Equal(t, StatusPending, got[1].Status)
	assert.True(t, got[1].Can(ActionManageMembers), "owners keep full rights")
}

func TestDecodeInvitations(t *testing.T) {
	raw := json.RawMessage(`[
		{"id":11,"account":{"id":7,"account_name":"Family"},"invited_by":{"username":"bob"},"can_add_entry":true},
		{"id":12,"accountName":"Trip","invitedBy":"carol","status":"invited","created_at":"2024-02-01"},
		{"accountName":"no id"}
	]`)
	got := DecodeInvitations(raw)
	require.Len(t, got, 2)

	assert.Equal(t, "Family", got[0].AccountName)
	assert.Equal(t, "7", got[0].AccountID)
	assert.Equal(t, "bob", got[0].InvitedBy)
	assert.Equal(t, StatusPending, got[0].Status)
	assert.True(t, got[0].Permissions.CanAddEntry)

	assert.Equal(t, "carol", got[1].InvitedBy)
	assert.Equal(t, StatusInvited, got[1].Status)
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), got[1].CreatedAt)

	left := RemoveInvite(got, "11")
	require.Len(t, left, 1)
	assert.Equal(t, "12", left[0].ID)
	assert.Len(t, got, 2)
}

func TestDecodeTransactionsAndSummary(t *testing.T) {
	raw := json.RawMessage(`{"results":[
		{"id":1,"type":"INCOME","amount":"100.50","date":"2024-03-01"},
		{"id":2,"transaction_type":"expense","amount":20.25,"category":{"name":"Food"}},
		{"type":"expense","amount":"1"}
	]}`)
	ts := DecodeTransactions(raw)
	require.Len(t, ts, 2)
	assert.Equal(t, Income, ts[0].Type)
	assert.True(t, ts[0].Amount.Equal(decimal.RequireFromString("100.50")))
	assert.Equal(t, "Food", ts[1].Category)

	s := Summarize(ts)
	assert.True(t, s.Balance.Equal(decimal.RequireFromString("80.25")), s.Balance.String())
	assert.Equal(t, 2, s.Count)

	got, ok := DecodeSummary(json.RawMessage(`{"data":{"total_income":"10","total_expense":"4.5"}}`))
	require.True(t, ok)
	assert.True(t, got.Balance.Equal(decimal.RequireFromString("5.5")))

	got, ok = DecodeSummary(json.RawMessage(`{"income":1,"expense":2,"balance":"-7"}`))
	require.True(t, ok)
	assert.True(t, got.Balance.Equal(decimal.NewFromInt(-7)))
}

func TestDecodeUser(t *testing.T) {
	u, ok := DecodeUser(json.RawMessage(`{"success":true,"data":{"user":{"id":5,"username":"ann","first_name":"Ann"}}}`))
	require.True(t, ok)
	assert.Equal(t, User{ID: "5", Username: "ann", FirstName: "Ann"}, u)

	_, ok = DecodeUser(json.RawMessage(`[]`))
	assert.False(t, ok)
}

func TestFlexTime(t *testing.T) {
	want := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	for _, in := range []string{`"2024-01-02T03:04:05Z"`, `"2024-01-02T03:04:05"`, `"2024-01-02 03:04:05"`, `1704164645`, `1704164645000`, `"1704164645"`} {
		assert.True(t, want.Equal(flexTime(json.RawMessage(in))), in)
	}
	assert.True(t, flexTime(json.RawMessage(`"garbage"`)).IsZero())
}

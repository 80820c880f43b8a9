package models

import (
	"encoding/json"
	"sort"
	"time"
)

// Notification is one feed entry, from a fetch or a real-time push.
type Notification struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"`
	Title       string          `json:"title"`
	Message     string          `json:"message"`
	AccountID   string          `json:"accountId,omitempty"`
	AccountName string          `json:"accountName,omitempty"`
	TriggeredBy string          `json:"triggeredBy"`
	Read        bool            `json:"read"`
	Timestamp   time.Time       `json:"timestamp"`
	Data        json.RawMessage `json:"data,omitempty"`
}

// DecodeNotifications normalizes a notification-list payload and returns it
// sorted newest first.
func DecodeNotifications(raw json.RawMessage) []Notification {
	items, _ := splitList(raw, "notifications")
	out := make([]Notification, 0, len(items))
	for _, item := range items {
		if n, ok := DecodeNotification(item); ok {
			out = append(out, n)
		}
	}
	SortNewestFirst(out)
	return out
}

// DecodeNotification normalizes one notification object. The id may be
// empty for pushed events; callers assign one.
func DecodeNotification(raw json.RawMessage) (Notification, bool) {
	r, ok := asRecord(raw)
	if !ok {
		return Notification{}, false
	}
	n := Notification{
		ID:          r.str("id", "pk", "notification_id"),
		Type:        r.str("type", "notification_type", "notificationType"),
		Title:       r.str("title"),
		Message:     r.str("message", "body"),
		AccountID:   r.str("accountId", "account_id", "account"),
		AccountName: r.str("accountName", "account_name"),
		TriggeredBy: r.name("triggeredBy", "triggered_by", "actor"),
		Read:        r.boolean("read", "is_read", "isRead"),
		Timestamp:   r.timestamp("timestamp", "createdAt", "created_at"),
	}
	if v, ok := r.field("data"); ok {
		n.Data = append(json.RawMessage(nil), v...)
	}
	return n, true
}

// SortNewestFirst orders ns by descending timestamp, keeping the relative
// order of equal timestamps.
func SortNewestFirst(ns []Notification) {
	sort.SliceStable(ns, func(i, j int) bool {
		return ns[i].Timestamp.After(ns[j].Timestamp)
	})
}

// UnreadCount counts unread entries.
func UnreadCount(ns []Notification) int {
	n := 0
	for _, x := range ns {
		if !x.Read {
			n++
		}
	}
	return n
}

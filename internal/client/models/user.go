package models

import "encoding/json"

// User is the authenticated user's profile.
type User struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email,omitempty"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
}

// DecodeUser normalizes a profile payload, which may be wrapped in "data"
// or "user".
func DecodeUser(raw json.RawMessage) (User, bool) {
	r, ok := unwrapObject(raw)
	if !ok {
		return User{}, false
	}
	if v, ok := r.field("user"); ok {
		if inner, ok := asRecord(v); ok {
			r = inner
		}
	}
	u := User{
		ID:        r.str("id", "pk", "user_id", "userId"),
		Username:  r.str("username", "email"),
		Email:     r.str("email"),
		FirstName: r.str("firstName", "first_name"),
		LastName:  r.str("lastName", "last_name"),
	}
	return u, u.ID != "" || u.Username != ""
}

// Package models holds the canonical client-side shapes (accounts,
// memberships, invitations, notifications, transactions, users) and the
// boundary functions that turn loosely-shaped API payloads into them.
//
// Every Decode* function accepts the wire variants the backend is known to
// emit (camelCase or snake_case keys, numeric or string ids, nested or
// flattened permission flags, bare arrays or wrapped lists) and fails closed:
// an unrecognised list shape yields an empty list, never an error. Code past
// this boundary never branches on naming convention.
package models

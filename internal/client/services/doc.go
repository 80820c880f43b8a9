// Package services contains the client's sync engines.
//
// AccountService keeps exactly one current account and a consistent account
// list across restarts, logins and backend outages. NotificationService
// reconciles polled, pushed and cached notifications into one newest-first
// feed. TransactionService reads through the cache and invalidates exactly
// the scope its mutations touch.
//
// Passive refreshes (RefreshAccounts, RefreshInvitations,
// RefreshNotifications) never fail: every error class resolves to a safe
// fallback state. User-initiated mutations return *MutationError carrying
// the backend's message.
package services

// Package cli provides the interactive cashbook command-line client.
//
// It wires configuration, the durable store, the HTTP API client and the
// sync engines, then runs a REPL over them. A stored or configured token
// restores the session on start; otherwise the user logs in with "login".
//
// Key features:
//   - Login / Logout
//   - Accounts: list, switch, create, members, invitations
//   - Notifications: feed, mark read, polled with optional AMQP push
//   - Transactions: list, summary, add, delete in the current account
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli

// Package domain contains core concepts of the chat relay.
// No runtime, network, or UI logic should be added here.
package domain

// Claims are the identity fields extracted from a verified token.
// They are attached to a connection at accept time and never mutated:
// every message and presence event a connection produces carries the
// identity found here, not anything the client sends later.
type Claims struct {
	ID       string
	Username string
}

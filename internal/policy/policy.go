// Package policy decides what an authenticated identity may see or change.
// Everything here is pure: no I/O, no clock.
package policy

import "github.com/thereayou/messagely/internal/models"

// Identity is the username an authenticated request acts as.
type Identity string

func (i Identity) String() string { return string(i) }

func (i Identity) Valid() bool { return i != "" }

// CanViewMessage reports whether actor is the sender or the recipient of m.
func CanViewMessage(actor Identity, m *models.Message) bool {
	if !actor.Valid() || m == nil {
		return false
	}
	return string(actor) == m.FromUsername || string(actor) == m.ToUsername
}

// CanMarkRead reports whether actor is the recipient of m and not also its sender.
// A message sent to oneself can never be marked read.
func CanMarkRead(actor Identity, m *models.Message) bool {
	if !actor.Valid() || m == nil {
		return false
	}
	return string(actor) == m.ToUsername && string(actor) != m.FromUsername
}

func CanViewUserDetail(actor Identity, target string) bool {
	return actor.Valid() && string(actor) == target
}

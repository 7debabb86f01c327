// Package access provides the single-admin capability check that gates
// round reconfiguration.
package access

import (
	"errors"
	"sync"
)

var (
	// ErrUnauthorized is returned when a caller lacks the admin capability.
	ErrUnauthorized = errors.New("caller is not the administrator")

	// ErrEmptyIdentity is returned when an admin transfer names nobody.
	ErrEmptyIdentity = errors.New("new admin identity must not be empty")
)

// Guard holds the current administrator identity. Exactly one identity
// holds the capability at a time; the holder may hand it to a new
// non-empty identity.
type Guard struct {
	mu    sync.RWMutex
	admin string
}

// NewGuard creates a guard with the given initial administrator.
func NewGuard(admin string) *Guard {
	return &Guard{admin: admin}
}

// IsAdmin reports whether identity currently holds the capability.
func (g *Guard) IsAdmin(identity string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return identity != "" && identity == g.admin
}

// Admin returns the current administrator identity.
func (g *Guard) Admin() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.admin
}

// Transfer hands the capability from caller to newAdmin.
func (g *Guard) Transfer(caller, newAdmin string) error {
	if newAdmin == "" {
		return ErrEmptyIdentity
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if caller != g.admin {
		return ErrUnauthorized
	}
	g.admin = newAdmin
	return nil
}

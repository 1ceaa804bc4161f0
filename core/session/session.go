// Package session carries the signed-in identity explicitly through the
// console. A command declares the capability it needs and the guard checks
// that the session holds it; role names only matter when the capability set
// is derived.
//
// The guard decides what the console offers. The backend still enforces
// access on every request.
package session

import (
	"errors"
	"fmt"
	"slices"
)

var (
	// ErrLoginRequired is returned when there is no signed-in session.
	ErrLoginRequired = errors.New("login required")
	// ErrAccessDenied is returned when the session lacks a capability.
	ErrAccessDenied = errors.New("access denied")
)

// Role is the role string the backend assigns to a user.
type Role string

// Roles known to the backend.
const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Capability names one thing a session may do.
type Capability string

// Capabilities used by the console.
const (
	ManageUsers    Capability = "users:manage"
	ManageTasks    Capability = "tasks:manage"
	ViewStats      Capability = "stats:view"
	ViewOwnTasks   Capability = "tasks:own:view"
	UpdateOwnTasks Capability = "tasks:own:update"
)

// CapabilitySet is a set of capabilities.
type CapabilitySet map[Capability]struct{}

// NewCapabilitySet builds a set from caps.
func NewCapabilitySet(caps ...Capability) CapabilitySet {
	set := make(CapabilitySet, len(caps))
	for _, c := range caps {
		set[c] = struct{}{}
	}
	return set
}

// Has reports whether c is in the set.
func (s CapabilitySet) Has(c Capability) bool {
	_, ok := s[c]
	return ok
}

// Contains reports whether every capability in other is in s.
func (s CapabilitySet) Contains(other CapabilitySet) bool {
	for c := range other {
		if !s.Has(c) {
			return false
		}
	}
	return true
}

// List returns the capabilities in sorted order.
func (s CapabilitySet) List() []Capability {
	out := make([]Capability, 0, len(s))
	for c := range s {
		out = append(out, c)
	}
	slices.Sort(out)
	return out
}

var roleCapabilities = map[Role]CapabilitySet{
	RoleAdmin: NewCapabilitySet(ManageUsers, ManageTasks, ViewStats, ViewOwnTasks, UpdateOwnTasks),
	RoleUser:  NewCapabilitySet(ViewOwnTasks, UpdateOwnTasks),
}

// CapabilitiesFor returns the capability set granted to role. Unknown roles
// get an empty set.
func CapabilitiesFor(role Role) CapabilitySet {
	if caps, ok := roleCapabilities[role]; ok {
		return caps
	}
	return CapabilitySet{}
}

// Cookie is a session cookie issued by the backend.
type Cookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Session is the signed-in identity.
type Session struct {
	UserID   int64    `json:"user_id"`
	Username string   `json:"username"`
	Fullname string   `json:"fullname,omitempty"`
	Email    string   `json:"email,omitempty"`
	Role     Role     `json:"role"`
	Cookies  []Cookie `json:"cookies,omitempty"`
}

// Capabilities returns the capabilities held by the session.
func (s *Session) Capabilities() CapabilitySet {
	if s == nil {
		return CapabilitySet{}
	}
	return CapabilitiesFor(s.Role)
}

// Can reports whether the session holds c.
func (s *Session) Can(c Capability) bool {
	return s.Capabilities().Has(c)
}

// Require checks that s is signed in and holds every capability in caps.
func Require(s *Session, caps ...Capability) error {
	if s == nil {
		return ErrLoginRequired
	}
	held := s.Capabilities()
	for _, c := range caps {
		if !held.Has(c) {
			return fmt.Errorf("%w: %s requires %s", ErrAccessDenied, s.Username, c)
		}
	}
	return nil
}

// Copyright (c) 2026 Flow Immersive. All rights reserved.
// Author: Flow Immersive Engineering

/*
Package identity is the session store behind the admin area.

It authenticates email/password pairs, issues sessions bound to a user
identity and revokes them. The authorization layer consumes it only through
its session contract (sign-up, sign-in, sign-out, get-session and a change
notification stream), the same shape a hosted identity provider would offer.

Architecture:

  - Provider: server-wide service owning accounts (PostgreSQL) and sessions (Redis).
  - Client: one per browser session, holding the session token and emitting
    auth state change events to its listeners.
*/
package identity

import (
	"context"
	"time"

	"github.com/flowimmersive/flowsite/internal/platform/apperr"
)

// # Errors

var (
	// ErrInvalidCredentials is returned for any unknown email or wrong password.
	ErrInvalidCredentials = apperr.Unauthorized("Invalid login credentials")

	// ErrUserExists is returned when signing up with an email that already has an account.
	ErrUserExists = apperr.Conflict("User already registered")

	// ErrSessionNotFound means the token is unknown, expired or revoked.
	ErrSessionNotFound = apperr.Unauthorized("Session not found")
)

// MinPasswordLength is the shortest password accepted at sign-up.
const MinPasswordLength = 6

// # Entities

// Metadata is auxiliary identity data supplied at sign-up.
type Metadata struct {
	FullName string `json:"full_name,omitempty"`
}

// Account is a stored credential record.
type Account struct {
	ID           string
	Email        string
	PasswordHash string
	Metadata     Metadata
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Session is a live authenticated identity.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Metadata  Metadata  `json:"metadata"`
	ExpiresAt time.Time `json:"expires_at"`

	// AccessToken is the bearer credential; never persisted or serialized.
	AccessToken string `json:"-"`
}

// Scope selects which sessions a sign-out revokes.
type Scope string

const (
	// ScopeGlobal revokes every session of the user.
	ScopeGlobal Scope = "global"
	// ScopeLocal revokes only the current session.
	ScopeLocal Scope = "local"
	// ScopeOthers revokes every session except the current one.
	ScopeOthers Scope = "others"
)

// # Change Notifications

// EventKind names an auth state change.
type EventKind string

const (
	EventSignedIn  EventKind = "SIGNED_IN"
	EventSignedOut EventKind = "SIGNED_OUT"
)

// Event is delivered to listeners on every auth state change.
// Session is nil for [EventSignedOut].
type Event struct {
	Kind    EventKind
	Session *Session
}

// Listener receives auth state changes. It is called synchronously by the
// operation that caused the change, with that operation's context.
type Listener func(ctx context.Context, event Event)

// Subscription detaches a listener.
type Subscription interface {
	Unsubscribe()
}

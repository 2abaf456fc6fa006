// Copyright (c) 2026 Flow Immersive. All rights reserved.
// Author: Flow Immersive Engineering

package identity

import (
	"context"
	"time"
)

// # Account Data Access

// AccountRepository defines the data access contract for credential records.
type AccountRepository interface {

	/*
		Create persists a new account.

		Returns:
		  - error: [ErrUserExists] when the email is taken, storage errors otherwise
	*/
	Create(ctx context.Context, account *Account) error

	/*
		FindByEmail returns the account registered under email.

		Returns:
		  - *Account: Hydrated entity
		  - error: [ErrInvalidCredentials] when no account matches
	*/
	FindByEmail(ctx context.Context, email string) (*Account, error)
}

// # Session Data Access

// SessionRepository defines the data access contract for server-side sessions.
type SessionRepository interface {

	// Save stores the session until ttl elapses.
	Save(ctx context.Context, session *Session, ttl time.Duration) error

	// Find returns a live session or [ErrSessionNotFound].
	Find(ctx context.Context, sessionID string) (*Session, error)

	// Delete revokes one session of userID.
	Delete(ctx context.Context, userID, sessionID string) error

	// DeleteAllForUser revokes every session of userID except keepSessionID ("" keeps none).
	DeleteAllForUser(ctx context.Context, userID, keepSessionID string) error
}

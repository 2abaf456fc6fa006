// Copyright (c) 2026 Flow Immersive. All rights reserved.
// Author: Flow Immersive Engineering

package auth

import (
	"context"

	"github.com/flowimmersive/flowsite/internal/users/identity"
)

// # Session Store Contract

// SessionStore is the identity provider as seen by the controller.
type SessionStore interface {
	GetSession(ctx context.Context) (*identity.Session, error)
	SignUp(ctx context.Context, email, password string, metadata identity.Metadata) (*identity.Session, error)
	SignIn(ctx context.Context, email, password string) (*identity.Session, error)
	SignOut(ctx context.Context, scope identity.Scope) error
	OnAuthStateChange(listener identity.Listener) identity.Subscription
}

// SessionClient is a SessionStore that also exposes its token for the
// transport layer to persist.
type SessionClient interface {
	SessionStore
	Token() string
}

// # Profile Store Contract

// ProfileStore defines the data access contract for user profiles.
type ProfileStore interface {

	/*
		SelectByID returns the profile of the given user.

		Returns:
		  - *Profile: Validated entity
		  - error: ErrProfileNotFound, ErrInvalidProfile, or storage errors
	*/
	SelectByID(ctx context.Context, id string) (*Profile, error)

	/*
		Update applies patch to the profile in one statement and returns the new row.

		Returns:
		  - *Profile: The row as stored after the update
		  - error: ErrProfileNotFound, ErrRequestConflict (precondition failed), or storage errors
	*/
	Update(ctx context.Context, id string, patch ProfilePatch) (*Profile, error)

	/*
		Insert creates a profile unless one already exists, and returns the stored row.
	*/
	Insert(ctx context.Context, profile NewProfile) (*Profile, error)
}

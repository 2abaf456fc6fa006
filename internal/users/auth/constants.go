// Copyright (c) 2026 Flow Immersive. All rights reserved.
// Author: Flow Immersive Engineering

package auth

import "time"

// # Controller Defaults

const (
	// DefaultRetryDelay is the fixed pause between profile lookups that found nothing.
	DefaultRetryDelay = 1 * time.Second

	// DefaultMaxAttempts is the total number of profile lookups before giving up.
	DefaultMaxAttempts = 3

	// DefaultReconcileDelay is how long sign-up waits before checking the provisioned profile.
	DefaultReconcileDelay = 1500 * time.Millisecond

	// DefaultCallTimeout bounds every session and profile store call.
	DefaultCallTimeout = 30 * time.Second

	// PlaceholderFullName is what the provisioning trigger writes when no name was given.
	PlaceholderFullName = "Not provided"

	// MaxFullNameLength caps user-edited display names.
	MaxFullNameLength = 120
)

// # Request Fields

const (
	FieldEmail    = "email"
	FieldPassword = "password"
	FieldFullName = "full_name"
)

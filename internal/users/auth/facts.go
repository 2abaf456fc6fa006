// Copyright (c) 2026 Flow Immersive. All rights reserved.
// Author: Flow Immersive Engineering

package auth

import (
	"github.com/flowimmersive/flowsite/internal/platform/sec"
	"github.com/flowimmersive/flowsite/internal/users/identity"
)

// # Derived Authorization Facts

// Facts are pure functions of the current profile. They are recomputed on
// every change and never persisted.
type Facts struct {
	IsAdmin           bool `json:"is_admin"`
	IsSuperAdmin      bool `json:"is_super_admin"`
	HasRequestedAdmin bool `json:"has_requested_admin"`
	CanRequestAdmin   bool `json:"can_request_admin"`
}

// DeriveFacts computes the facts for profile. A nil profile yields all false.
func DeriveFacts(profile *Profile) Facts {
	if profile == nil {
		return Facts{}
	}

	approved := profile.IsAdminApproved
	return Facts{
		IsAdmin:           approved && profile.Role.IsAdminRole(),
		IsSuperAdmin:      approved && profile.Role == sec.RoleSuperAdmin,
		HasRequestedAdmin: profile.AdminRequestStatus == RequestPending,
		CanRequestAdmin:   profile.AdminRequestStatus == RequestNone,
	}
}

// # Authorization State

// State labels where a user stands in the access workflow.
type State string

const (
	StateUnauthenticated State = "unauthenticated"
	StateUnprovisioned   State = "unprovisioned"
	StateAnonymous       State = "anonymous"
	StatePending         State = "pending"
	StateApproved        State = "approved"
	StateRejected        State = "rejected"
)

// DeriveState maps the (session, profile) pair onto the workflow states.
//
// Approval is read from the boolean flag first, so a row with
// is_admin_approved = true reports approved whatever its request status.
func DeriveState(session *identity.Session, profile *Profile) State {
	switch {
	case session == nil:
		return StateUnauthenticated
	case profile == nil:
		return StateUnprovisioned
	case profile.IsAdminApproved:
		return StateApproved
	case profile.AdminRequestStatus == RequestPending:
		return StatePending
	case profile.AdminRequestStatus == RequestRejected:
		return StateRejected
	default:
		return StateAnonymous
	}
}

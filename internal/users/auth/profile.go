// Copyright (c) 2026 Flow Immersive. All rights reserved.
// Author: Flow Immersive Engineering

package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/flowimmersive/flowsite/internal/platform/sec"
)

// RequestStatus is the visible state of the admin access-request workflow.
//
// There is deliberately no "approved" value: approval lives only in
// [Profile.IsAdminApproved], and the status never grants access on its own.
type RequestStatus string

const (
	RequestNone     RequestStatus = "none"
	RequestPending  RequestStatus = "pending"
	RequestRejected RequestStatus = "rejected"
)

// ParseRequestStatus validates a raw status read from storage or the CLI.
func ParseRequestStatus(raw string) (RequestStatus, error) {
	switch status := RequestStatus(raw); status {
	case RequestNone, RequestPending, RequestRejected:
		return status, nil
	default:
		return "", fmt.Errorf("auth: unknown admin request status %q", raw)
	}
}

// Profile is the application-level record of a user's role and admin-access status.
//
// Profiles are treated as immutable values once loaded; updates produce a new row.
type Profile struct {
	ID                 string        `json:"id"`
	Email              string        `json:"email"`
	FullName           string        `json:"full_name"`
	Role               sec.UserRole  `json:"role"`
	IsAdminApproved    bool          `json:"is_admin_approved"`
	AdminRequestStatus RequestStatus `json:"admin_request_status"`
	AdminRequestedAt   *time.Time    `json:"admin_requested_at"`
	CreatedAt          time.Time     `json:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at"`
}

// Clone returns a copy that shares no pointers with p.
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	clone := *p
	if p.AdminRequestedAt != nil {
		requestedAt := *p.AdminRequestedAt
		clone.AdminRequestedAt = &requestedAt
	}
	return &clone
}

// NeedsRepair reports whether the row carries provisioning leftovers that the
// profile repair operation fixes.
func (p *Profile) NeedsRepair() bool {
	name := strings.TrimSpace(p.FullName)
	return name == "" || name == PlaceholderFullName
}

// RawProfile is a profile row exactly as stored, before enum validation.
type RawProfile struct {
	ID                 string
	Email              string
	FullName           *string
	Role               *string
	IsAdminApproved    bool
	AdminRequestStatus *string
	AdminRequestedAt   *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Validate converts a raw row into a [Profile], rejecting rows whose role or
// request status falls outside the known enums.
func (raw RawProfile) Validate() (*Profile, error) {
	if raw.Role == nil {
		return nil, fmt.Errorf("%w: role is null", ErrInvalidProfile)
	}
	role, err := sec.ParseRole(*raw.Role)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProfile, err)
	}

	if raw.AdminRequestStatus == nil {
		return nil, fmt.Errorf("%w: admin_request_status is null", ErrInvalidProfile)
	}
	status, err := ParseRequestStatus(*raw.AdminRequestStatus)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProfile, err)
	}

	profile := &Profile{
		ID:                 raw.ID,
		Email:              raw.Email,
		Role:               role,
		IsAdminApproved:    raw.IsAdminApproved,
		AdminRequestStatus: status,
		AdminRequestedAt:   raw.AdminRequestedAt,
		CreatedAt:          raw.CreatedAt,
		UpdatedAt:          raw.UpdatedAt,
	}
	if raw.FullName != nil {
		profile.FullName = *raw.FullName
	}
	return profile, nil
}

// NewProfile holds the fields needed to create a profile directly.
// Everything else takes the store's defaults (role user, status none, not approved).
type NewProfile struct {
	ID       string
	Email    string
	FullName string
}

// ProfilePatch is a partial update. Nil fields are left unchanged.
type ProfilePatch struct {
	FullName           *string
	Role               *sec.UserRole
	IsAdminApproved    *bool
	AdminRequestStatus *RequestStatus
	AdminRequestedAt   *time.Time
	ClearRequestedAt   bool

	// RepairFullName replaces the name only when it is blank or the placeholder.
	RepairFullName *string
	// RepairRequestStatus resets a null or unknown request status to "none";
	// a valid status is kept.
	RepairRequestStatus bool

	// IfRequestStatus makes the update conditional on the stored status.
	// A mismatch yields [ErrRequestConflict] and changes nothing.
	IfRequestStatus *RequestStatus
}

// IsEmpty reports whether the patch changes no column.
func (patch ProfilePatch) IsEmpty() bool {
	return patch.FullName == nil &&
		patch.Role == nil &&
		patch.IsAdminApproved == nil &&
		patch.AdminRequestStatus == nil &&
		patch.AdminRequestedAt == nil &&
		!patch.ClearRequestedAt &&
		patch.RepairFullName == nil &&
		!patch.RepairRequestStatus
}

// Apply returns a copy of p with the patch applied. A [Profile] always holds a
// valid request status, so RepairRequestStatus leaves it as is.
func (patch ProfilePatch) Apply(p *Profile, now time.Time) *Profile {
	next := p.Clone()
	if patch.FullName != nil {
		next.FullName = *patch.FullName
	}
	if patch.RepairFullName != nil && next.NeedsRepair() {
		next.FullName = *patch.RepairFullName
	}
	if patch.Role != nil {
		next.Role = *patch.Role
	}
	if patch.IsAdminApproved != nil {
		next.IsAdminApproved = *patch.IsAdminApproved
	}
	if patch.AdminRequestStatus != nil {
		next.AdminRequestStatus = *patch.AdminRequestStatus
	}
	if patch.ClearRequestedAt {
		next.AdminRequestedAt = nil
	}
	if patch.AdminRequestedAt != nil {
		requestedAt := *patch.AdminRequestedAt
		next.AdminRequestedAt = &requestedAt
	}
	next.UpdatedAt = now
	return next
}

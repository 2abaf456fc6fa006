// Copyright (c) 2026 Flow Immersive. All rights reserved.
// Author: Flow Immersive Engineering

package auth

import (
	"context"
	"errors"

	"github.com/flowimmersive/flowsite/internal/platform/apperr"
)

// # Store Errors

var (
	// ErrProfileNotFound is the profile store's "not found"; the controller treats it as transient.
	ErrProfileNotFound = errors.New("auth: profile not found")

	// ErrInvalidProfile marks a row whose role or request status is outside the known enums.
	ErrInvalidProfile = errors.New("auth: profile row violates the enum contract")

	// ErrRequestConflict means a conditional update found a different request status.
	ErrRequestConflict = errors.New("auth: admin request status changed concurrently")

	errUnbound = errors.New("auth: handler used outside Bind")
)

// # Controller Errors

const (
	CodeProfileUnavailable = "PROFILE_UNAVAILABLE"
	CodeProfileInvalid     = "PROFILE_INVALID"
	CodeSessionUnavailable = "SESSION_UNAVAILABLE"
)

var (
	// ErrNotAuthenticated is returned when an operation needs a session (and profile) that is absent.
	ErrNotAuthenticated = apperr.Unauthorized("Not authenticated")

	// ErrNotEligible is returned by RequestAdminAccess when CanRequestAdmin is false
	// or the profile is already an approved admin.
	ErrNotEligible = apperr.NotEligible("Admin access cannot be requested in the current state")

	// ErrNothingToRepair is returned by FixProfile when the stored profile is already healthy.
	ErrNothingToRepair = apperr.NotEligible("The profile does not need repair")
)

// normalizeProfileError maps profile store failures onto the stable error shape.
func normalizeProfileError(err error) *apperr.AppError {
	if appErr := apperr.As(err); appErr != nil {
		return appErr
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return apperr.Timeout("The profile service did not respond in time. Please try again.", err)
	case errors.Is(err, ErrInvalidProfile):
		invalid := apperr.Unprocessable("Your profile record is incomplete. Use profile repair to fix it.")
		invalid.Code = CodeProfileInvalid
		invalid.Cause = err
		return invalid
	case errors.Is(err, ErrProfileNotFound):
		notFound := apperr.NotFound("Profile")
		notFound.Cause = err
		return notFound
	case errors.Is(err, ErrRequestConflict):
		return &apperr.AppError{
			Code:       ErrNotEligible.Code,
			Message:    ErrNotEligible.Message,
			HTTPStatus: ErrNotEligible.HTTPStatus,
			Cause:      err,
		}
	default:
		return apperr.Unavailable(CodeProfileUnavailable, "Your profile could not be loaded. Please try again.", err)
	}
}

// normalizeSessionError keeps credential errors verbatim and hides infrastructure failures.
func normalizeSessionError(err error) *apperr.AppError {
	if appErr := apperr.As(err); appErr != nil {
		return appErr
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apperr.Timeout("The sign-in service did not respond in time. Please try again.", err)
	}
	return apperr.Unavailable(CodeSessionUnavailable, "The sign-in service is unavailable. Please try again.", err)
}

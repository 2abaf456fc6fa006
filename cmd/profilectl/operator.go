// Copyright (c) 2026 Flow Immersive. All rights reserved.
// Author: Flow Immersive Engineering

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/flowimmersive/flowsite/internal/platform/sec"
	"github.com/flowimmersive/flowsite/internal/users/auth"
	"github.com/flowimmersive/flowsite/pkg/pointer"
)

// profileEditor is the slice of the profile store the operator edits through.
type profileEditor interface {
	SelectByID(ctx context.Context, id string) (*auth.Profile, error)
	Update(ctx context.Context, id string, patch auth.ProfilePatch) (*auth.Profile, error)
}

// operator performs the decisions that the site itself never makes.
type operator struct {
	profiles profileEditor
	out      io.Writer
}

// profileReport is what the CLI prints for one profile.
type profileReport struct {
	Profile *auth.Profile `json:"profile"`
	Facts   auth.Facts    `json:"facts"`
}

/*
approve grants elevated access.

Description: The request status is left as recorded; approval is carried
by is_admin_approved together with an admin role.
*/
func (op *operator) approve(ctx context.Context, id string, role sec.UserRole) error {
	if !role.IsAdminRole() {
		return fmt.Errorf("profilectl: --role must be admin or super_admin, got %q", role)
	}
	return op.apply(ctx, id, auth.ProfilePatch{
		Role:            pointer.To(role),
		IsAdminApproved: pointer.To(true),
	})
}

// reject denies a request and withdraws any elevated access.
func (op *operator) reject(ctx context.Context, id string) error {
	return op.apply(ctx, id, auth.ProfilePatch{
		Role:               pointer.To(sec.RoleUser),
		IsAdminApproved:    pointer.To(false),
		AdminRequestStatus: pointer.To(auth.RequestRejected),
	})
}

// reset returns a profile to its freshly provisioned state so the user may ask again.
func (op *operator) reset(ctx context.Context, id string) error {
	return op.apply(ctx, id, auth.ProfilePatch{
		Role:               pointer.To(sec.RoleUser),
		IsAdminApproved:    pointer.To(false),
		AdminRequestStatus: pointer.To(auth.RequestNone),
		ClearRequestedAt:   true,
	})
}

func (op *operator) show(ctx context.Context, id string) error {
	profile, err := op.profiles.SelectByID(ctx, id)
	if err != nil {
		return err
	}
	return op.print(profile)
}

func (op *operator) apply(ctx context.Context, id string, patch auth.ProfilePatch) error {
	profile, err := op.profiles.Update(ctx, id, patch)
	if err != nil {
		return err
	}
	return op.print(profile)
}

func (op *operator) print(profile *auth.Profile) error {
	encoder := json.NewEncoder(op.out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(profileReport{Profile: profile, Facts: auth.DeriveFacts(profile)})
}

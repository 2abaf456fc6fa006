// Copyright (c) 2026 Flow Immersive. All rights reserved.
// Author: Flow Immersive Engineering

package auth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/flowimmersive/flowsite/internal/users/auth"
	"github.com/flowimmersive/flowsite/internal/users/identity"
)

func TestDecide(t *testing.T) {
	session := &identity.Session{UserID: "u1"}

	anonymous := auth.Snapshot{Session: session, Facts: auth.Facts{CanRequestAdmin: true}}
	admin := auth.Snapshot{Session: session, Facts: auth.Facts{IsAdmin: true}}
	signedOut := auth.Snapshot{}
	loading := auth.Snapshot{Loading: true}
	loadingWithSession := auth.Snapshot{Loading: true, Session: session}

	tests := []struct {
		name     string
		page     auth.Page
		snapshot auth.Snapshot
		outcome  auth.Outcome
		location string
	}{
		{"dashboard_loading", auth.PageDashboard, loading, auth.OutcomeLoading, ""},
		{"dashboard_loading_with_session", auth.PageDashboard, loadingWithSession, auth.OutcomeLoading, ""},
		{"dashboard_signed_out", auth.PageDashboard, signedOut, auth.OutcomeRedirect, "/admin/login"},
		{"dashboard_not_admin", auth.PageDashboard, anonymous, auth.OutcomeRedirect, "/admin/access-request"},
		{"dashboard_admin", auth.PageDashboard, admin, auth.OutcomeRender, ""},

		{"access_request_loading", auth.PageAccessRequest, loading, auth.OutcomeLoading, ""},
		{"access_request_signed_out", auth.PageAccessRequest, signedOut, auth.OutcomeRedirect, "/admin/login"},
		{"access_request_anonymous", auth.PageAccessRequest, anonymous, auth.OutcomeRender, ""},
		{"access_request_admin", auth.PageAccessRequest, admin, auth.OutcomeRedirect, "/admin/dashboard"},

		{"login_loading", auth.PageLogin, loadingWithSession, auth.OutcomeLoading, ""},
		{"login_signed_out", auth.PageLogin, signedOut, auth.OutcomeRender, ""},
		{"login_anonymous", auth.PageLogin, anonymous, auth.OutcomeRedirect, "/admin/access-request"},
		{"login_admin", auth.PageLogin, admin, auth.OutcomeRedirect, "/admin/dashboard"},

		{"register_signed_out", auth.PageRegister, signedOut, auth.OutcomeRender, ""},
		{"register_signed_in", auth.PageRegister, anonymous, auth.OutcomeRedirect, "/admin/access-request"},
		{"register_loading", auth.PageRegister, loading, auth.OutcomeLoading, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision := auth.Decide(tt.page, tt.snapshot)
			assert.Equal(t, tt.outcome, decision.Outcome)
			assert.Equal(t, tt.location, decision.Location)
		})
	}
}

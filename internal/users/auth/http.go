// Copyright (c) 2026 Flow Immersive. All rights reserved.
// Author: Flow Immersive Engineering

package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/flowimmersive/flowsite/internal/platform/apperr"
	"github.com/flowimmersive/flowsite/internal/platform/constants"
	"github.com/flowimmersive/flowsite/internal/platform/ctxutil"
	requestutil "github.com/flowimmersive/flowsite/internal/platform/request"
	"github.com/flowimmersive/flowsite/internal/platform/respond"
	"github.com/flowimmersive/flowsite/internal/platform/validate"
	"github.com/flowimmersive/flowsite/internal/users/identity"
)

// Handler implements the session endpoints and the gated admin views.
//
// # Scope
//
// Every route reads the per-request [Controller] installed by [Handler.Bind].
// Handlers only decode, validate and present; the controller owns the
// transitions.
type Handler struct {
	newClient     func(token string) SessionClient
	profiles      ProfileStore
	config        Config
	cookie        CookieSettings
	settleTimeout time.Duration
}

// NewHandler constructs a [Handler].
//
// newClient returns a session client that starts from the given token; one is
// created per request.
func NewHandler(
	newClient func(token string) SessionClient,
	profiles ProfileStore,
	config Config,
	cookie CookieSettings,
	settleTimeout time.Duration,
) *Handler {
	if cookie.Name == "" {
		cookie.Name = constants.SessionCookieName
	}
	if cookie.Path == "" {
		cookie.Path = constants.SessionCookiePath
	}
	return &Handler{
		newClient:     newClient,
		profiles:      profiles,
		config:        config,
		cookie:        cookie,
		settleTimeout: settleTimeout,
	}
}

// Routes returns the session API router, mounted under /api/v1/auth.
//
// # Endpoints
//   - POST  /register         : Creates credentials and signs in.
//   - POST  /login            : Signs in.
//   - POST  /logout           : Revokes every session of the user.
//   - GET   /session          : Current session, profile and derived facts.
//   - POST  /access-request   : Requests admin access.
//   - PATCH /profile          : Updates the display name.
//   - POST  /profile/repair   : Repairs a malformed profile.
//   - POST  /profile/refresh  : Re-fetches the profile.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/register", handler.register)
	router.Post("/login", handler.login)
	router.Post("/logout", handler.logout)
	router.Get("/session", handler.session)
	router.Post("/access-request", handler.requestAccess)
	router.Patch("/profile", handler.updateProfile)
	router.Post("/profile/repair", handler.repairProfile)
	router.Post("/profile/refresh", handler.refreshProfile)

	return router
}

// PageRoutes returns the gated admin views, mounted under /admin.
func (handler *Handler) PageRoutes() chi.Router {
	router := chi.NewRouter()

	for _, page := range []Page{PageLogin, PageRegister, PageAccessRequest, PageDashboard} {
		router.Get("/"+string(page), handler.view(page))
	}

	return router
}

// # Presentation

// UserView is the public part of a session.
type UserView struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// SessionView is the JSON projection of a [Snapshot].
type SessionView struct {
	User         *UserView        `json:"user"`
	Profile      *Profile         `json:"profile"`
	Facts        Facts            `json:"facts"`
	State        State            `json:"state"`
	Loading      bool             `json:"loading"`
	ProfileError *apperr.AppError `json:"profile_error,omitempty"`
}

// NewSessionView projects snapshot for clients.
func NewSessionView(snapshot Snapshot) SessionView {
	view := SessionView{
		Profile:      snapshot.Profile,
		Facts:        snapshot.Facts,
		State:        snapshot.State,
		Loading:      snapshot.Loading,
		ProfileError: snapshot.ProfileError,
	}
	if snapshot.Session != nil {
		view.User = &UserView{ID: snapshot.Session.UserID, Email: snapshot.Session.Email}
	}
	return view
}

// PageView is the view model of a rendered admin page.
type PageView struct {
	Page    Page        `json:"page"`
	Session SessionView `json:"session"`
}

// # Session Endpoints

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

// register handles POST /api/v1/auth/register.
//
// # Returns
//   - 201 Created with the session view.
//   - 400 Bad Request if validation rules fail.
//   - 409 Conflict if the email is already registered.
func (handler *Handler) register(writer http.ResponseWriter, request *http.Request) {
	// ── 1. Payload Extraction ─────────────────────────────────────────────

	var input registerRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}
	input.Email = strings.TrimSpace(input.Email)
	input.FullName = strings.TrimSpace(input.FullName)

	// ── 2. Boundary Validation ────────────────────────────────────────────

	validator := &validate.Validator{}
	validator.Required(FieldEmail, input.Email).Email(FieldEmail, input.Email)
	validator.Required(FieldPassword, input.Password).MinLen(FieldPassword, input.Password, identity.MinPasswordLength)
	validator.MaxLen(FieldFullName, input.FullName, MaxFullNameLength)
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	// ── 3. Application Execution ──────────────────────────────────────────

	b, ok := handler.settled(writer, request)
	if !ok {
		return
	}

	if _, err := b.controller.SignUp(request.Context(), input.Email, input.Password, input.FullName); err != nil {
		respond.Error(writer, request, err)
		return
	}

	// ── 4. Presentation Output ────────────────────────────────────────────

	handler.syncCookie(writer, b)
	respond.Created(writer, NewSessionView(b.controller.Snapshot()))
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// login handles POST /api/v1/auth/login.
//
// # Returns
//   - 200 OK with the session view.
//   - 401 Unauthorized for bad credentials, with the provider's message.
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	var input loginRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldEmail, input.Email).Required(FieldPassword, input.Password)
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	b, ok := handler.settled(writer, request)
	if !ok {
		return
	}

	if _, err := b.controller.SignIn(request.Context(), strings.TrimSpace(input.Email), input.Password); err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.syncCookie(writer, b)
	respond.OK(writer, NewSessionView(b.controller.Snapshot()))
}

// logout handles POST /api/v1/auth/logout. The local session is always
// dropped; a failed remote revocation is only logged.
func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {
	b, ok := handler.settled(writer, request)
	if !ok {
		return
	}

	if err := b.controller.SignOut(request.Context()); err != nil {
		ctxutil.GetLogger(request.Context()).WarnContext(request.Context(), "auth_logout_remote_failed",
			slog.Any("error", err),
		)
	}

	handler.syncCookie(writer, b)
	respond.NoContent(writer)
}

// session handles GET /api/v1/auth/session.
func (handler *Handler) session(writer http.ResponseWriter, request *http.Request) {
	b, ok := handler.settled(writer, request)
	if !ok {
		return
	}

	respond.OK(writer, NewSessionView(b.controller.Snapshot()))
}

// # Profile Endpoints

// requestAccess handles POST /api/v1/auth/access-request.
//
// # Returns
//   - 200 OK with the session view (state "pending").
//   - 401 Unauthorized without a session or profile.
//   - 409 Conflict (NOT_ELIGIBLE) unless the request status is "none".
func (handler *Handler) requestAccess(writer http.ResponseWriter, request *http.Request) {
	handler.mutateProfile(writer, request, func(ctx context.Context, controller *Controller) error {
		_, err := controller.RequestAdminAccess(ctx)
		return err
	})
}

type updateProfileRequest struct {
	FullName string `json:"full_name"`
}

// updateProfile handles PATCH /api/v1/auth/profile.
func (handler *Handler) updateProfile(writer http.ResponseWriter, request *http.Request) {
	var input updateProfileRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.mutateProfile(writer, request, func(ctx context.Context, controller *Controller) error {
		_, err := controller.UpdateProfile(ctx, input.FullName)
		return err
	})
}

// repairProfile handles POST /api/v1/auth/profile/repair.
func (handler *Handler) repairProfile(writer http.ResponseWriter, request *http.Request) {
	handler.mutateProfile(writer, request, func(ctx context.Context, controller *Controller) error {
		_, err := controller.FixProfile(ctx)
		return err
	})
}

// refreshProfile handles POST /api/v1/auth/profile/refresh.
func (handler *Handler) refreshProfile(writer http.ResponseWriter, request *http.Request) {
	handler.mutateProfile(writer, request, func(ctx context.Context, controller *Controller) error {
		_, err := controller.Refresh(ctx)
		return err
	})
}

func (handler *Handler) mutateProfile(
	writer http.ResponseWriter,
	request *http.Request,
	operation func(ctx context.Context, controller *Controller) error,
) {
	b, ok := handler.settled(writer, request)
	if !ok {
		return
	}

	if err := operation(request.Context(), b.controller); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, NewSessionView(b.controller.Snapshot()))
}

// # Gated Views

// view renders one admin page. The settle wait is bounded; a page that is
// still loading answers 202 and never redirects. A failed session lookup
// answers with its error instead of the login redirect.
func (handler *Handler) view(page Page) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		b := bindingFrom(request.Context())
		if b == nil {
			respond.Error(writer, request, apperr.Internal(errUnbound))
			return
		}

		ctx, cancel := context.WithTimeout(request.Context(), handler.settleTimeout)
		snapshot, waitErr := b.controller.WaitSettled(ctx)
		var initErr error
		if waitErr == nil {
			initErr = b.initError(ctx)
		}
		cancel()

		// A session lookup that failed is not the same as signed out.
		if initErr != nil {
			handler.syncCookie(writer, b)
			respond.Error(writer, request, initErr)
			return
		}

		decision := Decide(page, snapshot)
		switch decision.Outcome {
		case OutcomeLoading:
			respond.JSON(writer, http.StatusAccepted, map[string]string{constants.FieldStatus: string(OutcomeLoading)})

		case OutcomeRedirect:
			handler.syncCookie(writer, b)
			respond.Redirect(writer, request, decision.Location)

		default:
			handler.syncCookie(writer, b)
			respond.OK(writer, PageView{Page: page, Session: NewSessionView(snapshot)})
		}
	}
}

// # Helpers

// settled waits for the bound controller to finish initializing and drops a
// stale cookie. On failure the error response has already been written.
func (handler *Handler) settled(writer http.ResponseWriter, request *http.Request) (*binding, bool) {
	b := bindingFrom(request.Context())
	if b == nil {
		respond.Error(writer, request, apperr.Internal(errUnbound))
		return nil, false
	}

	_, err := b.await(request.Context())
	handler.syncCookie(writer, b)
	if err != nil {
		respond.Error(writer, request, err)
		return nil, false
	}
	return b, true
}

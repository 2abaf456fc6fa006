// Copyright (c) 2026 Flow Immersive. All rights reserved.
// Author: Flow Immersive Engineering

package auth

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/flowimmersive/flowsite/internal/platform/apperr"
	"github.com/flowimmersive/flowsite/internal/platform/ctxutil"
	"github.com/flowimmersive/flowsite/internal/platform/respond"
)

// # Request Binding

type contextKey struct{}

// binding ties one request to the controller built for it.
type binding struct {
	controller *Controller
	client     SessionClient
	token      string

	initDone chan struct{}
	initErr  error
}

// await blocks until Init has returned or ctx ends.
func (b *binding) await(ctx context.Context) (Snapshot, error) {
	select {
	case <-b.initDone:
		return b.controller.Snapshot(), b.initErr
	case <-ctx.Done():
		return b.controller.Snapshot(), apperr.Timeout("The sign-in service did not respond in time. Please try again.", ctx.Err())
	}
}

// initError waits for Init to return while ctx lasts and reports its error.
// Init settles the controller just before returning, so a settled caller
// waits only briefly.
func (b *binding) initError(ctx context.Context) error {
	select {
	case <-b.initDone:
		return b.initErr
	case <-ctx.Done():
		return nil
	}
}

// CookieSettings describes the session cookie.
type CookieSettings struct {
	Name   string
	Path   string
	Secure bool
	TTL    time.Duration
}

/*
Bind builds a Controller for every request from the session token placed in
the context by the SessionToken middleware, starts its initialization and
disposes it when the request ends.

Description: One request is one page-load lifetime. Handlers read the
controller with [FromContext].
*/
func (handler *Handler) Bind(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		ctx := request.Context()
		logger := ctxutil.GetLogger(ctx)

		token := ctxutil.GetSessionToken(ctx)
		client := handler.newClient(token)
		controller := NewController(client, handler.profiles, handler.config, logger)
		defer controller.Dispose()

		b := &binding{
			controller: controller,
			client:     client,
			token:      token,
			initDone:   make(chan struct{}),
		}

		go func() {
			defer close(b.initDone)
			b.initErr = controller.Init(ctx)
			if b.initErr != nil {
				logger.WarnContext(ctx, "auth_controller_init_failed", slog.Any("error", b.initErr))
			}
		}()

		next.ServeHTTP(writer, request.WithContext(context.WithValue(ctx, contextKey{}, b)))
	})
}

// FromContext returns the controller bound to the request, or nil outside [Handler.Bind].
func FromContext(ctx context.Context) *Controller {
	if b, ok := ctx.Value(contextKey{}).(*binding); ok {
		return b.controller
	}
	return nil
}

// CurrentUserID returns the session subject bound to ctx, or "".
func CurrentUserID(ctx context.Context) string {
	controller := FromContext(ctx)
	if controller == nil {
		return ""
	}
	if session := controller.Snapshot().Session; session != nil {
		return session.UserID
	}
	return ""
}

func bindingFrom(ctx context.Context) *binding {
	b, _ := ctx.Value(contextKey{}).(*binding)
	return b
}

/*
RequireAdmin rejects requests whose settled snapshot is not an approved admin.

Returns:
  - 401 UNAUTHORIZED without a session
  - 403 FORBIDDEN with a session but no admin approval
*/
func (handler *Handler) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		b := bindingFrom(request.Context())
		if b == nil {
			respond.Error(writer, request, ErrNotAuthenticated)
			return
		}

		snapshot, err := b.await(request.Context())
		handler.syncCookie(writer, b)
		if err != nil {
			respond.Error(writer, request, err)
			return
		}

		switch {
		case snapshot.Session == nil:
			respond.Error(writer, request, ErrNotAuthenticated)
		case !snapshot.Facts.IsAdmin:
			respond.Error(writer, request, apperr.Forbidden("Admin approval is required"))
		default:
			next.ServeHTTP(writer, request)
		}
	})
}

// # Session Cookie

// syncCookie writes the client's current token to the cookie when it differs
// from the one the request arrived with. Must run before the body is written.
func (handler *Handler) syncCookie(writer http.ResponseWriter, b *binding) {
	current := b.client.Token()
	if current == b.token {
		return
	}
	b.token = current

	cookie := &http.Cookie{
		Name:     handler.cookie.Name,
		Value:    current,
		Path:     handler.cookie.Path,
		HttpOnly: true,
		Secure:   handler.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	if current == "" {
		cookie.MaxAge = -1
	} else {
		cookie.MaxAge = int(handler.cookie.TTL.Seconds())
	}
	http.SetCookie(writer, cookie)
}

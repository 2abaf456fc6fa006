// Copyright (c) 2026 Flow Immersive. All rights reserved.
// Author: Flow Immersive Engineering

package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/flowimmersive/flowsite/internal/platform/apperr"
	"github.com/flowimmersive/flowsite/internal/platform/sec"
	"github.com/flowimmersive/flowsite/internal/platform/validate"
	"github.com/flowimmersive/flowsite/pkg/uuid"
)

// TokenIssuer mints and verifies session tokens.
type TokenIssuer interface {
	GenerateSessionToken(userID, sessionID, email string, timeToLive time.Duration) (string, time.Time, error)
	VerifyToken(tokenString string) (*sec.SessionClaims, error)
}

// Provider implements the server side of the session contract.
//
// # Concurrency
//
// Provider is stateless apart from its repositories and is safe for concurrent use.
type Provider struct {
	accounts   AccountRepository
	sessions   SessionRepository
	tokens     TokenIssuer
	sessionTTL time.Duration
	logger     *slog.Logger
}

// NewProvider constructs a [Provider].
func NewProvider(
	accounts AccountRepository,
	sessions SessionRepository,
	tokens TokenIssuer,
	sessionTTL time.Duration,
	logger *slog.Logger,
) *Provider {
	return &Provider{
		accounts:   accounts,
		sessions:   sessions,
		tokens:     tokens,
		sessionTTL: sessionTTL,
		logger:     logger,
	}
}

// NewClient returns a per-browser client bound to token ("" for anonymous).
func (provider *Provider) NewClient(token string) *Client {
	return &Client{
		provider:  provider,
		token:     token,
		listeners: make(map[int]Listener),
	}
}

// # Credential Flows

/*
SignUp creates an account and immediately opens a session for it.

Parameters:
  - ctx: context.Context
  - email: string
  - password: string (at least MinPasswordLength characters)
  - metadata: Metadata stored alongside the account

Returns:
  - *Session: The new session with its access token
  - error: ErrUserExists, validation errors or storage errors
*/
func (provider *Provider) SignUp(ctx context.Context, email, password string, metadata Metadata) (*Session, error) {
	email = normalizeEmail(email)

	validator := &validate.Validator{}
	validator.Required("email", email).
		Email("email", email).
		MinLen("password", password, MinPasswordLength)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	hash, err := sec.HashPassword(password)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	account := &Account{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		Metadata:     Metadata{FullName: strings.TrimSpace(metadata.FullName)},
	}
	if err := provider.accounts.Create(ctx, account); err != nil {
		return nil, err
	}

	provider.logger.InfoContext(ctx, "identity_account_created", slog.String("user_id", account.ID))

	return provider.openSession(ctx, account)
}

/*
SignIn authenticates an email/password pair and opens a session.

Returns:
  - *Session: The new session with its access token
  - error: ErrInvalidCredentials for any unknown email or wrong password
*/
func (provider *Provider) SignIn(ctx context.Context, email, password string) (*Session, error) {
	account, err := provider.accounts.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, err
	}

	if !sec.CheckPasswordHash(password, account.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	return provider.openSession(ctx, account)
}

/*
SignOut revokes sessions reachable from token according to scope.

A token that is already invalid is treated as signed out.
*/
func (provider *Provider) SignOut(ctx context.Context, token string, scope Scope) error {
	claims, err := provider.tokens.VerifyToken(token)
	if err != nil {
		return nil
	}

	switch scope {
	case ScopeLocal:
		err = provider.sessions.Delete(ctx, claims.Subject, claims.SessionID)
	case ScopeOthers:
		err = provider.sessions.DeleteAllForUser(ctx, claims.Subject, claims.SessionID)
	case ScopeGlobal:
		err = provider.sessions.DeleteAllForUser(ctx, claims.Subject, "")
	default:
		return fmt.Errorf("identity: unknown sign-out scope %q", scope)
	}
	if err != nil {
		return err
	}

	provider.logger.InfoContext(ctx, "identity_signed_out",
		slog.String("user_id", claims.Subject),
		slog.String("scope", string(scope)),
	)
	return nil
}

/*
Resolve returns the live session behind token.

Returns:
  - *Session: Session with AccessToken set to token
  - error: ErrSessionNotFound when the token is invalid, expired or revoked
*/
func (provider *Provider) Resolve(ctx context.Context, token string) (*Session, error) {
	claims, err := provider.tokens.VerifyToken(token)
	if err != nil {
		return nil, ErrSessionNotFound
	}

	session, err := provider.sessions.Find(ctx, claims.SessionID)
	if err != nil {
		return nil, err
	}

	if session.UserID != claims.Subject {
		provider.logger.WarnContext(ctx, "identity_session_subject_mismatch", slog.String("session_id", claims.SessionID))
		return nil, ErrSessionNotFound
	}

	session.AccessToken = token
	return session, nil
}

// openSession persists a new session record and signs its token.
func (provider *Provider) openSession(ctx context.Context, account *Account) (*Session, error) {
	sessionID := uuid.New()

	token, expiresAt, err := provider.tokens.GenerateSessionToken(account.ID, sessionID, account.Email, provider.sessionTTL)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	session := &Session{
		ID:          sessionID,
		UserID:      account.ID,
		Email:       account.Email,
		Metadata:    account.Metadata,
		ExpiresAt:   expiresAt,
		AccessToken: token,
	}
	if err := provider.sessions.Save(ctx, session, provider.sessionTTL); err != nil {
		return nil, err
	}

	return session, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IsSessionGone reports whether err means the caller simply has no session.
func IsSessionGone(err error) bool {
	return errors.Is(err, ErrSessionNotFound)
}

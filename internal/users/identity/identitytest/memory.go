// Copyright (c) 2026 Flow Immersive. All rights reserved.
// Author: Flow Immersive Engineering

// Package identitytest provides in-memory repositories for exercising the
// identity provider without PostgreSQL or Redis.
package identitytest

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/flowimmersive/flowsite/internal/platform/sec"
	"github.com/flowimmersive/flowsite/internal/users/identity"
)

// # Accounts

// MemoryAccounts is an [identity.AccountRepository] backed by a map.
type MemoryAccounts struct {
	mu       sync.Mutex
	byEmail  map[string]identity.Account
	OnCreate func(account identity.Account)
}

// NewMemoryAccounts returns an empty account store.
func NewMemoryAccounts() *MemoryAccounts {
	return &MemoryAccounts{byEmail: make(map[string]identity.Account)}
}

func (store *MemoryAccounts) Create(_ context.Context, account *identity.Account) error {
	store.mu.Lock()
	key := strings.ToLower(account.Email)
	if _, exists := store.byEmail[key]; exists {
		store.mu.Unlock()
		return identity.ErrUserExists
	}
	now := time.Now().UTC()
	account.CreatedAt, account.UpdatedAt = now, now
	store.byEmail[key] = *account
	hook := store.OnCreate
	store.mu.Unlock()

	if hook != nil {
		hook(*account)
	}
	return nil
}

func (store *MemoryAccounts) FindByEmail(_ context.Context, email string) (*identity.Account, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	account, ok := store.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, identity.ErrInvalidCredentials
	}
	return &account, nil
}

// # Sessions

// MemorySessions is an [identity.SessionRepository] backed by a map.
// Set DeleteErr to make revocation fail.
type MemorySessions struct {
	mu        sync.Mutex
	sessions  map[string]identity.Session
	DeleteErr error
}

// NewMemorySessions returns an empty session store.
func NewMemorySessions() *MemorySessions {
	return &MemorySessions{sessions: make(map[string]identity.Session)}
}

func (store *MemorySessions) Save(_ context.Context, session *identity.Session, _ time.Duration) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	stored := *session
	stored.AccessToken = ""
	store.sessions[session.ID] = stored
	return nil
}

func (store *MemorySessions) Find(_ context.Context, sessionID string) (*identity.Session, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	session, ok := store.sessions[sessionID]
	if !ok {
		return nil, identity.ErrSessionNotFound
	}
	return &session, nil
}

func (store *MemorySessions) Delete(_ context.Context, _ string, sessionID string) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	if store.DeleteErr != nil {
		return store.DeleteErr
	}
	delete(store.sessions, sessionID)
	return nil
}

func (store *MemorySessions) DeleteAllForUser(_ context.Context, userID, keepSessionID string) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	if store.DeleteErr != nil {
		return store.DeleteErr
	}
	for id, session := range store.sessions {
		if session.UserID == userID && id != keepSessionID {
			delete(store.sessions, id)
		}
	}
	return nil
}

// Count returns the number of live sessions.
func (store *MemorySessions) Count() int {
	store.mu.Lock()
	defer store.mu.Unlock()
	return len(store.sessions)
}

// # Wiring

// Fixture bundles a provider with its in-memory repositories.
type Fixture struct {
	Provider *identity.Provider
	Accounts *MemoryAccounts
	Sessions *MemorySessions
}

// NewFixture builds a provider signing tokens with a throwaway RSA key.
func NewFixture(t testing.TB) *Fixture {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("identitytest: generate key: %v", err)
	}

	fixture := &Fixture{
		Accounts: NewMemoryAccounts(),
		Sessions: NewMemorySessions(),
	}
	fixture.Provider = identity.NewProvider(
		fixture.Accounts,
		fixture.Sessions,
		sec.NewTokenServiceFromKeys(key, &key.PublicKey, "flowimmersive.com"),
		time.Hour,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
	return fixture
}

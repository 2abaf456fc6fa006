// Copyright (c) 2026 Flow Immersive. All rights reserved.
// Author: Flow Immersive Engineering

// Package authtest provides in-memory session and profile stores for
// exercising the authorization controller.
package authtest

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/flowimmersive/flowsite/internal/platform/sec"
	"github.com/flowimmersive/flowsite/internal/users/auth"
	"github.com/flowimmersive/flowsite/internal/users/identity"
	"github.com/flowimmersive/flowsite/internal/users/identity/identitytest"
)

// # Profile Store

// MemoryProfileStore is an [auth.ProfileStore] backed by a map, with hooks
// for simulating provisioning lag, failures and slow lookups.
type MemoryProfileStore struct {
	mu       sync.Mutex
	rows     map[string]*auth.Profile
	invalid  map[string]bool
	hidden   map[string]int
	gates    map[string]*gate
	selects  map[string]int
	updates  int
	inserts  int
	selectFn func(id string) error

	// UpdateErr and InsertErr, when set, fail every call of that kind.
	UpdateErr error
	InsertErr error
}

type gate struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

// NewMemoryProfileStore returns an empty store.
func NewMemoryProfileStore() *MemoryProfileStore {
	return &MemoryProfileStore{
		rows:    make(map[string]*auth.Profile),
		invalid: make(map[string]bool),
		hidden:  make(map[string]int),
		gates:   make(map[string]*gate),
		selects: make(map[string]int),
	}
}

// Put stores profile as-is, the way an operator edits a row.
func (store *MemoryProfileStore) Put(profile *auth.Profile) {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.rows[profile.ID] = profile.Clone()
	delete(store.invalid, profile.ID)
}

// Edit applies fn to the stored row of id.
func (store *MemoryProfileStore) Edit(id string, fn func(profile *auth.Profile)) {
	store.mu.Lock()
	defer store.mu.Unlock()
	if row, ok := store.rows[id]; ok {
		fn(row)
	}
}

// Get returns a copy of the stored row of id, or nil.
func (store *MemoryProfileStore) Get(id string) *auth.Profile {
	store.mu.Lock()
	defer store.mu.Unlock()
	return store.rows[id].Clone()
}

// Quarantine makes the row of id fail enum validation, as a null request
// status does, until its request status is rewritten or repaired.
func (store *MemoryProfileStore) Quarantine(id string) {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.invalid[id] = true
}

// HideFor makes the next n lookups of id report not found, as while the
// creation trigger has not run yet.
func (store *MemoryProfileStore) HideFor(id string, n int) {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.hidden[id] = n
}

// FailSelect makes lookups return the error fn yields for the id; nil clears it.
func (store *MemoryProfileStore) FailSelect(fn func(id string) error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.selectFn = fn
}

/*
Block holds lookups of id until release is called.

Returns:
  - entered: closed once a lookup of id is waiting
  - release: lets every waiting and future lookup of id through
*/
func (store *MemoryProfileStore) Block(id string) (entered <-chan struct{}, release func()) {
	g := &gate{entered: make(chan struct{}), release: make(chan struct{})}

	store.mu.Lock()
	store.gates[id] = g
	store.mu.Unlock()

	return g.entered, func() {
		store.mu.Lock()
		delete(store.gates, id)
		store.mu.Unlock()
		close(g.release)
	}
}

// SelectCalls returns how many lookups of id reached the store.
func (store *MemoryProfileStore) SelectCalls(id string) int {
	store.mu.Lock()
	defer store.mu.Unlock()
	return store.selects[id]
}

// UpdateCalls returns how many updates reached the store.
func (store *MemoryProfileStore) UpdateCalls() int {
	store.mu.Lock()
	defer store.mu.Unlock()
	return store.updates
}

// InsertCalls returns how many inserts reached the store.
func (store *MemoryProfileStore) InsertCalls() int {
	store.mu.Lock()
	defer store.mu.Unlock()
	return store.inserts
}

// SelectByID implements [auth.ProfileStore].
func (store *MemoryProfileStore) SelectByID(ctx context.Context, id string) (*auth.Profile, error) {
	store.mu.Lock()
	store.selects[id]++
	g := store.gates[id]
	store.mu.Unlock()

	if g != nil {
		g.once.Do(func() { close(g.entered) })
		select {
		case <-g.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	store.mu.Lock()
	defer store.mu.Unlock()

	if store.selectFn != nil {
		if err := store.selectFn(id); err != nil {
			return nil, err
		}
	}
	if store.hidden[id] > 0 {
		store.hidden[id]--
		return nil, auth.ErrProfileNotFound
	}

	row, ok := store.rows[id]
	if !ok {
		return nil, auth.ErrProfileNotFound
	}
	if store.invalid[id] {
		return nil, auth.ErrInvalidProfile
	}
	return row.Clone(), nil
}

// Update implements [auth.ProfileStore], including the request status precondition.
func (store *MemoryProfileStore) Update(_ context.Context, id string, patch auth.ProfilePatch) (*auth.Profile, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	store.updates++
	if store.UpdateErr != nil {
		return nil, store.UpdateErr
	}

	row, ok := store.rows[id]
	if !ok {
		return nil, auth.ErrProfileNotFound
	}
	if patch.IfRequestStatus != nil && row.AdminRequestStatus != *patch.IfRequestStatus {
		return nil, auth.ErrRequestConflict
	}

	next := patch.Apply(row, time.Now().UTC())
	if patch.RepairRequestStatus && patch.AdminRequestStatus == nil && store.invalid[id] {
		next.AdminRequestStatus = auth.RequestNone
	}
	store.rows[id] = next
	if patch.AdminRequestStatus != nil || patch.RepairRequestStatus {
		delete(store.invalid, id)
	}
	return next.Clone(), nil
}

// Insert implements [auth.ProfileStore]; an existing row is returned unchanged.
func (store *MemoryProfileStore) Insert(_ context.Context, profile auth.NewProfile) (*auth.Profile, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	store.inserts++
	if store.InsertErr != nil {
		return nil, store.InsertErr
	}

	if row, ok := store.rows[profile.ID]; ok {
		return row.Clone(), nil
	}

	row := NewProfile(profile.ID, profile.Email, profile.FullName)
	store.rows[profile.ID] = row
	return row.Clone(), nil
}

// ProvisionFrom installs a creation hook on accounts that inserts a profile
// for every new account, like the database trigger does.
func (store *MemoryProfileStore) ProvisionFrom(accounts *identitytest.MemoryAccounts) {
	accounts.OnCreate = func(account identity.Account) {
		name := strings.TrimSpace(account.Metadata.FullName)
		if name == "" {
			name = auth.PlaceholderFullName
		}
		store.Put(NewProfile(account.ID, account.Email, name))
	}
}

// NewProfile returns a freshly provisioned profile.
func NewProfile(id, email, fullName string) *auth.Profile {
	now := time.Now().UTC()
	return &auth.Profile{
		ID:                 id,
		Email:              email,
		FullName:           fullName,
		Role:               sec.RoleUser,
		AdminRequestStatus: auth.RequestNone,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

// # Session Store

// FakeSessionStore is a scriptable [auth.SessionClient]. Sign-in accepts any
// password and uses the email as the user id unless UserIDs maps it.
type FakeSessionStore struct {
	mu        sync.Mutex
	session   *identity.Session
	listeners map[int]identity.Listener
	nextID    int
	signOuts  []identity.Scope

	UserIDs       map[string]string
	GetSessionErr error
	SignInErr     error
	SignUpErr     error
	SignOutErr    error
}

// NewFakeSessionStore returns a store that starts with session (may be nil).
func NewFakeSessionStore(session *identity.Session) *FakeSessionStore {
	return &FakeSessionStore{
		session:   session,
		listeners: make(map[int]identity.Listener),
		UserIDs:   make(map[string]string),
	}
}

// NewSession returns a session for userID.
func NewSession(userID, email string) *identity.Session {
	return &identity.Session{
		ID:          uuid.NewString(),
		UserID:      userID,
		Email:       email,
		ExpiresAt:   time.Now().Add(time.Hour),
		AccessToken: "token-" + userID,
	}
}

func (store *FakeSessionStore) Token() string {
	store.mu.Lock()
	defer store.mu.Unlock()
	if store.session == nil {
		return ""
	}
	return store.session.AccessToken
}

func (store *FakeSessionStore) GetSession(context.Context) (*identity.Session, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	if store.GetSessionErr != nil {
		return nil, store.GetSessionErr
	}
	if store.session == nil {
		return nil, nil
	}
	copied := *store.session
	return &copied, nil
}

func (store *FakeSessionStore) SignUp(ctx context.Context, email, _ string, metadata identity.Metadata) (*identity.Session, error) {
	if store.SignUpErr != nil {
		return nil, store.SignUpErr
	}
	session := NewSession(store.userID(email), email)
	session.Metadata = metadata
	store.Emit(ctx, session)
	return session, nil
}

func (store *FakeSessionStore) SignIn(ctx context.Context, email, _ string) (*identity.Session, error) {
	if store.SignInErr != nil {
		return nil, store.SignInErr
	}
	session := NewSession(store.userID(email), email)
	store.Emit(ctx, session)
	return session, nil
}

// SignOut records the scope. On failure it returns SignOutErr without
// touching the session or notifying listeners.
func (store *FakeSessionStore) SignOut(ctx context.Context, scope identity.Scope) error {
	store.mu.Lock()
	store.signOuts = append(store.signOuts, scope)
	err := store.SignOutErr
	store.mu.Unlock()

	if err != nil {
		return err
	}
	store.Emit(ctx, nil)
	return nil
}

// SignOutScopes returns the scopes of every sign-out call.
func (store *FakeSessionStore) SignOutScopes() []identity.Scope {
	store.mu.Lock()
	defer store.mu.Unlock()
	return append([]identity.Scope(nil), store.signOuts...)
}

func (store *FakeSessionStore) OnAuthStateChange(listener identity.Listener) identity.Subscription {
	store.mu.Lock()
	defer store.mu.Unlock()

	id := store.nextID
	store.nextID++
	store.listeners[id] = listener
	return &fakeSubscription{store: store, id: id}
}

// Emit replaces the current session and notifies listeners synchronously.
// A nil session signals sign-out.
func (store *FakeSessionStore) Emit(ctx context.Context, session *identity.Session) {
	store.mu.Lock()
	store.session = session
	listeners := make([]identity.Listener, 0, len(store.listeners))
	for _, listener := range store.listeners {
		listeners = append(listeners, listener)
	}
	store.mu.Unlock()

	event := identity.Event{Kind: identity.EventSignedOut}
	if session != nil {
		copied := *session
		event = identity.Event{Kind: identity.EventSignedIn, Session: &copied}
	}
	for _, listener := range listeners {
		listener(ctx, event)
	}
}

// Listeners returns the number of live subscriptions.
func (store *FakeSessionStore) Listeners() int {
	store.mu.Lock()
	defer store.mu.Unlock()
	return len(store.listeners)
}

func (store *FakeSessionStore) userID(email string) string {
	store.mu.Lock()
	defer store.mu.Unlock()
	if id, ok := store.UserIDs[email]; ok {
		return id
	}
	return email
}

type fakeSubscription struct {
	store *FakeSessionStore
	id    int
}

func (sub *fakeSubscription) Unsubscribe() {
	sub.store.mu.Lock()
	defer sub.store.mu.Unlock()
	delete(sub.store.listeners, sub.id)
}

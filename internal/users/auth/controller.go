// Copyright (c) 2026 Flow Immersive. All rights reserved.
// Author: Flow Immersive Engineering

/*
Package auth implements the admin authorization controller.

A [Controller] keeps a consistent view of (session, profile, derived facts)
for one browser session, mediates every transition that changes a profile's
authorization-relevant fields, and publishes snapshots to observers such as
the gated admin views.

Lifecycle:

	controller := auth.NewController(sessions, profiles, auth.DefaultConfig(), logger)
	if err := controller.Init(ctx); err != nil { ... }
	defer controller.Dispose()

Approval is granted only by an operator editing the profile store directly;
the controller observes it on its next profile fetch.
*/
package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/flowimmersive/flowsite/internal/platform/apperr"
	"github.com/flowimmersive/flowsite/internal/platform/validate"
	"github.com/flowimmersive/flowsite/internal/users/identity"
	"github.com/flowimmersive/flowsite/pkg/pointer"
)

// # Configuration

// Config tunes retry and timeout behavior.
type Config struct {
	// RetryDelay is the fixed pause between lookups of a not-yet-provisioned profile.
	RetryDelay time.Duration
	// MaxAttempts is the total number of lookups before giving up silently.
	MaxAttempts int
	// ReconcileDelay is how long sign-up waits before checking the provisioned profile.
	ReconcileDelay time.Duration
	// CallTimeout bounds every session and profile store call.
	CallTimeout time.Duration
}

// DefaultConfig returns the production tuning.
func DefaultConfig() Config {
	return Config{
		RetryDelay:     DefaultRetryDelay,
		MaxAttempts:    DefaultMaxAttempts,
		ReconcileDelay: DefaultReconcileDelay,
		CallTimeout:    DefaultCallTimeout,
	}
}

// Option customizes a Controller.
type Option func(*Controller)

// WithClock replaces the wall clock used for request timestamps.
func WithClock(now func() time.Time) Option {
	return func(controller *Controller) { controller.now = now }
}

// WithSleep replaces the delay primitive used between retries and before reconciliation.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(controller *Controller) { controller.sleep = sleep }
}

// # Snapshot

// Snapshot is an immutable view of the controller state.
type Snapshot struct {
	Session *identity.Session
	Profile *Profile
	Loading bool
	Facts   Facts
	State   State

	// ProfileError is the last normalized profile failure, for a retry affordance.
	ProfileError *apperr.AppError
}

// Observer receives a snapshot after every state change.
type Observer func(Snapshot)

// # Controller

// Controller is the authorization state for one browser session.
//
// # Concurrency
//
// All methods are safe for concurrent use. Store calls never run under the
// internal lock, because the session store notifies the controller
// synchronously from inside those calls.
type Controller struct {
	sessions SessionStore
	profiles ProfileStore
	config   Config
	logger   *slog.Logger
	now      func() time.Time
	sleep    func(ctx context.Context, d time.Duration) error

	mu           sync.Mutex
	session      *identity.Session
	profile      *Profile
	profileErr   *apperr.AppError
	loading      bool
	settled      chan struct{}
	epoch        uint64
	observers    map[int]Observer
	nextObserver int
	subscription identity.Subscription
	disposed     bool

	fetches    singleflight.Group
	reconciles sync.WaitGroup
}

// NewController constructs a Controller in the loading state. Call [Controller.Init]
// before reading it.
func NewController(sessions SessionStore, profiles ProfileStore, config Config, logger *slog.Logger, options ...Option) *Controller {
	if config.MaxAttempts < 1 {
		config.MaxAttempts = 1
	}

	controller := &Controller{
		sessions:  sessions,
		profiles:  profiles,
		config:    config,
		logger:    logger,
		now:       time.Now,
		sleep:     sleepContext,
		loading:   true,
		settled:   make(chan struct{}),
		observers: make(map[int]Observer),
	}
	for _, option := range options {
		option(controller)
	}
	return controller
}

/*
Init subscribes to auth state changes, loads the current session and its
profile, then settles.

Returns:
  - error: A normalized session store failure; the controller still settles
    as unauthenticated so views can render a retry affordance.
*/
func (controller *Controller) Init(ctx context.Context) error {
	subscription := controller.sessions.OnAuthStateChange(controller.handleAuthEvent)

	controller.mu.Lock()
	controller.subscription = subscription
	epoch := controller.epoch
	controller.mu.Unlock()

	callCtx, cancel := context.WithTimeout(ctx, controller.config.CallTimeout)
	session, err := controller.sessions.GetSession(callCtx)
	cancel()

	if err != nil {
		controller.logger.WarnContext(ctx, "auth_session_load_failed", slog.Any("error", err))
		controller.settle(epoch)
		return normalizeSessionError(err)
	}

	if session != nil {
		epoch = controller.beginSession(session)
		_, _ = controller.fetchAndCommit(ctx, epoch, session.UserID)
	}

	controller.settle(epoch)
	return nil
}

// Dispose detaches the controller from the session store and drops observers.
// Background reconciliation already scheduled is not interrupted.
func (controller *Controller) Dispose() {
	controller.mu.Lock()
	subscription := controller.subscription
	controller.subscription = nil
	controller.disposed = true
	controller.observers = make(map[int]Observer)
	controller.mu.Unlock()

	if subscription != nil {
		subscription.Unsubscribe()
	}
}

// Subscribe registers observer and returns a function that removes it.
func (controller *Controller) Subscribe(observer Observer) (unsubscribe func()) {
	controller.mu.Lock()
	defer controller.mu.Unlock()

	id := controller.nextObserver
	controller.nextObserver++
	controller.observers[id] = observer

	return func() {
		controller.mu.Lock()
		defer controller.mu.Unlock()
		delete(controller.observers, id)
	}
}

// Snapshot returns the current state.
func (controller *Controller) Snapshot() Snapshot {
	controller.mu.Lock()
	defer controller.mu.Unlock()
	return controller.snapshotLocked()
}

// WaitSettled blocks until the controller is not loading or ctx ends.
func (controller *Controller) WaitSettled(ctx context.Context) (Snapshot, error) {
	for {
		controller.mu.Lock()
		if !controller.loading {
			snapshot := controller.snapshotLocked()
			controller.mu.Unlock()
			return snapshot, nil
		}
		settled := controller.settled
		controller.mu.Unlock()

		select {
		case <-settled:
		case <-ctx.Done():
			return controller.Snapshot(), ctx.Err()
		}
	}
}

// WaitReconciled blocks until every scheduled sign-up reconciliation has finished.
func (controller *Controller) WaitReconciled() {
	controller.reconciles.Wait()
}

// # Profile Loading

/*
FetchProfile loads the profile of userID and caches it.

Description: A "not found" answer is retried with a fixed delay up to the
configured number of total attempts, then the profile is left unset without
error. Any other failure is logged, cached as the snapshot's ProfileError
and returned, and is not retried. Concurrent calls for the same user share
one store sequence.

Parameters:
  - ctx: context.Context
  - userID: string (must be the current session subject)

Returns:
  - *Profile: nil when still unprovisioned or on failure
  - error: ErrNotAuthenticated or a normalized store failure
*/
func (controller *Controller) FetchProfile(ctx context.Context, userID string) (*Profile, error) {
	controller.mu.Lock()
	epoch := controller.epoch
	current := controller.session
	controller.mu.Unlock()

	if current == nil || current.UserID != userID {
		return nil, ErrNotAuthenticated
	}

	return controller.fetchAndCommit(ctx, epoch, userID)
}

// Refresh re-fetches the current user's profile.
func (controller *Controller) Refresh(ctx context.Context) (*Profile, error) {
	session := controller.Snapshot().Session
	if session == nil {
		return nil, ErrNotAuthenticated
	}
	return controller.FetchProfile(ctx, session.UserID)
}

func (controller *Controller) fetchAndCommit(ctx context.Context, epoch uint64, userID string) (*Profile, error) {
	result, err, _ := controller.fetches.Do(userID, func() (any, error) {
		return controller.fetchWithRetry(ctx, userID)
	})

	profile, _ := result.(*Profile)
	var appErr *apperr.AppError
	if err != nil {
		appErr = normalizeProfileError(err)
	}

	controller.commit(epoch, userID, profile, appErr)

	if appErr != nil {
		return nil, appErr
	}
	return profile.Clone(), nil
}

func (controller *Controller) fetchWithRetry(ctx context.Context, userID string) (*Profile, error) {
	for attempt := 1; ; attempt++ {
		profile, err := controller.selectProfile(ctx, userID)
		switch {
		case err == nil:
			return profile, nil

		case errors.Is(err, ErrProfileNotFound):
			if attempt >= controller.config.MaxAttempts {
				controller.logger.WarnContext(ctx, "profile_fetch_gave_up",
					slog.String("user_id", userID),
					slog.Int("attempts", attempt),
				)
				return nil, nil
			}
			controller.logger.InfoContext(ctx, "profile_fetch_retry",
				slog.String("user_id", userID),
				slog.Int("attempt", attempt),
			)
			if err := controller.sleep(ctx, controller.config.RetryDelay); err != nil {
				return nil, err
			}

		default:
			controller.logger.ErrorContext(ctx, "profile_fetch_failed",
				slog.String("user_id", userID),
				slog.Any("error", err),
			)
			return nil, err
		}
	}
}

func (controller *Controller) selectProfile(ctx context.Context, userID string) (*Profile, error) {
	callCtx, cancel := context.WithTimeout(ctx, controller.config.CallTimeout)
	defer cancel()
	return controller.profiles.SelectByID(callCtx, userID)
}

// # Session Operations

/*
SignUp creates credentials through the session store, passing fullName as
identity metadata, and schedules a best-effort profile reconciliation.

Returns:
  - *identity.Session: The new session
  - error: Session store errors, surfaced verbatim (e.g. "User already registered")
*/
func (controller *Controller) SignUp(ctx context.Context, email, password, fullName string) (*identity.Session, error) {
	callCtx, cancel := context.WithTimeout(ctx, controller.config.CallTimeout)
	session, err := controller.sessions.SignUp(callCtx, email, password, identity.Metadata{FullName: fullName})
	cancel()

	if err != nil {
		return nil, normalizeSessionError(err)
	}
	if session != nil {
		controller.scheduleReconcile(ctx, session.UserID, session.Email, fullName)
	}
	return session, nil
}

// SignIn authenticates through the session store.
func (controller *Controller) SignIn(ctx context.Context, email, password string) (*identity.Session, error) {
	callCtx, cancel := context.WithTimeout(ctx, controller.config.CallTimeout)
	defer cancel()

	session, err := controller.sessions.SignIn(callCtx, email, password)
	if err != nil {
		return nil, normalizeSessionError(err)
	}
	return session, nil
}

/*
SignOut requests global revocation from the session store.

Description: The cached session and profile are cleared whatever the remote
call does, including when it fails or panics.

Returns:
  - error: The normalized remote failure, for information only
*/
func (controller *Controller) SignOut(ctx context.Context) (err error) {
	controller.mu.Lock()
	controller.setLoadingLocked(true)
	snapshot, observers := controller.publishLocked()
	controller.mu.Unlock()
	notify(observers, snapshot)

	defer controller.clear()

	callCtx, cancel := context.WithTimeout(ctx, controller.config.CallTimeout)
	defer cancel()

	if signOutErr := controller.sessions.SignOut(callCtx, identity.ScopeGlobal); signOutErr != nil {
		controller.logger.WarnContext(ctx, "auth_sign_out_remote_failed", slog.Any("error", signOutErr))
		return normalizeSessionError(signOutErr)
	}
	return nil
}

// # Profile Transitions

/*
RequestAdminAccess moves the profile from "none" to "pending" and stamps the
request time, in one conditional update whose returned row becomes the
cached profile.

Returns:
  - *Profile: The updated profile
  - error: ErrNotAuthenticated, ErrNotEligible (nothing written, also for an
    already approved admin), or a normalized store failure
*/
func (controller *Controller) RequestAdminAccess(ctx context.Context) (*Profile, error) {
	snapshot := controller.Snapshot()
	if snapshot.Session == nil || snapshot.Profile == nil {
		return nil, ErrNotAuthenticated
	}
	if !snapshot.Facts.CanRequestAdmin || snapshot.Profile.IsAdminApproved {
		return nil, ErrNotEligible
	}

	requestedAt := controller.now().UTC()
	updated, err := controller.updateProfile(ctx, snapshot.Session.UserID, ProfilePatch{
		AdminRequestStatus: pointer.To(RequestPending),
		AdminRequestedAt:   &requestedAt,
		IfRequestStatus:    pointer.To(RequestNone),
	})
	if err != nil {
		return nil, err
	}

	controller.logger.InfoContext(ctx, "admin_access_requested", slog.String("user_id", updated.ID))
	return updated, nil
}

/*
UpdateProfile changes the user-editable fields of the current profile.
Only the display name is editable; role, approval and request status are not.
*/
func (controller *Controller) UpdateProfile(ctx context.Context, fullName string) (*Profile, error) {
	session := controller.Snapshot().Session
	if session == nil {
		return nil, ErrNotAuthenticated
	}

	fullName = strings.TrimSpace(fullName)
	validator := &validate.Validator{}
	validator.Required(FieldFullName, fullName).MaxLen(FieldFullName, fullName, MaxFullNameLength)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	return controller.updateProfile(ctx, session.UserID, ProfilePatch{FullName: &fullName})
}

/*
FixProfile repairs provisioning leftovers and re-fetches the profile.

Description: A row quarantined as invalid gets its request status reset to
"none" when that status is null or unknown; a valid status is never touched.
A blank or placeholder name is replaced from the session metadata (or the
email). A healthy profile yields ErrNothingToRepair and nothing is written.
*/
func (controller *Controller) FixProfile(ctx context.Context) (*Profile, error) {
	session := controller.Snapshot().Session
	if session == nil {
		return nil, ErrNotAuthenticated
	}

	fullName := displayName(session.Metadata.FullName, session.Email)
	patch := ProfilePatch{RepairFullName: &fullName}

	// ── 1. Read the stored row ──────────────────────────────────────────
	callCtx, cancel := context.WithTimeout(ctx, controller.config.CallTimeout)
	stored, err := controller.profiles.SelectByID(callCtx, session.UserID)
	cancel()

	switch {
	case errors.Is(err, ErrInvalidProfile):
		patch.RepairRequestStatus = true
	case err != nil:
		return nil, controller.repairFailed(ctx, session.UserID, err)
	case !stored.NeedsRepair():
		return nil, ErrNothingToRepair
	}

	// ── 2. Write only the broken columns ────────────────────────────────
	callCtx, cancel = context.WithTimeout(ctx, controller.config.CallTimeout)
	_, err = controller.profiles.Update(callCtx, session.UserID, patch)
	cancel()

	if err != nil && !errors.Is(err, ErrInvalidProfile) {
		return nil, controller.repairFailed(ctx, session.UserID, err)
	}

	controller.logger.InfoContext(ctx, "profile_repaired",
		slog.String("user_id", session.UserID),
		slog.Bool("status_reset", patch.RepairRequestStatus),
	)
	return controller.FetchProfile(ctx, session.UserID)
}

func (controller *Controller) repairFailed(ctx context.Context, userID string, err error) error {
	controller.logger.ErrorContext(ctx, "profile_repair_failed",
		slog.String("user_id", userID),
		slog.Any("error", err),
	)
	return normalizeProfileError(err)
}

func (controller *Controller) updateProfile(ctx context.Context, userID string, patch ProfilePatch) (*Profile, error) {
	callCtx, cancel := context.WithTimeout(ctx, controller.config.CallTimeout)
	updated, err := controller.profiles.Update(callCtx, userID, patch)
	cancel()

	if err != nil {
		controller.logger.WarnContext(ctx, "profile_update_failed",
			slog.String("user_id", userID),
			slog.Any("error", err),
		)
		return nil, normalizeProfileError(err)
	}

	controller.adoptForSubject(userID, updated)
	return updated.Clone(), nil
}

// # Sign-up Reconciliation

func (controller *Controller) scheduleReconcile(ctx context.Context, userID, email, fullName string) {
	controller.reconciles.Add(1)

	// Detached from the caller so the check outlives the sign-up request.
	background := context.WithoutCancel(ctx)

	go func() {
		defer controller.reconciles.Done()

		if err := controller.sleep(background, controller.config.ReconcileDelay); err != nil {
			return
		}

		reconcileCtx, cancel := context.WithTimeout(background, controller.config.CallTimeout)
		defer cancel()
		controller.reconcile(reconcileCtx, userID, email, fullName)
	}()
}

// reconcile makes sure a profile with a display name exists. Failures are logged only.
func (controller *Controller) reconcile(ctx context.Context, userID, email, fullName string) {
	name := displayName(fullName, email)

	profile, err := controller.profiles.SelectByID(ctx, userID)
	switch {
	case errors.Is(err, ErrProfileNotFound):
		profile, err = controller.profiles.Insert(ctx, NewProfile{ID: userID, Email: email, FullName: name})
		if err == nil {
			controller.logger.InfoContext(ctx, "profile_reconcile_created", slog.String("user_id", userID))
		}

	case err != nil:
		controller.logger.WarnContext(ctx, "profile_reconcile_lookup_failed",
			slog.String("user_id", userID),
			slog.Any("error", err),
		)
		return

	case profile.NeedsRepair():
		profile, err = controller.profiles.Update(ctx, userID, ProfilePatch{FullName: &name})
		if err == nil {
			controller.logger.InfoContext(ctx, "profile_reconcile_named", slog.String("user_id", userID))
		}

	default:
		return
	}

	if err != nil {
		controller.logger.WarnContext(ctx, "profile_reconcile_failed",
			slog.String("user_id", userID),
			slog.Any("error", err),
		)
		return
	}

	controller.adoptForSubject(userID, profile)
}

func displayName(fullName, email string) string {
	if name := strings.TrimSpace(fullName); name != "" {
		return name
	}
	return email
}

// # Auth Events

// handleAuthEvent resynchronizes the cached session and profile on every change.
func (controller *Controller) handleAuthEvent(ctx context.Context, event identity.Event) {
	controller.mu.Lock()
	disposed := controller.disposed
	controller.mu.Unlock()
	if disposed {
		return
	}

	if event.Session == nil {
		controller.clear()
		return
	}

	epoch := controller.beginSession(event.Session)
	_, _ = controller.fetchAndCommit(ctx, epoch, event.Session.UserID)
	controller.settle(epoch)
}

// # State Mutation

// beginSession adopts session, invalidates in-flight fetches and enters loading.
func (controller *Controller) beginSession(session *identity.Session) uint64 {
	controller.mu.Lock()
	controller.epoch++
	if controller.session == nil || controller.session.UserID != session.UserID {
		controller.profile = nil
		controller.profileErr = nil
	}
	copied := *session
	controller.session = &copied
	controller.setLoadingLocked(true)
	epoch := controller.epoch
	snapshot, observers := controller.publishLocked()
	controller.mu.Unlock()

	notify(observers, snapshot)
	return epoch
}

// commit stores a fetch result unless a later session event superseded it.
func (controller *Controller) commit(epoch uint64, userID string, profile *Profile, appErr *apperr.AppError) {
	controller.mu.Lock()
	if controller.epoch != epoch || controller.session == nil || controller.session.UserID != userID {
		controller.mu.Unlock()
		controller.logger.Debug("profile_fetch_stale_discarded", slog.String("user_id", userID))
		return
	}

	controller.profile = profile.Clone()
	controller.profileErr = appErr
	snapshot, observers := controller.publishLocked()
	controller.mu.Unlock()

	notify(observers, snapshot)
}

// adoptForSubject caches a row returned by a write if it still belongs to the session subject.
func (controller *Controller) adoptForSubject(userID string, profile *Profile) {
	controller.mu.Lock()
	if controller.session == nil || controller.session.UserID != userID {
		controller.mu.Unlock()
		return
	}

	controller.profile = profile.Clone()
	controller.profileErr = nil
	snapshot, observers := controller.publishLocked()
	controller.mu.Unlock()

	notify(observers, snapshot)
}

// clear drops the session and profile unconditionally.
func (controller *Controller) clear() {
	controller.mu.Lock()
	controller.epoch++
	controller.session = nil
	controller.profile = nil
	controller.profileErr = nil
	controller.setLoadingLocked(false)
	snapshot, observers := controller.publishLocked()
	controller.mu.Unlock()

	notify(observers, snapshot)
}

// settle leaves the loading state if no later session event took over.
func (controller *Controller) settle(epoch uint64) {
	controller.mu.Lock()
	if controller.epoch != epoch || !controller.loading {
		controller.mu.Unlock()
		return
	}
	controller.setLoadingLocked(false)
	snapshot, observers := controller.publishLocked()
	controller.mu.Unlock()

	notify(observers, snapshot)
}

func (controller *Controller) setLoadingLocked(loading bool) {
	if loading == controller.loading {
		return
	}
	controller.loading = loading
	if loading {
		controller.settled = make(chan struct{})
	} else {
		close(controller.settled)
	}
}

func (controller *Controller) snapshotLocked() Snapshot {
	var session *identity.Session
	if controller.session != nil {
		copied := *controller.session
		session = &copied
	}
	profile := controller.profile.Clone()

	return Snapshot{
		Session:      session,
		Profile:      profile,
		Loading:      controller.loading,
		Facts:        DeriveFacts(profile),
		State:        DeriveState(session, profile),
		ProfileError: controller.profileErr,
	}
}

func (controller *Controller) publishLocked() (Snapshot, []Observer) {
	observers := make([]Observer, 0, len(controller.observers))
	for _, observer := range controller.observers {
		observers = append(observers, observer)
	}
	return controller.snapshotLocked(), observers
}

func notify(observers []Observer, snapshot Snapshot) {
	for _, observer := range observers {
		observer(snapshot)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

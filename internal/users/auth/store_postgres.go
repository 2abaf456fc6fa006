// Copyright (c) 2026 Flow Immersive. All rights reserved.
// Author: Flow Immersive Engineering

package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flowimmersive/flowsite/internal/platform/database/schema"
)

// PostgresProfileStore implements [ProfileStore] on public.user_profiles.
//
// Rows are scanned into a [RawProfile] and validated, so a row with an
// unknown role or a null status surfaces as [ErrInvalidProfile] instead of
// leaking into authorization decisions.
type PostgresProfileStore struct {
	pool *pgxpool.Pool
}

// NewProfileStore creates a new PostgreSQL implementation of the ProfileStore.
func NewProfileStore(pool *pgxpool.Pool) *PostgresProfileStore {
	return &PostgresProfileStore{pool: pool}
}

var profileColumns = strings.Join(schema.UserProfile.Columns(), ", ")

func scanProfile(row pgx.Row) (*Profile, error) {
	var raw RawProfile
	err := row.Scan(
		&raw.ID,
		&raw.Email,
		&raw.FullName,
		&raw.Role,
		&raw.IsAdminApproved,
		&raw.AdminRequestStatus,
		&raw.AdminRequestedAt,
		&raw.CreatedAt,
		&raw.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return raw.Validate()
}

/*
SelectByID retrieves a profile by user id.

Parameters:
  - ctx: context.Context
  - id: string (user UUID)

Returns:
  - *Profile: Validated entity
  - error: ErrProfileNotFound, ErrInvalidProfile or wrapped storage errors
*/
func (store *PostgresProfileStore) SelectByID(ctx context.Context, id string) (*Profile, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		profileColumns, schema.UserProfile.Table, schema.UserProfile.ID)

	profile, err := scanProfile(store.pool.QueryRow(ctx, query, id))
	if err != nil && !errors.Is(err, ErrProfileNotFound) && !errors.Is(err, ErrInvalidProfile) {
		return nil, fmt.Errorf("postgres_profile_store_select_failed: %w", err)
	}
	return profile, err
}

/*
Update applies a partial update in a single UPDATE ... RETURNING statement.

Description: When patch.IfRequestStatus is set, the WHERE clause also matches
the stored status; a row that exists but no longer matches yields
ErrRequestConflict and is left untouched.

Parameters:
  - ctx: context.Context
  - id: string
  - patch: ProfilePatch

Returns:
  - *Profile: The row after the update
  - error: ErrProfileNotFound, ErrRequestConflict, ErrInvalidProfile or storage errors
*/
func (store *PostgresProfileStore) Update(ctx context.Context, id string, patch ProfilePatch) (*Profile, error) {
	if patch.IsEmpty() {
		return store.SelectByID(ctx, id)
	}

	columns := schema.UserProfile
	args := []any{id}
	var sets []string

	set := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.FullName != nil {
		set(columns.FullName, *patch.FullName)
	} else if patch.RepairFullName != nil {
		args = append(args, *patch.RepairFullName, PlaceholderFullName)
		sets = append(sets, fmt.Sprintf("%[1]s = CASE WHEN btrim(coalesce(%[1]s, '')) IN ('', $%[3]d) THEN $%[2]d ELSE %[1]s END",
			columns.FullName, len(args)-1, len(args)))
	}
	if patch.Role != nil {
		set(columns.Role, string(*patch.Role))
	}
	if patch.IsAdminApproved != nil {
		set(columns.IsAdminApproved, *patch.IsAdminApproved)
	}
	if patch.AdminRequestStatus != nil {
		set(columns.AdminRequestStatus, string(*patch.AdminRequestStatus))
	} else if patch.RepairRequestStatus {
		args = append(args, string(RequestNone), string(RequestPending), string(RequestRejected))
		n := len(args)
		sets = append(sets, fmt.Sprintf("%[1]s = CASE WHEN %[1]s IN ($%[2]d, $%[3]d, $%[4]d) THEN %[1]s ELSE $%[2]d END",
			columns.AdminRequestStatus, n-2, n-1, n))
	}
	if patch.AdminRequestedAt != nil {
		set(columns.AdminRequestedAt, *patch.AdminRequestedAt)
	} else if patch.ClearRequestedAt {
		sets = append(sets, columns.AdminRequestedAt+" = NULL")
	}
	sets = append(sets, columns.UpdatedAt+" = now()")

	where := columns.ID + " = $1"
	if patch.IfRequestStatus != nil {
		args = append(args, string(*patch.IfRequestStatus))
		where += fmt.Sprintf(" AND %s = $%d", columns.AdminRequestStatus, len(args))
	}

	query := fmt.Sprintf(`UPDATE %s SET %s WHERE %s RETURNING %s`,
		columns.Table, strings.Join(sets, ", "), where, profileColumns)

	profile, err := scanProfile(store.pool.QueryRow(ctx, query, args...))
	switch {
	case err == nil:
		return profile, nil
	case errors.Is(err, ErrProfileNotFound) && patch.IfRequestStatus != nil:
		// Distinguish "no such row" from "precondition failed".
		if _, selectErr := store.SelectByID(ctx, id); selectErr == nil || errors.Is(selectErr, ErrInvalidProfile) {
			return nil, ErrRequestConflict
		}
		return nil, ErrProfileNotFound
	case errors.Is(err, ErrProfileNotFound), errors.Is(err, ErrInvalidProfile):
		return nil, err
	default:
		return nil, fmt.Errorf("postgres_profile_store_update_failed: %w", err)
	}
}

/*
Insert creates a profile with store defaults unless the row already exists.

Returns:
  - *Profile: The stored row (pre-existing or new)
  - error: Storage errors (e.g. no matching auth.users row)
*/
func (store *PostgresProfileStore) Insert(ctx context.Context, profile NewProfile) (*Profile, error) {
	columns := schema.UserProfile
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s)
		VALUES ($1, $2, $3)
		ON CONFLICT (%s) DO NOTHING`,
		columns.Table, columns.ID, columns.Email, columns.FullName, columns.ID)

	if _, err := store.pool.Exec(ctx, query, profile.ID, profile.Email, profile.FullName); err != nil {
		return nil, fmt.Errorf("postgres_profile_store_insert_failed: %w", err)
	}

	return store.SelectByID(ctx, profile.ID)
}

/*
ListByRequestStatus returns profiles in the given workflow status, oldest request first.

Description: Operator tooling only; rows that fail validation are skipped and counted.

Returns:
  - []*Profile: Matching profiles
  - int: Number of quarantined rows skipped
  - error: Storage errors
*/
func (store *PostgresProfileStore) ListByRequestStatus(ctx context.Context, status RequestStatus) ([]*Profile, int, error) {
	columns := schema.UserProfile
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 ORDER BY %s NULLS LAST, %s`,
		profileColumns, columns.Table, columns.AdminRequestStatus, columns.AdminRequestedAt, columns.CreatedAt)

	rows, err := store.pool.Query(ctx, query, string(status))
	if err != nil {
		return nil, 0, fmt.Errorf("postgres_profile_store_list_failed: %w", err)
	}
	defer rows.Close()

	var (
		profiles    []*Profile
		quarantined int
	)
	for rows.Next() {
		profile, err := scanProfile(rows)
		if errors.Is(err, ErrInvalidProfile) {
			quarantined++
			continue
		}
		if err != nil {
			return nil, 0, fmt.Errorf("postgres_profile_store_scan_failed: %w", err)
		}
		profiles = append(profiles, profile)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("postgres_profile_store_list_failed: %w", err)
	}

	return profiles, quarantined, nil
}

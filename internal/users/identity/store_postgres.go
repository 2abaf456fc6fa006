// Copyright (c) 2026 Flow Immersive. All rights reserved.
// Author: Flow Immersive Engineering

package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flowimmersive/flowsite/internal/platform/database/schema"
	"github.com/flowimmersive/flowsite/internal/platform/dberr"
)

// PostgresAccountRepository implements [AccountRepository] on the auth.users table.
//
// Inserting an account fires the database trigger that provisions the
// matching user profile row.
type PostgresAccountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository creates a new PostgreSQL implementation of the AccountRepository.
func NewAccountRepository(pool *pgxpool.Pool) *PostgresAccountRepository {
	return &PostgresAccountRepository{pool: pool}
}

/*
Create persists a new account into auth.users.

Parameters:
  - ctx: context.Context
  - account: *Account (ID, Email and PasswordHash must be set)

Returns:
  - error: ErrUserExists on a duplicate email, wrapped storage errors otherwise
*/
func (repository *PostgresAccountRepository) Create(ctx context.Context, account *Account) error {
	metadata, err := json.Marshal(account.Metadata)
	if err != nil {
		return fmt.Errorf("postgres_account_repo_marshal_failed: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, $5)`,
		schema.AuthUser.Table,
		schema.AuthUser.ID, schema.AuthUser.Email, schema.AuthUser.Password,
		schema.AuthUser.Metadata, schema.AuthUser.CreatedAt, schema.AuthUser.UpdatedAt,
	)

	now := time.Now().UTC()
	_, err = repository.pool.Exec(ctx, query,
		account.ID,
		account.Email,
		account.PasswordHash,
		metadata,
		now,
	)
	if err != nil {
		if dberr.IsUniqueViolation(err) {
			return ErrUserExists
		}
		return fmt.Errorf("postgres_account_repo_create_failed: %w", err)
	}

	account.CreatedAt = now
	account.UpdatedAt = now
	return nil
}

/*
FindByEmail retrieves an account by its case-folded email address.

Parameters:
  - ctx: context.Context
  - email: string

Returns:
  - *Account: Hydrated entity
  - error: ErrInvalidCredentials when absent, wrapped storage errors otherwise
*/
func (repository *PostgresAccountRepository) FindByEmail(ctx context.Context, email string) (*Account, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE lower(%s) = $1`,
		strings.Join(schema.AuthUser.Columns(), ", "),
		schema.AuthUser.Table,
		schema.AuthUser.Email,
	)

	var (
		account  Account
		metadata []byte
	)
	err := repository.pool.QueryRow(ctx, query, strings.ToLower(email)).Scan(
		&account.ID,
		&account.Email,
		&account.PasswordHash,
		&metadata,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("postgres_account_repo_find_by_email_failed: %w", err)
	}

	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &account.Metadata); err != nil {
			return nil, fmt.Errorf("postgres_account_repo_metadata_corrupt: %w", err)
		}
	}

	return &account, nil
}

// Copyright (c) 2026 Flow Immersive. All rights reserved.
// Author: Flow Immersive Engineering

package blog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flowimmersive/flowsite/internal/platform/database/schema"
	"github.com/flowimmersive/flowsite/internal/platform/dberr"
)

// PostgresRepository implements [Repository] on public.blogs.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository constructs a [PostgresRepository].
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

var postColumns = strings.Join(schema.Blog.Columns(), ", ")

func scanPost(row pgx.Row) (*Post, error) {
	post := &Post{}
	err := row.Scan(
		&post.ID, &post.Title, &post.Slug, &post.Content, &post.Excerpt, &post.FeaturedImage,
		&post.Published, &post.AuthorID, &post.CreatedAt, &post.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return post, nil
}

func (repository *PostgresRepository) List(ctx context.Context, filter Filter, limit, offset int) ([]*Post, int, error) {
	where := "TRUE"
	if filter.PublishedOnly {
		where = fmt.Sprintf("%s = TRUE", schema.Blog.Published)
	}

	countQuery := fmt.Sprintf(`SELECT count(*) FROM %s WHERE %s`, schema.Blog.Table, where)

	var total int
	if err := repository.pool.QueryRow(ctx, countQuery).Scan(&total); err != nil {
		return nil, 0, dberr.Wrap(err, "count_posts")
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE %s
		ORDER BY %s DESC
		LIMIT $1 OFFSET $2
	`, postColumns, schema.Blog.Table, where, schema.Blog.CreatedAt)

	rows, err := repository.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "list_posts")
	}
	defer rows.Close()

	posts := make([]*Post, 0, limit)
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, 0, dberr.Wrap(err, "scan_post")
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, dberr.Wrap(err, "list_posts")
	}

	return posts, total, nil
}

func (repository *PostgresRepository) FindByID(ctx context.Context, id string) (*Post, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`, postColumns, schema.Blog.Table, schema.Blog.ID)

	post, err := scanPost(repository.pool.QueryRow(ctx, query, id))
	return post, wrapPostError(err, "get_post")
}

func (repository *PostgresRepository) FindBySlug(ctx context.Context, slug string, publishedOnly bool) (*Post, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 AND ($2 = FALSE OR %s = TRUE)`,
		postColumns, schema.Blog.Table, schema.Blog.Slug, schema.Blog.Published,
	)

	post, err := scanPost(repository.pool.QueryRow(ctx, query, slug, publishedOnly))
	return post, wrapPostError(err, "get_post_by_slug")
}

func (repository *PostgresRepository) Create(ctx context.Context, post *Post) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING %s, %s
	`,
		schema.Blog.Table, schema.Blog.ID, schema.Blog.Title, schema.Blog.Slug, schema.Blog.Content,
		schema.Blog.Excerpt, schema.Blog.FeaturedImage, schema.Blog.Published, schema.Blog.AuthorID,
		schema.Blog.CreatedAt, schema.Blog.UpdatedAt,
	)

	err := repository.pool.QueryRow(ctx, query,
		post.ID, post.Title, post.Slug, post.Content, post.Excerpt, post.FeaturedImage, post.Published, post.AuthorID,
	).Scan(&post.CreatedAt, &post.UpdatedAt)

	return wrapPostError(err, "create_post")
}

func (repository *PostgresRepository) Update(ctx context.Context, post *Post) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = $2, %s = $3, %s = $4, %s = $5, %s = $6, %s = $7, %s = now()
		WHERE %s = $1
		RETURNING %s
	`,
		schema.Blog.Table, schema.Blog.Title, schema.Blog.Slug, schema.Blog.Content, schema.Blog.Excerpt,
		schema.Blog.FeaturedImage, schema.Blog.Published, schema.Blog.UpdatedAt,
		schema.Blog.ID, postColumns,
	)

	updated, err := scanPost(repository.pool.QueryRow(ctx, query,
		post.ID, post.Title, post.Slug, post.Content, post.Excerpt, post.FeaturedImage, post.Published,
	))
	if err != nil {
		return wrapPostError(err, "update_post")
	}

	*post = *updated
	return nil
}

func (repository *PostgresRepository) SetPublished(ctx context.Context, id string, published bool) (*Post, error) {
	query := fmt.Sprintf(`UPDATE %s SET %s = $2, %s = now() WHERE %s = $1 RETURNING %s`,
		schema.Blog.Table, schema.Blog.Published, schema.Blog.UpdatedAt, schema.Blog.ID, postColumns,
	)

	post, err := scanPost(repository.pool.QueryRow(ctx, query, id, published))
	return post, wrapPostError(err, "set_post_published")
}

func (repository *PostgresRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, schema.Blog.Table, schema.Blog.ID)

	tag, err := repository.pool.Exec(ctx, query, id)
	if err != nil {
		return dberr.Wrap(err, "delete_post")
	}
	if tag.RowsAffected() == 0 {
		return ErrPostNotFound
	}
	return nil
}

func wrapPostError(err error, action string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, pgx.ErrNoRows):
		return ErrPostNotFound
	case dberr.IsUniqueViolation(err):
		return ErrSlugTaken
	default:
		return dberr.Wrap(err, action)
	}
}

// Copyright (c) 2026 Flow Immersive. All rights reserved.
// Author: Flow Immersive Engineering

package blog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/flowimmersive/flowsite/internal/platform/validate"
	"github.com/flowimmersive/flowsite/pkg/markdown"
	"github.com/flowimmersive/flowsite/pkg/pagination"
	"github.com/flowimmersive/flowsite/pkg/pointer"
	"github.com/flowimmersive/flowsite/pkg/slice"
	"github.com/flowimmersive/flowsite/pkg/slug"
	"github.com/flowimmersive/flowsite/pkg/uuid"
)

// Service implements the blog use cases.
//
// Published reads go through the cache; any write invalidates it. Cache
// failures are logged and never fail a request.
type Service struct {
	repo    Repository
	cache   Cache
	timeout time.Duration
	logger  *slog.Logger
}

// NewService constructs a [Service]. A nil cache disables caching.
func NewService(repo Repository, cache Cache, timeout time.Duration, logger *slog.Logger) *Service {
	if cache == nil {
		cache = noCache{}
	}
	return &Service{repo: repo, cache: cache, timeout: timeout, logger: logger}
}

// Page is one page of posts.
type Page struct {
	Posts []*Post `json:"posts"`
	Total int     `json:"total"`
}

// # Public Reads

// ListPublished returns published posts, newest first.
func (service *Service) ListPublished(ctx context.Context, params pagination.Params) (*Page, error) {
	key := fmt.Sprintf("published:%d:%d", params.Page, params.Limit)

	page := &Page{}
	if service.cacheGet(ctx, key, page) {
		return page, nil
	}

	page, err := service.list(ctx, Filter{PublishedOnly: true}, params)
	if err != nil {
		return nil, err
	}

	service.cacheSet(ctx, key, page)
	return page, nil
}

// GetPublished returns a published post by slug. Drafts are reported as not found.
func (service *Service) GetPublished(ctx context.Context, postSlug string) (*Post, error) {
	key := "slug:" + postSlug

	post := &Post{}
	if service.cacheGet(ctx, key, post) {
		return post, nil
	}

	callCtx, cancel := context.WithTimeout(ctx, service.timeout)
	defer cancel()

	post, err := service.repo.FindBySlug(callCtx, postSlug, true)
	if err != nil {
		return nil, err
	}

	decorate(post)
	service.cacheSet(ctx, key, post)
	return post, nil
}

// # Admin

// ListAll returns every post including drafts, newest first.
func (service *Service) ListAll(ctx context.Context, params pagination.Params) (*Page, error) {
	return service.list(ctx, Filter{}, params)
}

// Get returns any post by id.
func (service *Service) Get(ctx context.Context, id string) (*Post, error) {
	if !uuid.Valid(id) {
		return nil, ErrPostNotFound
	}

	callCtx, cancel := context.WithTimeout(ctx, service.timeout)
	defer cancel()

	post, err := service.repo.FindByID(callCtx, id)
	if err != nil {
		return nil, err
	}
	return decorate(post), nil
}

/*
Create validates input and stores a new post authored by authorID.

Description: The slug is derived from the title. A blank excerpt is
generated from the first characters of the rendered text.

Returns:
  - *Post: The stored post
  - error: Validation errors, ErrSlugTaken, or storage errors
*/
func (service *Service) Create(ctx context.Context, authorID string, input Input) (*Post, error) {
	post, err := build(input)
	if err != nil {
		return nil, err
	}
	post.ID = uuid.New()
	if authorID != "" {
		post.AuthorID = &authorID
	}

	callCtx, cancel := context.WithTimeout(ctx, service.timeout)
	defer cancel()

	if err := service.repo.Create(callCtx, post); err != nil {
		return nil, err
	}

	service.invalidate(ctx)
	service.logger.InfoContext(ctx, "blog_post_created",
		slog.String("post_id", post.ID),
		slog.String("slug", post.Slug),
		slog.Bool("published", post.Published),
	)
	return decorate(post), nil
}

// Update replaces the editable fields of a post and re-derives its slug.
func (service *Service) Update(ctx context.Context, id string, input Input) (*Post, error) {
	if !uuid.Valid(id) {
		return nil, ErrPostNotFound
	}

	post, err := build(input)
	if err != nil {
		return nil, err
	}
	post.ID = id

	callCtx, cancel := context.WithTimeout(ctx, service.timeout)
	defer cancel()

	if err := service.repo.Update(callCtx, post); err != nil {
		return nil, err
	}

	service.invalidate(ctx)
	service.logger.InfoContext(ctx, "blog_post_updated", slog.String("post_id", id))
	return decorate(post), nil
}

// TogglePublished flips the published flag of a post.
func (service *Service) TogglePublished(ctx context.Context, id string) (*Post, error) {
	current, err := service.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, service.timeout)
	defer cancel()

	post, err := service.repo.SetPublished(callCtx, id, !current.Published)
	if err != nil {
		return nil, err
	}

	service.invalidate(ctx)
	service.logger.InfoContext(ctx, "blog_post_publish_toggled",
		slog.String("post_id", id),
		slog.Bool("published", post.Published),
	)
	return decorate(post), nil
}

// Delete removes a post.
func (service *Service) Delete(ctx context.Context, id string) error {
	if !uuid.Valid(id) {
		return ErrPostNotFound
	}

	callCtx, cancel := context.WithTimeout(ctx, service.timeout)
	defer cancel()

	if err := service.repo.Delete(callCtx, id); err != nil {
		return err
	}

	service.invalidate(ctx)
	service.logger.WarnContext(ctx, "blog_post_deleted", slog.String("post_id", id))
	return nil
}

// # Helpers

func (service *Service) list(ctx context.Context, filter Filter, params pagination.Params) (*Page, error) {
	callCtx, cancel := context.WithTimeout(ctx, service.timeout)
	defer cancel()

	posts, total, err := service.repo.List(callCtx, filter, params.Limit, params.Offset())
	if err != nil {
		return nil, err
	}
	return &Page{Posts: slice.Map(posts, decorate), Total: total}, nil
}

// build validates input and turns it into an unsaved post.
func build(input Input) (*Post, error) {
	title := strings.TrimSpace(input.Title)
	content := strings.TrimSpace(input.Content)
	excerpt := strings.TrimSpace(input.Excerpt)
	postSlug := slug.From(title)

	validator := &validate.Validator{}
	validator.Required(FieldTitle, title).MaxLen(FieldTitle, title, MaxTitleLength)
	validator.Custom(FieldTitle, title != "" && postSlug == "", "must contain at least one letter or digit")
	validator.Required(FieldContent, content)
	validator.MaxLen(FieldExcerpt, excerpt, MaxExcerptLength)
	image := strings.TrimSpace(pointer.Val(input.FeaturedImage))
	validator.Optional(image, func(v *validate.Validator) {
		v.Custom(FieldFeaturedImage, !isHTTPURL(image), "must be an http(s) URL")
	})
	if err := validator.Err(); err != nil {
		return nil, err
	}

	if excerpt == "" {
		excerpt = markdown.Excerpt(content, ExcerptLength)
	}

	post := &Post{
		Title:     title,
		Slug:      postSlug,
		Content:   content,
		Excerpt:   excerpt,
		Published: input.Published,
	}
	if image != "" {
		post.FeaturedImage = &image
	}
	return post, nil
}

func isHTTPURL(raw string) bool {
	raw = strings.TrimSpace(raw)
	return strings.HasPrefix(raw, "https://") || strings.HasPrefix(raw, "http://")
}

func decorate(post *Post) *Post {
	post.ReadingMinutes = markdown.ReadingMinutes(post.Content)
	return post
}

func (service *Service) cacheGet(ctx context.Context, key string, target any) bool {
	hit, err := service.cache.Get(ctx, key, target)
	if err != nil {
		service.logger.WarnContext(ctx, "blog_cache_get_failed", slog.String("key", key), slog.Any("error", err))
		return false
	}
	return hit
}

func (service *Service) cacheSet(ctx context.Context, key string, value any) {
	if err := service.cache.Set(ctx, key, value); err != nil {
		service.logger.WarnContext(ctx, "blog_cache_set_failed", slog.String("key", key), slog.Any("error", err))
	}
}

func (service *Service) invalidate(ctx context.Context) {
	if err := service.cache.Invalidate(ctx); err != nil {
		service.logger.WarnContext(ctx, "blog_cache_invalidate_failed", slog.Any("error", err))
	}
}

// Copyright (c) 2026 Flow Immersive. All rights reserved.
// Author: Flow Immersive Engineering

package blog_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowimmersive/flowsite/internal/content/blog"
	"github.com/flowimmersive/flowsite/internal/platform/apperr"
	"github.com/flowimmersive/flowsite/pkg/pagination"
)

// # Doubles

type memoryRepository struct {
	mu    sync.Mutex
	posts map[string]*blog.Post
	clock time.Time
	calls int
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{
		posts: make(map[string]*blog.Post),
		clock: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (repo *memoryRepository) List(_ context.Context, filter blog.Filter, limit, offset int) ([]*blog.Post, int, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	repo.calls++

	var matched []*blog.Post
	for _, post := range repo.posts {
		if filter.PublishedOnly && !post.Published {
			continue
		}
		copied := *post
		matched = append(matched, &copied)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })

	total := len(matched)
	if offset >= total {
		return []*blog.Post{}, total, nil
	}
	return matched[offset:min(offset+limit, total)], total, nil
}

func (repo *memoryRepository) FindByID(_ context.Context, id string) (*blog.Post, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	repo.calls++

	post, ok := repo.posts[id]
	if !ok {
		return nil, blog.ErrPostNotFound
	}
	copied := *post
	return &copied, nil
}

func (repo *memoryRepository) FindBySlug(_ context.Context, slug string, publishedOnly bool) (*blog.Post, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	repo.calls++

	for _, post := range repo.posts {
		if post.Slug == slug && (!publishedOnly || post.Published) {
			copied := *post
			return &copied, nil
		}
	}
	return nil, blog.ErrPostNotFound
}

func (repo *memoryRepository) Create(_ context.Context, post *blog.Post) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	repo.calls++

	for _, existing := range repo.posts {
		if existing.Slug == post.Slug {
			return blog.ErrSlugTaken
		}
	}
	repo.clock = repo.clock.Add(time.Minute)
	post.CreatedAt, post.UpdatedAt = repo.clock, repo.clock
	copied := *post
	repo.posts[post.ID] = &copied
	return nil
}

func (repo *memoryRepository) Update(_ context.Context, post *blog.Post) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	repo.calls++

	existing, ok := repo.posts[post.ID]
	if !ok {
		return blog.ErrPostNotFound
	}
	for id, other := range repo.posts {
		if id != post.ID && other.Slug == post.Slug {
			return blog.ErrSlugTaken
		}
	}
	post.AuthorID, post.CreatedAt = existing.AuthorID, existing.CreatedAt
	post.UpdatedAt = repo.clock.Add(time.Hour)
	copied := *post
	repo.posts[post.ID] = &copied
	return nil
}

func (repo *memoryRepository) SetPublished(_ context.Context, id string, published bool) (*blog.Post, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	repo.calls++

	post, ok := repo.posts[id]
	if !ok {
		return nil, blog.ErrPostNotFound
	}
	post.Published = published
	copied := *post
	return &copied, nil
}

func (repo *memoryRepository) Delete(_ context.Context, id string) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	repo.calls++

	if _, ok := repo.posts[id]; !ok {
		return blog.ErrPostNotFound
	}
	delete(repo.posts, id)
	return nil
}

func (repo *memoryRepository) callCount() int {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	return repo.calls
}

// memoryCache mirrors the versioned Redis cache.
type memoryCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	getErr  error
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string][]byte)}
}

func (cache *memoryCache) Get(_ context.Context, key string, target any) (bool, error) {
	cache.mu.Lock()
	defer cache.mu.Unlock()
	if cache.getErr != nil {
		return false, cache.getErr
	}
	payload, ok := cache.entries[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(payload, target)
}

func (cache *memoryCache) Set(_ context.Context, key string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	cache.mu.Lock()
	defer cache.mu.Unlock()
	cache.entries[key] = payload
	return nil
}

func (cache *memoryCache) Invalidate(context.Context) error {
	cache.mu.Lock()
	defer cache.mu.Unlock()
	cache.entries = make(map[string][]byte)
	return nil
}

func newService(repo blog.Repository, cache blog.Cache) *blog.Service {
	return blog.NewService(repo, cache, time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// # Tests

/*
TestService_CreateDerivesSlugAndExcerpt checks the fields computed from the
markdown input.
*/
func TestService_CreateDerivesSlugAndExcerpt(t *testing.T) {
	ctx := context.Background()
	service := newService(newMemoryRepository(), nil)

	content := "# Seeing Data\n\n" + strings.Repeat("word ", 450)
	post, err := service.Create(ctx, "author-1", blog.Input{
		Title:   "  Data Stories in VR!  ",
		Content: content,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, post.ID)
	assert.Equal(t, "Data Stories in VR!", post.Title)
	assert.Equal(t, "data-stories-in-vr", post.Slug)
	assert.True(t, strings.HasPrefix(post.Excerpt, "Seeing Data word"))
	assert.True(t, strings.HasSuffix(post.Excerpt, "..."))
	assert.LessOrEqual(t, len([]rune(post.Excerpt)), blog.ExcerptLength+3)
	assert.Equal(t, 3, post.ReadingMinutes)
	require.NotNil(t, post.AuthorID)
	assert.Equal(t, "author-1", *post.AuthorID)
	assert.False(t, post.Published)
}

func TestService_CreateKeepsManualExcerpt(t *testing.T) {
	service := newService(newMemoryRepository(), nil)

	post, err := service.Create(context.Background(), "", blog.Input{
		Title: "Hello", Content: "Body", Excerpt: " Short teaser ",
	})
	require.NoError(t, err)

	assert.Equal(t, "Short teaser", post.Excerpt)
	assert.Nil(t, post.AuthorID)
}

func TestService_CreateValidation(t *testing.T) {
	service := newService(newMemoryRepository(), nil)
	image := "ftp://example.com/a.png"

	tests := []struct {
		name  string
		input blog.Input
		field string
	}{
		{"missing_title", blog.Input{Content: "x"}, blog.FieldTitle},
		{"symbol_title", blog.Input{Title: "!!!", Content: "x"}, blog.FieldTitle},
		{"missing_content", blog.Input{Title: "Hello"}, blog.FieldContent},
		{"bad_image", blog.Input{Title: "Hello", Content: "x", FeaturedImage: &image}, blog.FieldFeaturedImage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.Create(context.Background(), "", tt.input)

			appErr := apperr.As(err)
			require.NotNil(t, appErr)
			assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
			require.NotEmpty(t, appErr.Details)
			assert.Equal(t, tt.field, appErr.Details[0].Field)
		})
	}
}

func TestService_CreateTrimsFeaturedImage(t *testing.T) {
	service := newService(newMemoryRepository(), nil)
	blank, padded := "   ", " https://cdn.example.com/a.png "

	post, err := service.Create(context.Background(), "", blog.Input{Title: "Blank", Content: "x", FeaturedImage: &blank})
	require.NoError(t, err)
	assert.Nil(t, post.FeaturedImage)

	post, err = service.Create(context.Background(), "", blog.Input{Title: "Padded", Content: "x", FeaturedImage: &padded})
	require.NoError(t, err)
	require.NotNil(t, post.FeaturedImage)
	assert.Equal(t, "https://cdn.example.com/a.png", *post.FeaturedImage)
}

func TestService_DuplicateSlug(t *testing.T) {
	ctx := context.Background()
	service := newService(newMemoryRepository(), nil)

	_, err := service.Create(ctx, "", blog.Input{Title: "Hello World", Content: "a"})
	require.NoError(t, err)

	_, err = service.Create(ctx, "", blog.Input{Title: "hello, world", Content: "b"})
	assert.ErrorIs(t, err, blog.ErrSlugTaken)
}

/*
TestService_PublishedReadsAreCachedAndInvalidated checks that drafts stay
hidden and that writes drop cached pages.
*/
func TestService_PublishedReadsAreCachedAndInvalidated(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepository()
	service := newService(repo, newMemoryCache())
	params := pagination.Params{Page: 1, Limit: 12}

	draft, err := service.Create(ctx, "", blog.Input{Title: "Draft", Content: "a"})
	require.NoError(t, err)
	_, err = service.Create(ctx, "", blog.Input{Title: "Live", Content: "b", Published: true})
	require.NoError(t, err)

	// 1. Only published posts are listed
	page, err := service.ListPublished(ctx, params)
	require.NoError(t, err)
	require.Len(t, page.Posts, 1)
	assert.Equal(t, "live", page.Posts[0].Slug)

	_, err = service.GetPublished(ctx, "draft")
	assert.ErrorIs(t, err, blog.ErrPostNotFound)

	// 2. A second read is served from the cache
	calls := repo.callCount()
	_, err = service.ListPublished(ctx, params)
	require.NoError(t, err)
	assert.Equal(t, calls, repo.callCount())

	// 3. Publishing the draft invalidates
	toggled, err := service.TogglePublished(ctx, draft.ID)
	require.NoError(t, err)
	assert.True(t, toggled.Published)

	page, err = service.ListPublished(ctx, params)
	require.NoError(t, err)
	require.Len(t, page.Posts, 2)
	assert.Equal(t, "live", page.Posts[0].Slug)
	assert.Equal(t, "draft", page.Posts[1].Slug)

	post, err := service.GetPublished(ctx, "draft")
	require.NoError(t, err)
	assert.Equal(t, draft.ID, post.ID)
}

func TestService_CacheFailureFallsBackToStore(t *testing.T) {
	ctx := context.Background()
	cache := newMemoryCache()
	cache.getErr = errors.New("redis: connection pool timeout")
	service := newService(newMemoryRepository(), cache)

	_, err := service.Create(ctx, "", blog.Input{Title: "Live", Content: "b", Published: true})
	require.NoError(t, err)

	post, err := service.GetPublished(ctx, "live")
	require.NoError(t, err)
	assert.Equal(t, "Live", post.Title)
}

func TestService_UpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	service := newService(newMemoryRepository(), nil)

	created, err := service.Create(ctx, "author-1", blog.Input{Title: "First Title", Content: "a"})
	require.NoError(t, err)

	// 1. Update re-derives the slug and keeps the author
	updated, err := service.Update(ctx, created.ID, blog.Input{Title: "Second Title", Content: "b"})
	require.NoError(t, err)
	assert.Equal(t, "second-title", updated.Slug)
	require.NotNil(t, updated.AuthorID)
	assert.Equal(t, "author-1", *updated.AuthorID)

	// 2. Delete, then it is gone
	require.NoError(t, service.Delete(ctx, created.ID))
	_, err = service.Get(ctx, created.ID)
	assert.ErrorIs(t, err, blog.ErrPostNotFound)

	// 3. Malformed ids never reach the store
	_, err = service.Get(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, blog.ErrPostNotFound)
}

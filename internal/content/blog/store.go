// Copyright (c) 2026 Flow Immersive. All rights reserved.
// Author: Flow Immersive Engineering

package blog

import "context"

// Repository persists posts.
type Repository interface {
	List(ctx context.Context, filter Filter, limit, offset int) ([]*Post, int, error)
	FindByID(ctx context.Context, id string) (*Post, error)
	FindBySlug(ctx context.Context, slug string, publishedOnly bool) (*Post, error)
	Create(ctx context.Context, post *Post) error
	Update(ctx context.Context, post *Post) error
	SetPublished(ctx context.Context, id string, published bool) (*Post, error)
	Delete(ctx context.Context, id string) error
}

// Cache stores public read results. Invalidate drops every entry at once.
type Cache interface {
	Get(ctx context.Context, key string, target any) (bool, error)
	Set(ctx context.Context, key string, value any) error
	Invalidate(ctx context.Context) error
}

// noCache is used when no cache is configured.
type noCache struct{}

func (noCache) Get(context.Context, string, any) (bool, error) { return false, nil }
func (noCache) Set(context.Context, string, any) error         { return nil }
func (noCache) Invalidate(context.Context) error               { return nil }

// Copyright (c) 2026 Flow Immersive. All rights reserved.
// Author: Flow Immersive Engineering

// Package blog implements the site's markdown blog: public reads of published
// posts and admin-only authoring.
package blog

import (
	"time"

	"github.com/flowimmersive/flowsite/internal/platform/apperr"
)

// Post is a markdown article.
type Post struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Slug          string    `json:"slug"`
	Content       string    `json:"content"`
	Excerpt       string    `json:"excerpt"`
	FeaturedImage *string   `json:"featured_image"`
	Published     bool      `json:"published"`
	AuthorID      *string   `json:"author_id"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	// ReadingMinutes is computed from Content on every read.
	ReadingMinutes int `json:"reading_minutes"`
}

// Input is the editable part of a post.
type Input struct {
	Title         string  `json:"title"`
	Content       string  `json:"content"`
	Excerpt       string  `json:"excerpt"`
	FeaturedImage *string `json:"featured_image"`
	Published     bool    `json:"published"`
}

// Filter narrows a post listing.
type Filter struct {
	PublishedOnly bool
}

// Field names used in validation errors.
const (
	FieldTitle         = "title"
	FieldContent       = "content"
	FieldExcerpt       = "excerpt"
	FieldFeaturedImage = "featured_image"
)

const (
	// MaxTitleLength bounds post titles.
	MaxTitleLength = 200
	// MaxExcerptLength bounds hand-written excerpts.
	MaxExcerptLength = 500
	// ExcerptLength is the size of a generated excerpt before the ellipsis.
	ExcerptLength = 200
)

var (
	// ErrPostNotFound is returned for unknown ids and for unpublished posts on public reads.
	ErrPostNotFound = apperr.NotFound("Blog post")

	// ErrSlugTaken is returned when another post already derives the same slug.
	ErrSlugTaken = apperr.Conflict("A post with this title already exists")
)

// Copyright (c) 2026 Flow Immersive. All rights reserved.
// Author: Flow Immersive Engineering

/*
Package markdown derives plain-text facts from blog post markdown.

The site never renders markdown server-side; it only needs the readable
words for excerpts and reading-time estimates. Parsing goes through
goldmark so that link targets, emphasis markers and HTML never leak into
an excerpt.
*/
package markdown

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// WordsPerMinute is the reading speed used for estimates.
const WordsPerMinute = 200

// ExcerptSuffix is appended to generated excerpts.
const ExcerptSuffix = "..."

// PlainText returns the visible text of a markdown document with all
// whitespace collapsed to single spaces.
func PlainText(source string) string {
	src := []byte(source)
	document := goldmark.DefaultParser().Parse(text.NewReader(src))

	var builder strings.Builder
	_ = ast.Walk(document, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			if node.Type() == ast.TypeBlock {
				builder.WriteByte(' ')
			}
			return ast.WalkContinue, nil
		}

		switch typed := node.(type) {
		case *ast.Text:
			builder.Write(typed.Segment.Value(src))
			if typed.SoftLineBreak() || typed.HardLineBreak() {
				builder.WriteByte(' ')
			}
		case *ast.String:
			builder.Write(typed.Value)
		case *ast.AutoLink:
			builder.Write(typed.Label(src))
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			lines := node.Lines()
			for i := 0; i < lines.Len(); i++ {
				segment := lines.At(i)
				builder.Write(segment.Value(src))
			}
			return ast.WalkSkipChildren, nil
		case *ast.HTMLBlock, *ast.RawHTML:
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})

	return strings.Join(strings.Fields(builder.String()), " ")
}

// Excerpt returns the first limit characters of the document's plain text
// followed by [ExcerptSuffix].
func Excerpt(source string, limit int) string {
	plain := PlainText(source)
	if utf8.RuneCountInString(plain) > limit {
		plain = strings.TrimSpace(string([]rune(plain)[:limit]))
	}
	return plain + ExcerptSuffix
}

// ReadingMinutes estimates reading time, rounded up, never below one minute.
func ReadingMinutes(source string) int {
	words := len(strings.Fields(PlainText(source)))
	minutes := int(math.Ceil(float64(words) / WordsPerMinute))
	return max(minutes, 1)
}

// Copyright (c) 2026 Flow Immersive. All rights reserved.
// Author: Flow Immersive Engineering

package markdown_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/flowimmersive/flowsite/pkg/markdown"
)

func TestPlainText(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"heading_and_emphasis", "# Hello\n\nThis is **bold** and _soft_.", "Hello This is bold and soft."},
		{"link_keeps_label", "See [our demo](https://flowimmersive.com/demo).", "See our demo."},
		{"code_block", "Intro\n\n```\nplot(x)\n```", "Intro plot(x)"},
		{"html_dropped", "<div>hidden</div>\n\nVisible", "Visible"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, markdown.PlainText(tt.source))
		})
	}
}

func TestExcerpt(t *testing.T) {
	assert.Equal(t, "Short post...", markdown.Excerpt("Short *post*", 200))

	long := strings.Repeat("word ", 100)
	got := markdown.Excerpt(long, 200)
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.LessOrEqual(t, len([]rune(got)), 203)
}

func TestReadingMinutes(t *testing.T) {
	assert.Equal(t, 1, markdown.ReadingMinutes(""))
	assert.Equal(t, 1, markdown.ReadingMinutes(strings.Repeat("word ", 200)))
	assert.Equal(t, 2, markdown.ReadingMinutes(strings.Repeat("word ", 201)))
}

// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package markdown derives plain text from Markdown post content using
// goldmark. Posts store Markdown verbatim; this package only reads it.
package markdown

import (
	"strings"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

// DefaultExcerptLen is the excerpt length used when a post has none.
const DefaultExcerptLen = 200

// md is the configured goldmark instance, reused across calls.
var md = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM, // tables, strikethrough, autolinks, task lists
	),
)

// PlainText returns the readable text of source with Markdown syntax,
// code blocks, images and raw HTML removed and whitespace collapsed.
func PlainText(source string) string {
	src := []byte(source)
	doc := md.Parser().Parse(text.NewReader(src))

	var b strings.Builder
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			if n.Type() == ast.TypeBlock {
				b.WriteByte(' ')
			}
			return ast.WalkContinue, nil
		}

		switch n := n.(type) {
		case *ast.CodeBlock, *ast.FencedCodeBlock, *ast.HTMLBlock, *ast.RawHTML, *ast.Image:
			return ast.WalkSkipChildren, nil
		case *ast.Text:
			b.Write(n.Segment.Value(src))
			if n.SoftLineBreak() || n.HardLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(n.Value)
		case *ast.AutoLink:
			b.Write(n.URL(src))
		}
		return ast.WalkContinue, nil
	})

	return strings.Join(strings.Fields(b.String()), " ")
}

// Excerpt returns at most maxRunes runes of the plain text of source, cut
// at a word boundary and suffixed with an ellipsis when shortened.
func Excerpt(source string, maxRunes int) string {
	if maxRunes <= 0 {
		maxRunes = DefaultExcerptLen
	}
	plain := PlainText(source)
	if utf8.RuneCountInString(plain) <= maxRunes {
		return plain
	}

	runes := []rune(plain)
	cut := runes[:maxRunes]
	if i := lastSpace(cut); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimRight(string(cut), " ,.;:") + "…"
}

func lastSpace(r []rune) int {
	for i := len(r) - 1; i >= 0; i-- {
		if r[i] == ' ' {
			return i
		}
	}
	return -1
}

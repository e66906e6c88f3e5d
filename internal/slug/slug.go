// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package slug provides URL-friendly slug generation from arbitrary strings.
package slug

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	// whitespace matches runs of any Unicode whitespace.
	whitespace = regexp.MustCompile(`\s+`)
	// disallowed matches anything outside the slug alphabet.
	disallowed = regexp.MustCompile(`[^a-z0-9-]+`)
	// multipleHyphens collapses consecutive hyphens into one.
	multipleHyphens = regexp.MustCompile(`-{2,}`)

	// letters folds Latin letters that have no Unicode decomposition and
	// would otherwise be dropped as non-ASCII.
	letters = strings.NewReplacer(
		"ı", "i",
		"ß", "ss",
		"ø", "o", "Ø", "O",
		"đ", "d", "Đ", "D",
		"æ", "ae", "Æ", "AE",
		"œ", "oe", "Œ", "OE",
		"ł", "l", "Ł", "L",
	)
)

// Generate creates a URL-friendly slug from the given string.
// Diacritics are stripped before filtering, so "Café Noël" becomes
// "cafe-noel", and letters such as "ı" or "ß" are spelled out in ASCII.
// Any other character without an ASCII form is dropped.
// Example: "Clean Code Prensipleri!" → "clean-code-prensipleri"
func Generate(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded := letters.Replace(s)
	result, _, err := transform.String(t, folded)
	if err != nil {
		result = folded
	}

	result = strings.ToLower(strings.TrimSpace(result))
	result = whitespace.ReplaceAllString(result, "-")
	result = disallowed.ReplaceAllString(result, "")
	result = multipleHyphens.ReplaceAllString(result, "-")
	result = strings.Trim(result, "-")
	return result
}

// Valid reports whether s is already in canonical slug form.
func Valid(s string) bool {
	return s != "" && Generate(s) == s
}

// WithSuffix returns base with a numeric disambiguation suffix, e.g. "hello-world-2".
func WithSuffix(base string, n int) string {
	if n <= 1 {
		return base
	}
	return base + "-" + strconv.Itoa(n)
}

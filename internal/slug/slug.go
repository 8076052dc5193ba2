// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package slug provides URL-friendly slug generation from arbitrary strings.
package slug

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	// disallowed matches anything that isn't an ASCII letter, digit,
	// whitespace, or hyphen. Accented letters fall in here and are dropped.
	disallowed = regexp.MustCompile(`[^a-z0-9\s-]`)
	// separators collapses runs of whitespace and hyphens into one hyphen.
	separators = regexp.MustCompile(`[\s-]+`)
)

// Generate creates a URL-friendly slug from the given string.
// Compatibility characters are folded first (NFKC), so full-width and
// ligature forms become plain ASCII, while composed letters such as "é"
// are removed rather than transliterated.
//
// Example: "Hello, World! 2026" → "hello-world-2026"
// Example: "Café Déjà Vu"       → "caf-dj-vu"
//
// An input with no usable characters yields "".
func Generate(s string) string {
	result := strings.ToLower(norm.NFKC.String(s))
	result = disallowed.ReplaceAllString(result, "")
	result = separators.ReplaceAllString(result, "-")
	return strings.Trim(result, "-")
}

// Valid reports whether s is already a well-formed slug: non-empty,
// only [a-z0-9-], and no leading, trailing, or doubled hyphens.
func Valid(s string) bool {
	return s != "" && Generate(s) == s
}

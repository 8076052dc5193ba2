// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package markdown converts post Markdown into HTML using goldmark.
// Raw HTML in the source is not passed through: posts are written by any
// registered user and the output is served to every reader.
package markdown

import (
	"bytes"
	"strings"
	"unicode"

	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
)

// WordsPerMinute is the reading speed used by ReadingTime.
const WordsPerMinute = 200

// md is the configured goldmark instance, reused across calls.
var md = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		extension.Typographer,
		highlighting.NewHighlighting(
			highlighting.WithStyle("monokai"),
			highlighting.WithFormatOptions(),
		),
	),
	goldmark.WithParserOptions(
		parser.WithAutoHeadingID(),
	),
)

// ToHTML converts Markdown source into HTML.
func ToHTML(source string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(source), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// WordCount counts whitespace-separated words.
func WordCount(source string) int {
	return len(strings.FieldsFunc(source, unicode.IsSpace))
}

// ReadingTime estimates minutes to read source, never less than one.
func ReadingTime(source string) int {
	minutes := (WordCount(source) + WordsPerMinute - 1) / WordsPerMinute
	return max(minutes, 1)
}

// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package slug provides URL-friendly slug generation from arbitrary strings.
// Non-Latin scripts and diacritics are transliterated to ASCII first.
package slug

import (
	"regexp"
	"strings"

	"github.com/gosimple/unidecode"
	"golang.org/x/text/unicode/norm"
)

var (
	// nonAlphanumeric matches every run of characters outside [a-z0-9].
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)

	// cyrillic overrides the generic transliteration for letters whose
	// conventional romanisation differs (я → ya rather than ia).
	cyrillic = strings.NewReplacer(
		"я", "ya", "Я", "Ya",
		"ю", "yu", "Ю", "Yu",
		"ё", "e", "Ё", "E",
		"й", "y", "Й", "Y",
	)
)

// Generate creates a URL-friendly slug from the given string.
// Example: "Hello, World! 2026" → "hello-world-2026",
// "Категория с русским названием" → "kategoriya-s-russkim-nazvaniem".
func Generate(s string) string {
	result := norm.NFKC.String(s)
	result = cyrillic.Replace(result)
	result = unidecode.Unidecode(result)
	result = strings.ToLower(result)
	result = strings.ReplaceAll(result, "'", "")
	result = nonAlphanumeric.ReplaceAllString(result, "-")
	return strings.Trim(result, "-")
}

// Truncate shortens a generated slug to at most n bytes, cutting at the
// last word boundary that fits. A single word longer than n is cut at n.
func Truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	if s[n] == '-' {
		return s[:n]
	}
	cut := s[:n]
	if i := strings.LastIndexByte(cut, '-'); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, "-")
}

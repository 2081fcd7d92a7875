// Package locale resolves translatable fields and tracks the active locale.
package locale

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

// Locale is a base language code such as "en" or "ar".
type Locale string

// Default is the locale used before the user picks one, and the last-resort
// entry looked up in per-locale maps.
const Default Locale = "en"

// Parse canonicalizes a language tag to its base language, so "ar-EG",
// "AR" and "ar_EG" all become "ar".
func Parse(tag string) (Locale, error) {
	tag = strings.ReplaceAll(strings.TrimSpace(tag), "_", "-")
	if tag == "" {
		return "", fmt.Errorf("parse locale: empty tag")
	}
	t, err := language.Parse(tag)
	if err != nil {
		return "", fmt.Errorf("parse locale %q: %w", tag, err)
	}
	base, _ := t.Base()
	return Locale(base.String()), nil
}

// ParseOr is Parse returning fallback for unparsable tags.
func ParseOr(tag string, fallback Locale) Locale {
	loc, err := Parse(tag)
	if err != nil {
		return fallback
	}
	return loc
}

// ParseList parses every tag, dropping invalid ones and duplicates while
// keeping order.
func ParseList(tags []string) []Locale {
	seen := make(map[Locale]struct{}, len(tags))
	out := make([]Locale, 0, len(tags))
	for _, tag := range tags {
		loc, err := Parse(tag)
		if err != nil {
			continue
		}
		if _, dup := seen[loc]; dup {
			continue
		}
		seen[loc] = struct{}{}
		out = append(out, loc)
	}
	return out
}

// IsRTL reports whether the locale is written right to left.
func (l Locale) IsRTL() bool {
	switch l {
	case "ar", "fa", "he", "ur":
		return true
	}
	return false
}

func (l Locale) String() string { return string(l) }

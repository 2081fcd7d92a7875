package locale

import (
	"encoding/json"

	"github.com/utafrali/storefront/internal/coerce"
)

// translationKeys are the nested map keys holding per-locale field values.
var translationKeys = []string{"translations", "i18n"}

// Resolve returns the value of a translatable field for loc, trying the
// backend's conventions in a fixed order:
//
//  1. a flat suffixed key, field_<loc>, when truthy;
//  2. source[field] when it is a non-empty string;
//  3. source[field] as a map keyed by locale: the loc entry, else "en";
//  4. translations/i18n[loc][field], either as a map keyed by locale or as a
//     list of rows carrying a "locale" key;
//  5. source[field] when it is a scalar such as a number, stringified;
//  6. fallback.
func Resolve(source map[string]any, field, fallback string, loc Locale) string {
	if source == nil {
		return fallback
	}

	if v, ok := flatSuffixed(source, field, loc); ok {
		return v
	}

	raw := source[field]
	if s, ok := raw.(string); ok && s != "" {
		return s
	}

	if byLocale, ok := raw.(map[string]any); ok {
		if v, ok := nonEmptyString(byLocale[string(loc)]); ok {
			return v
		}
		if v, ok := nonEmptyString(byLocale[string(Default)]); ok {
			return v
		}
	}

	if v, ok := fromTranslations(source, field, loc); ok {
		return v
	}

	switch raw.(type) {
	case float64, json.Number, bool, int, int64:
		return coerce.ToSafeString(raw, fallback)
	}

	return fallback
}

// Lookup returns the value of field written specifically for loc, without
// falling back to the plain field or to another locale.
func Lookup(source map[string]any, field string, loc Locale) (string, bool) {
	if source == nil {
		return "", false
	}
	if v, ok := flatSuffixed(source, field, loc); ok {
		return v, true
	}
	if byLocale, ok := source[field].(map[string]any); ok {
		if v, ok := nonEmptyString(byLocale[string(loc)]); ok {
			return v, true
		}
	}
	return fromTranslations(source, field, loc)
}

func flatSuffixed(source map[string]any, field string, loc Locale) (string, bool) {
	v, ok := source[field+"_"+string(loc)]
	if !ok || !truthy(v) {
		return "", false
	}
	return coerce.ToSafeString(v, ""), true
}

func fromTranslations(source map[string]any, field string, loc Locale) (string, bool) {
	for _, key := range translationKeys {
		switch tr := source[key].(type) {
		case map[string]any:
			if entry, ok := tr[string(loc)].(map[string]any); ok {
				if v, ok := nonEmptyString(entry[field]); ok {
					return v, true
				}
			}
		case []any:
			for _, row := range tr {
				entry, ok := row.(map[string]any)
				if !ok || ParseOr(coerce.ToSafeString(entry["locale"], ""), "") != loc {
					continue
				}
				if v, ok := nonEmptyString(entry[field]); ok {
					return v, true
				}
			}
		}
	}
	return "", false
}

func nonEmptyString(v any) (string, bool) {
	s, ok := v.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// truthy mirrors loose truthiness for field values: empty strings, zero,
// false and null are all "not present".
func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case string:
		return x != ""
	case bool:
		return x
	case float64:
		return x != 0
	case json.Number:
		f, err := x.Float64()
		return err == nil && f != 0
	}
	return true
}

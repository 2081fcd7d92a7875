// Package envelope strips the optional {"data": ...} wrapping the storefront
// API puts around collection and single-resource payloads.
package envelope

// UnwrapCollection returns the list carried by value. A bare slice is returned
// as is, a map whose "data" is a slice yields that slice, and a paginated map
// whose "data" is itself such a map is unwrapped one more level. Anything else
// yields an empty, non-nil slice.
func UnwrapCollection(value any) []any {
	switch v := value.(type) {
	case []any:
		return v
	case []map[string]any:
		out := make([]any, len(v))
		for i := range v {
			out[i] = v[i]
		}
		return out
	case map[string]any:
		switch data := v["data"].(type) {
		case []any:
			return data
		case map[string]any:
			if inner, ok := data["data"].([]any); ok {
				return inner
			}
		}
	}
	return []any{}
}

// UnwrapResource returns value["data"] when value is a map containing a
// "data" key, and value itself otherwise.
func UnwrapResource(value any) any {
	if m, ok := value.(map[string]any); ok {
		if data, ok := m["data"]; ok {
			return data
		}
	}
	return value
}

// Object returns value as a map, or an empty map when it is anything else.
func Object(value any) map[string]any {
	if m, ok := value.(map[string]any); ok && m != nil {
		return m
	}
	return map[string]any{}
}

// Has reports whether key is present on source with a non-null value.
func Has(source map[string]any, key string) bool {
	v, ok := source[key]
	return ok && v != nil
}

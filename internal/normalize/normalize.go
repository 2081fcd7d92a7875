// Package normalize turns raw API payloads into canonical domain entities.
//
// Every normalizer is a total function of a decoded JSON value: any input,
// however malformed, yields a fully populated entity. Feeding the JSON
// encoding of a normalized entity back in yields the same entity, so payloads
// can safely be re-normalized after a merge or refresh.
package normalize

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strings"

	"github.com/utafrali/storefront/internal/coerce"
	"github.com/utafrali/storefront/internal/envelope"
	"github.com/utafrali/storefront/internal/locale"
)

// ImageResolver maps a raw image path or URL to an absolute URL.
type ImageResolver interface {
	Resolve(raw string) string
}

// Normalizer carries the explicit inputs every entity normalizer needs.
// It is immutable and safe for concurrent use.
type Normalizer struct {
	locale    locale.Locale
	supported []locale.Locale
	images    ImageResolver
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithSupportedLocales sets the locales whose copy is collected into
// per-locale variants (slide translations).
func WithSupportedLocales(locales []locale.Locale) Option {
	return func(n *Normalizer) {
		n.supported = append([]locale.Locale(nil), locales...)
	}
}

// New returns a Normalizer resolving translatable fields for loc. A nil
// images resolver leaves image references untouched.
func New(loc locale.Locale, images ImageResolver, opts ...Option) *Normalizer {
	if loc == "" {
		loc = locale.Default
	}
	n := &Normalizer{
		locale:    loc,
		supported: []locale.Locale{locale.Default},
		images:    images,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// WithLocale returns a copy of n resolving fields for loc.
func (n *Normalizer) WithLocale(loc locale.Locale) *Normalizer {
	cpy := *n
	if loc != "" {
		cpy.locale = loc
	}
	return &cpy
}

// Locale returns the locale n resolves fields for.
func (n *Normalizer) Locale() locale.Locale { return n.locale }

// Unmarshal parses a JSON document into the loosely typed form the
// normalizers accept. Numbers stay json.Number so large ids keep their
// precision.
func Unmarshal(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("unexpected data after JSON value")
	}
	return v, nil
}

// Decode is Unmarshal for callers with nowhere to report errors. Invalid
// JSON decodes to nil, which every normalizer accepts.
func Decode(data []byte) any {
	v, err := Unmarshal(data)
	if err != nil {
		return nil
	}
	return v
}

// object unwraps an optional data envelope and returns the resource as a map.
func object(raw any) map[string]any {
	return envelope.Object(envelope.UnwrapResource(raw))
}

// nested returns the embedded object under key, or nil when the key is
// absent, null or not an object.
func nested(src map[string]any, key string) map[string]any {
	if !envelope.Has(src, key) {
		return nil
	}
	m, ok := envelope.UnwrapResource(src[key]).(map[string]any)
	if !ok {
		return nil
	}
	return m
}

// first returns the first present, non-null value among keys.
func first(src map[string]any, keys ...string) any {
	for _, k := range keys {
		if envelope.Has(src, k) {
			return src[k]
		}
	}
	return nil
}

func (n *Normalizer) text(src map[string]any, field string) string {
	return locale.Resolve(src, field, "", n.locale)
}

func str(src map[string]any, keys ...string) string {
	return strings.TrimSpace(coerce.ToSafeString(first(src, keys...), ""))
}

func id(src map[string]any, keys ...string) int64 {
	if len(keys) == 0 {
		keys = []string{"id"}
	}
	return coerce.ToInt64(first(src, keys...), 0)
}

func nonNegative(v int) int {
	if v < 0 {
		return 0
	}
	return v
}

// image resolves a single image reference, which may be a plain string or an
// object carrying the URL under one of a few keys.
func (n *Normalizer) image(v any) string {
	var raw string
	switch x := v.(type) {
	case string:
		raw = x
	case map[string]any:
		raw = str(x, "url", "path", "src", "image_url", "original")
	default:
		return ""
	}
	if n.images == nil {
		return strings.TrimSpace(raw)
	}
	return n.images.Resolve(raw)
}

// imageList resolves a collection of image references, dropping empties.
func (n *Normalizer) imageList(v any) []string {
	out := []string{}
	for _, item := range envelope.UnwrapCollection(v) {
		if u := n.image(item); u != "" {
			out = append(out, u)
		}
	}
	return out
}

package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/utafrali/storefront/internal/locale"
)

const localeKeyPrefix = "storefront:locale:"

// LocaleStore persists the preferred locale of one device or user.
type LocaleStore struct {
	client *redis.Client
	key    string
}

var _ locale.Store = (*LocaleStore)(nil)

// NewLocaleStore creates a locale store scoped to owner.
func NewLocaleStore(client *redis.Client, owner string) *LocaleStore {
	return &LocaleStore{client: client, key: localeKeyPrefix + owner}
}

// Load returns the saved locale, or "" when none was saved or the saved
// value no longer parses.
func (s *LocaleStore) Load(ctx context.Context) (locale.Locale, error) {
	v, err := s.client.Get(ctx, s.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", fmt.Errorf("redis get locale: %w", err)
	}
	return locale.ParseOr(v, ""), nil
}

// Save stores loc without expiry.
func (s *LocaleStore) Save(ctx context.Context, loc locale.Locale) error {
	if err := s.client.Set(ctx, s.key, loc.String(), 0).Err(); err != nil {
		return fmt.Errorf("redis set locale: %w", err)
	}
	return nil
}

package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/normalize"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

const cartKeyPrefix = "storefront:cart:"

// CartSnapshotRepository keeps the last confirmed cart so it can be shown
// before the first fetch completes. Snapshots are canonical cart JSON, which
// the cart normalizer accepts back unchanged.
type CartSnapshotRepository struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewCartSnapshotRepository creates a snapshot repository scoped to owner.
func NewCartSnapshotRepository(client *redis.Client, owner string, ttl time.Duration) *CartSnapshotRepository {
	return &CartSnapshotRepository{
		client: client,
		key:    cartKeyPrefix + owner,
		ttl:    ttl,
	}
}

// Get returns the stored snapshot as decoded JSON.
func (r *CartSnapshotRepository) Get(ctx context.Context) (any, error) {
	data, err := r.client.Get(ctx, r.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperrors.NotFound("cart snapshot", r.key)
		}
		return nil, fmt.Errorf("redis get cart snapshot: %w", err)
	}

	raw, err := normalize.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("unmarshal cart snapshot: %w", err)
	}
	return raw, nil
}

// Save stores cart with the configured TTL.
func (r *CartSnapshotRepository) Save(ctx context.Context, cart domain.Cart) error {
	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("marshal cart snapshot: %w", err)
	}

	if err := r.client.Set(ctx, r.key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set cart snapshot: %w", err)
	}
	return nil
}

// Delete removes the snapshot.
func (r *CartSnapshotRepository) Delete(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("redis del cart snapshot: %w", err)
	}
	return nil
}

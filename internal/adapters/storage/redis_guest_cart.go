package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/zing-commerce/cart-engine/internal/core/domain"
)

var _ domain.GuestCartStore = (*RedisGuestCartStore)(nil)

// guestCartItem is the persisted wire shape of one guest line. It keeps the
// legacy layout the storefront clients already wrote (nested attributes map
// instead of flat ids); translation to CartEntry happens here and only here.
type guestCartItem struct {
	ProductID  string `json:"product_id"`
	Quantity   int    `json:"quantity"`
	Attributes struct {
		Color *string `json:"color,omitempty"`
		Size  *string `json:"size,omitempty"`
	} `json:"attributes"`
}

// RedisGuestCartStore holds guest carts as JSON arrays under one key per
// session. Carts are unsynchronized shared state: concurrent writers to the
// same session are last-writer-wins, an accepted race for a shopping cart.
type RedisGuestCartStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisGuestCartStore(rdb *redis.Client, ttl time.Duration) *RedisGuestCartStore {
	return &RedisGuestCartStore{
		rdb: rdb,
		ttl: ttl,
	}
}

func (s *RedisGuestCartStore) cartKey(sessionID string) string {
	return fmt.Sprintf("cart:guest:%s", sessionID)
}

// Load returns the stored entries. An absent key is an empty cart; malformed
// JSON is treated the same way, with the corrupted key deleted so it heals.
func (s *RedisGuestCartStore) Load(ctx context.Context, sessionID string) ([]domain.CartEntry, error) {
	key := s.cartKey(sessionID)

	val, err := s.rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return []domain.CartEntry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("guest cart store: read %s: %w", key, err)
	}

	var items []guestCartItem
	if err := json.Unmarshal([]byte(val), &items); err != nil {
		log.Printf("[STORE] Corrupted guest cart %s, resetting key", sessionID)
		s.rdb.Del(ctx, key)
		return []domain.CartEntry{}, nil
	}

	entries := make([]domain.CartEntry, 0, len(items))
	for _, item := range items {
		// A stored quantity below 1 should be unrepresentable; drop it
		// rather than propagate it.
		if item.ProductID == "" || item.Quantity < 1 {
			continue
		}
		entries = append(entries, domain.CartEntry{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			ColorID:   item.Attributes.Color,
			SizeID:    item.Attributes.Size,
		})
	}
	return entries, nil
}

func (s *RedisGuestCartStore) Save(ctx context.Context, sessionID string, entries []domain.CartEntry) error {
	items := make([]guestCartItem, 0, len(entries))
	for _, e := range entries {
		var item guestCartItem
		item.ProductID = e.ProductID
		item.Quantity = e.Quantity
		item.Attributes.Color = e.ColorID
		item.Attributes.Size = e.SizeID
		items = append(items, item)
	}

	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("guest cart store: marshal cart: %w", err)
	}

	if err := s.rdb.Set(ctx, s.cartKey(sessionID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("guest cart store: write %s: %w", s.cartKey(sessionID), err)
	}
	return nil
}

func (s *RedisGuestCartStore) Clear(ctx context.Context, sessionID string) error {
	if err := s.rdb.Del(ctx, s.cartKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("guest cart store: clear %s: %w", s.cartKey(sessionID), err)
	}
	return nil
}

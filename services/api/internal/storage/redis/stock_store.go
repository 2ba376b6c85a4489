// Package redis keeps stock counts in Redis hashes, one hash per product keyed by location.
package redis

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/OwenAEdwards/E-Commerece-Website/services/api/internal/domain"
)

const defaultKeyPrefix = "{inventory}:stock:"

// adjustScript applies a delta to one hash field unless the result would be negative or above
// ARGV[3]. Returns {status, count}; count is the unchanged value when status is not 1.
// Status 0 means not enough stock, 2 means the count would exceed the bound.
var adjustScript = redis.NewScript(`
local current = tonumber(redis.call('HGET', KEYS[1], ARGV[1]) or '0')
local delta = tonumber(ARGV[2])
local nextCount = current + delta
if nextCount < 0 then
	return {0, current}
end
if nextCount > tonumber(ARGV[3]) then
	return {2, current}
end
if delta ~= 0 then
	redis.call('HSET', KEYS[1], ARGV[1], nextCount)
end
return {1, nextCount}
`)

// StockStore is an inventory authority on Redis. The read-compare-write runs server side in one
// script call, so concurrent adjustments on the same key cannot interleave.
// It does not know the product catalog: an unknown product simply has no stock.
type StockStore struct {
	client redis.UniversalClient
	prefix string
}

type Option func(*StockStore)

// WithKeyPrefix namespaces stock keys, e.g. per test run.
func WithKeyPrefix(prefix string) Option {
	return func(s *StockStore) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

func NewStockStore(client redis.UniversalClient, opts ...Option) *StockStore {
	s := &StockStore{client: client, prefix: defaultKeyPrefix}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Connect parses a redis:// URL and pings the server.
func Connect(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func (s *StockStore) key(productID string) string {
	return s.prefix + productID
}

func (s *StockStore) IsAvailable(ctx context.Context, productID string, quantity int, locationID string) (bool, error) {
	n, err := s.client.HGet(ctx, s.key(productID), locationID).Int()
	if errors.Is(err, redis.Nil) {
		return quantity <= 0, nil
	}
	if err != nil {
		return false, fmt.Errorf("read stock: %w", err)
	}
	return n >= quantity, nil
}

func (s *StockStore) AdjustInventory(ctx context.Context, productID string, delta int, locationID string) (int, error) {
	res, err := adjustScript.Run(ctx, s.client, []string{s.key(productID)}, locationID, delta, domain.MaxQuantity).Int64Slice()
	if err != nil {
		return 0, fmt.Errorf("adjust stock: %w", err)
	}
	if len(res) != 2 {
		return 0, fmt.Errorf("adjust stock: unexpected reply %v", res)
	}
	switch res[0] {
	case 0:
		return int(res[1]), domain.ErrInsufficientStock
	case 2:
		return int(res[1]), domain.ErrInvalidQuantity
	}
	return int(res[1]), nil
}

func (s *StockStore) StockLevels(ctx context.Context, productID string) ([]domain.StockLevel, error) {
	fields, err := s.client.HGetAll(ctx, s.key(productID)).Result()
	if err != nil {
		return nil, fmt.Errorf("list stock levels: %w", err)
	}
	levels := make([]domain.StockLevel, 0, len(fields))
	for locationID, raw := range fields {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("parse stock for %s at %s: %w", productID, locationID, err)
		}
		levels = append(levels, domain.StockLevel{ProductID: productID, LocationID: locationID, Available: n})
	}
	sort.Slice(levels, func(i, j int) bool { return levels[i].LocationID < levels[j].LocationID })
	return levels, nil
}

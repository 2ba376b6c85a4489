package inventory

import (
	"context"
	"hash/fnv"
	"sort"
	"sync"

	"github.com/OwenAEdwards/E-Commerece-Website/services/api/internal/domain"
)

const shardCount = 64

type stockKey struct {
	productID  string
	locationID string
}

type shard struct {
	sync.RWMutex
	counts map[stockKey]int
}

// Memory is an in-process Authority. Counts are partitioned over FNV-1a hashed shards so that
// adjustments on unrelated pairs do not contend.
type Memory struct {
	shards []*shard

	mu       sync.RWMutex
	products map[string]struct{}
}

var (
	_ Authority   = (*Memory)(nil)
	_ StockReader = (*Memory)(nil)
)

func NewMemory() *Memory {
	m := &Memory{
		shards:   make([]*shard, shardCount),
		products: make(map[string]struct{}),
	}
	for i := range m.shards {
		m.shards[i] = &shard{counts: make(map[stockKey]int)}
	}
	return m
}

// Register makes productID known. Adjustments for unknown products fail with domain.ErrProductNotFound.
func (m *Memory) Register(productID string) {
	m.mu.Lock()
	m.products[productID] = struct{}{}
	m.mu.Unlock()
}

func (m *Memory) known(productID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.products[productID]
	return ok
}

func (m *Memory) shardFor(k stockKey) *shard {
	h := fnv.New32a()
	h.Write([]byte(k.productID))
	h.Write([]byte{0})
	h.Write([]byte(k.locationID))
	return m.shards[h.Sum32()%shardCount]
}

func (m *Memory) IsAvailable(ctx context.Context, productID string, quantity int, locationID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if !m.known(productID) {
		return false, domain.ErrProductNotFound
	}
	k := stockKey{productID, locationID}
	s := m.shardFor(k)
	s.RLock()
	defer s.RUnlock()
	return s.counts[k] >= quantity, nil
}

func (m *Memory) AdjustInventory(ctx context.Context, productID string, delta int, locationID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if !m.known(productID) {
		return 0, domain.ErrProductNotFound
	}
	k := stockKey{productID, locationID}
	s := m.shardFor(k)
	s.Lock()
	defer s.Unlock()

	current := s.counts[k]
	if delta > domain.MaxQuantity-current {
		return current, domain.ErrInvalidQuantity
	}
	next := current + delta
	if next < 0 {
		return current, domain.ErrInsufficientStock
	}
	if delta != 0 {
		s.counts[k] = next
	}
	return next, nil
}

// SetStock overwrites a count. It is meant for seeding and tests.
func (m *Memory) SetStock(productID, locationID string, available int) {
	if available < 0 {
		available = 0
	}
	m.Register(productID)
	k := stockKey{productID, locationID}
	s := m.shardFor(k)
	s.Lock()
	s.counts[k] = available
	s.Unlock()
}

// StockLevels returns every location holding a record for productID, sorted by location.
func (m *Memory) StockLevels(ctx context.Context, productID string) ([]domain.StockLevel, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !m.known(productID) {
		return nil, domain.ErrProductNotFound
	}
	levels := []domain.StockLevel{}
	for _, s := range m.shards {
		s.RLock()
		for k, n := range s.counts {
			if k.productID == productID {
				levels = append(levels, domain.StockLevel{ProductID: k.productID, LocationID: k.locationID, Available: n})
			}
		}
		s.RUnlock()
	}
	sort.Slice(levels, func(i, j int) bool { return levels[i].LocationID < levels[j].LocationID })
	return levels, nil
}

// Package merchant resolves extracted store names to deduplicated registry records.
package merchant

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/receipts-parser/internal/common"
	"github.com/joseph-ayodele/receipts-parser/internal/entity"
)

// Registry stores merchants keyed by normalized name. Create must be atomic
// per normalized name and return common.ErrMerchantExists on conflict.
type Registry interface {
	// FindByNormalizedName returns (nil, nil) on a miss.
	FindByNormalizedName(ctx context.Context, normalized string) (*entity.Merchant, error)
	ListAll(ctx context.Context) ([]entity.Merchant, error)
	Create(ctx context.Context, displayName, normalized string) (entity.Merchant, error)
}

// MemoryRegistry is a process-local Registry.
type MemoryRegistry struct {
	mu     sync.RWMutex
	byName map[string]entity.Merchant
	order  []string
	now    func() time.Time
}

var _ Registry = (*MemoryRegistry)(nil)

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		byName: make(map[string]entity.Merchant),
		now:    time.Now,
	}
}

func (r *MemoryRegistry) FindByNormalizedName(_ context.Context, normalized string) (*entity.Merchant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.byName[normalized]
	if !ok {
		return nil, nil
	}
	return &m, nil
}

// ListAll returns merchants in insertion order.
func (r *MemoryRegistry) ListAll(_ context.Context) ([]entity.Merchant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]entity.Merchant, 0, len(r.order))
	for _, n := range r.order {
		out = append(out, r.byName[n])
	}
	return out, nil
}

func (r *MemoryRegistry) Create(_ context.Context, displayName, normalized string) (entity.Merchant, error) {
	if normalized == "" {
		return entity.Merchant{}, fmt.Errorf("%w: normalized merchant name is required", common.ErrInvalidInput)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byName[normalized]; ok {
		return entity.Merchant{}, common.ErrMerchantExists
	}
	m := entity.Merchant{
		ID:             uuid.New(),
		DisplayName:    displayName,
		NormalizedName: normalized,
		CreatedAt:      r.now().UTC(),
	}
	r.byName[normalized] = m
	r.order = append(r.order, normalized)
	return m, nil
}

// Len reports the number of merchants.
func (r *MemoryRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

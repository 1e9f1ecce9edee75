package testutil

import (
	"context"
	"sync"

	"github.com/andrewjk/Watsonia.Data-sub000/internal/queryir"
)

// Loader is the row-loading capability wrapped by CountingLoader. It has
// the same method set as eager.RowLoader.
type Loader interface {
	Load(ctx context.Context, sel *queryir.Select, entity string) ([]any, error)
}

// CountingLoader records every round trip made through it.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type CountingLoader struct {
	mu       sync.Mutex
	next     Loader
	entities []string
	selects  []*queryir.Select
}

// NewCountingLoader wraps next.
func NewCountingLoader(next Loader) *CountingLoader {
	return &CountingLoader{next: next}
}

// Load records the call and delegates to the wrapped loader.
func (l *CountingLoader) Load(ctx context.Context, sel *queryir.Select, entity string) ([]any, error) {
	l.mu.Lock()
	l.entities = append(l.entities, entity)
	l.selects = append(l.selects, sel)
	l.mu.Unlock()
	return l.next.Load(ctx, sel, entity)
}

// Calls returns the number of round trips so far.
func (l *CountingLoader) Calls() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entities)
}

// Entities returns the entity of each round trip in call order.
func (l *CountingLoader) Entities() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.entities...)
}

// Selects returns the statement of each round trip in call order.
func (l *CountingLoader) Selects() []*queryir.Select {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]*queryir.Select(nil), l.selects...)
}

// Reset forgets recorded calls.
func (l *CountingLoader) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entities = nil
	l.selects = nil
}

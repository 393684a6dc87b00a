// Package events carries resolved-dependency notifications from the
// persistence bridge out to pipeline observers.
package events

import (
	"sync"

	"assetdep/internal/ports"
	"assetdep/internal/types"
)

// Handler receives one call per committed dependency row.
type Handler func(resolved types.ResolvedDependency)

// Bus dispatches resolved notifications synchronously, in commit order.
// The pipeline delivers events from a single loop, but subscription may
// happen from setup code on another goroutine, hence the lock.
type Bus struct {
	mu       sync.RWMutex
	handlers []Handler
}

func NewBus() *Bus {
	return &Bus{}
}

func (b *Bus) Subscribe(handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, handler)
}

func (b *Bus) DependencyResolved(resolved types.ResolvedDependency) {
	b.mu.RLock()
	handlers := b.handlers
	b.mu.RUnlock()
	for _, handler := range handlers {
		handler(resolved)
	}
}

var _ ports.Notifier = (*Bus)(nil)

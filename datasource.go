package pagedlist

import (
	"context"
	"sync"
	"sync/atomic"
)

// Source is the dispatch contract shared by the three loading strategies
// (positional, pagekeyed, itemkeyed). A PagedList drives its Source through
// these methods and never sees the strategy's own parameter/callback
// surface.
//
// Type parameters:
//   - K: the strategy's key type (absolute position for positional, page
//     token for pagekeyed, item key for itemkeyed)
//   - T: the item type
//
// Every dispatch must cause exactly one delivery on the supplied Receiver,
// possibly later and possibly from another goroutine. Dispatching against
// an invalidated source is a no-op that immediately delivers an invalid
// result.
type Source[K, T any] interface {
	// DispatchLoadInitial fetches the first page. key positions the load
	// when the consumer resumes from a saved spot; nil starts at the
	// strategy's default position.
	DispatchLoadInitial(ctx context.Context, key *K, requestedSize, pageSize int, rec *Receiver[T])

	// DispatchLoadBefore fetches the page preceding the current front edge,
	// identified by its logical index and item.
	DispatchLoadBefore(ctx context.Context, frontIndex int, frontItem T, pageSize int, rec *Receiver[T])

	// DispatchLoadAfter fetches the page following the current end edge,
	// identified by its logical index and item.
	DispatchLoadAfter(ctx context.Context, endIndex int, endItem T, pageSize int, rec *Receiver[T])

	// Invalidate permanently marks the source unusable. Pending loads
	// deliver invalid results; future dispatch is a no-op that reports
	// invalid. Invalidation is monotonic and idempotent.
	Invalidate()

	// Invalid reports whether Invalidate has been called.
	Invalid() bool
}

// SourceBase supplies the invalidation half of the Source contract.
// Strategy adapters embed it and implement only the dispatch methods.
type SourceBase struct {
	invalid atomic.Bool

	mu    sync.Mutex
	hooks []func()
}

// Invalidate implements Source. The first call runs every registered
// OnInvalidated hook, once, on the calling goroutine; later calls do
// nothing.
func (b *SourceBase) Invalidate() {
	if !b.invalid.CompareAndSwap(false, true) {
		return
	}
	b.mu.Lock()
	hooks := b.hooks
	b.hooks = nil
	b.mu.Unlock()
	for _, hook := range hooks {
		hook()
	}
}

// Invalid implements Source.
func (b *SourceBase) Invalid() bool {
	return b.invalid.Load()
}

// OnInvalidated registers a hook to run when the source is invalidated.
// If the source is already invalid the hook runs immediately. This lets a
// component that spawned a list from this source observe supersession and
// build a replacement.
func (b *SourceBase) OnInvalidated(hook func()) {
	if b.invalid.Load() {
		hook()
		return
	}
	b.mu.Lock()
	alreadyInvalid := b.invalid.Load()
	if !alreadyInvalid {
		b.hooks = append(b.hooks, hook)
	}
	b.mu.Unlock()
	if alreadyInvalid {
		hook()
	}
}

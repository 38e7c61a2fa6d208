// Package itemkeyed provides the item-keyed loading strategy: the
// continuation key for each direction is derived from the item currently at
// that edge of the window, rather than from a store-supplied token. This
// suits keyset queries ("WHERE key < ? ORDER BY key DESC") against ordered
// stores.
package itemkeyed

import (
	"context"

	pagedlist "github.com/nrfta/go-pagedlist"
)

// InitialParams describes the construction-time load.
type InitialParams[K any] struct {
	// RequestedInitialKey positions the load near a previously seen item's
	// key. Nil starts at the beginning of the dataset.
	RequestedInitialKey *K

	// RequestedLoadSize is the number of items to load.
	RequestedLoadSize int
}

// LoadParams describes one prepend/append load.
type LoadParams[K any] struct {
	// Key is the key of the item at the window edge being extended.
	Key K

	// RequestedLoadSize is the number of items to load.
	RequestedLoadSize int
}

// Loader is implemented against the backing store. Each load method must
// cause exactly one delivery on its callback. KeyOf must be pure: the same
// item always yields the same key.
type Loader[K, T any] interface {
	// LoadInitial fetches the first page, at or near RequestedInitialKey
	// when set.
	LoadInitial(ctx context.Context, params InitialParams[K], cb *InitialCallback[T])

	// LoadBefore fetches items strictly before params.Key, in dataset
	// order. Reporting fewer items than requested marks the front complete.
	LoadBefore(ctx context.Context, params LoadParams[K], cb *PageCallback[T])

	// LoadAfter fetches items strictly after params.Key, in dataset order.
	// Reporting fewer items than requested marks the end complete.
	LoadAfter(ctx context.Context, params LoadParams[K], cb *PageCallback[T])

	// KeyOf derives the continuation key from an item.
	KeyOf(item T) K
}

// Source adapts a Loader to the pagedlist.Source contract. It holds no key
// state of its own: keys are re-derived from the edge items the list passes
// to each dispatch.
type Source[K, T any] struct {
	pagedlist.SourceBase
	loader Loader[K, T]
}

// New wraps a Loader as an item-keyed data source.
func New[K, T any](loader Loader[K, T]) *Source[K, T] {
	return &Source[K, T]{loader: loader}
}

// DispatchLoadInitial implements pagedlist.Source.
func (s *Source[K, T]) DispatchLoadInitial(ctx context.Context, key *K, requestedSize, _ int, rec *pagedlist.Receiver[T]) {
	if s.Invalid() {
		rec.Deliver(pagedlist.InvalidResult[T](pagedlist.LoadInit))
		return
	}
	s.loader.LoadInitial(ctx, InitialParams[K]{RequestedInitialKey: key, RequestedLoadSize: requestedSize},
		&InitialCallback[T]{invalid: s.Invalid, rec: rec})
}

// DispatchLoadBefore implements pagedlist.Source, deriving the continuation
// key from the front-edge item.
func (s *Source[K, T]) DispatchLoadBefore(ctx context.Context, _ int, frontItem T, pageSize int, rec *pagedlist.Receiver[T]) {
	if s.Invalid() {
		rec.Deliver(pagedlist.InvalidResult[T](pagedlist.LoadPrepend))
		return
	}
	s.loader.LoadBefore(ctx, LoadParams[K]{Key: s.loader.KeyOf(frontItem), RequestedLoadSize: pageSize},
		&PageCallback[T]{invalid: s.Invalid, rec: rec, loadType: pagedlist.LoadPrepend, requested: pageSize})
}

// DispatchLoadAfter implements pagedlist.Source, deriving the continuation
// key from the end-edge item.
func (s *Source[K, T]) DispatchLoadAfter(ctx context.Context, _ int, endItem T, pageSize int, rec *pagedlist.Receiver[T]) {
	if s.Invalid() {
		rec.Deliver(pagedlist.InvalidResult[T](pagedlist.LoadAppend))
		return
	}
	s.loader.LoadAfter(ctx, LoadParams[K]{Key: s.loader.KeyOf(endItem), RequestedLoadSize: pageSize},
		&PageCallback[T]{invalid: s.Invalid, rec: rec, loadType: pagedlist.LoadAppend, requested: pageSize})
}

// InitialCallback reports the construction-time load. Single use: exactly
// one of OnResult or OnResultCounted must be called, exactly once.
type InitialCallback[T any] struct {
	invalid func() bool
	rec     *pagedlist.Receiver[T]
}

// OnResult reports the loaded items without a total count. The list then
// runs without placeholders and discovers each edge through a short or
// empty load in that direction.
func (cb *InitialCallback[T]) OnResult(items []T) {
	if cb.invalid() {
		cb.rec.Deliver(pagedlist.InvalidResult[T](pagedlist.LoadInit))
		return
	}
	cb.rec.Deliver(pagedlist.PageResult[T]{
		Type:        pagedlist.LoadInit,
		Items:       items,
		EndComplete: len(items) == 0,
	})
}

// OnResultCounted reports the loaded items with their absolute position and
// the store's total count, establishing placeholders on both sides. It
// panics when the counts are inconsistent (a usage error).
func (cb *InitialCallback[T]) OnResultCounted(items []T, position, totalCount int) {
	if cb.invalid() {
		cb.rec.Deliver(pagedlist.InvalidResult[T](pagedlist.LoadInit))
		return
	}
	if position < 0 || totalCount < 0 || position+len(items) > totalCount {
		panic("itemkeyed: initial result position/totalCount inconsistent with item count")
	}
	cb.rec.Deliver(pagedlist.PageResult[T]{
		Type:          pagedlist.LoadInit,
		Items:         items,
		Leading:       position,
		Trailing:      totalCount - position - len(items),
		Position:      position,
		Counted:       true,
		FrontComplete: position == 0,
		EndComplete:   position+len(items) == totalCount,
	})
}

// PageCallback reports one prepend/append load. Single use.
type PageCallback[T any] struct {
	invalid   func() bool
	rec       *pagedlist.Receiver[T]
	loadType  pagedlist.LoadType
	requested int
}

// OnResult reports the loaded page. Fewer items than requested marks the
// serviced direction complete — with no store token, a short page is the
// only exhaustion signal an item-keyed source has.
func (cb *PageCallback[T]) OnResult(items []T) {
	if cb.invalid() {
		cb.rec.Deliver(pagedlist.InvalidResult[T](cb.loadType))
		return
	}
	if len(items) > cb.requested {
		panic("itemkeyed: page result larger than requested load size")
	}
	short := len(items) < cb.requested
	cb.rec.Deliver(pagedlist.PageResult[T]{
		Type:          cb.loadType,
		Items:         items,
		FrontComplete: cb.loadType == pagedlist.LoadPrepend && short,
		EndComplete:   cb.loadType == pagedlist.LoadAppend && short,
	})
}

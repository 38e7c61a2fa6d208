// Package pagekeyed provides the page-keyed loading strategy: every page
// fetch returns opaque "previous" and "next" tokens supplied by the backing
// store, and the window can only grow contiguously outward from the initial
// page — there is no random jump.
//
// The latest previous/next tokens are the only engine-level state mutated
// from a load-completion callback that may run off the controlling
// goroutine; they live in a dedicated mutex-guarded cell, written only by
// the completion path and read only by the dispatch path.
package pagekeyed

import (
	"context"
	"sync"

	pagedlist "github.com/nrfta/go-pagedlist"
)

// InitialParams describes the construction-time load.
type InitialParams struct {
	// RequestedLoadSize is the number of items to load.
	RequestedLoadSize int
}

// LoadParams describes one prepend/append load.
type LoadParams[K any] struct {
	// Key is the token the store returned for the page adjacent to the
	// current window in the requested direction.
	Key K

	// RequestedLoadSize is the number of items to load.
	RequestedLoadSize int
}

// Loader is implemented against the backing store. Each method must cause
// exactly one delivery on its callback.
type Loader[K, T any] interface {
	// LoadInitial fetches the first page and the tokens adjacent to it.
	LoadInitial(ctx context.Context, params InitialParams, cb *InitialCallback[K, T])

	// LoadBefore fetches the page preceding params.Key.
	LoadBefore(ctx context.Context, params LoadParams[K], cb *PageCallback[K, T])

	// LoadAfter fetches the page following params.Key.
	LoadAfter(ctx context.Context, params LoadParams[K], cb *PageCallback[K, T])
}

// Source adapts a Loader to the pagedlist.Source contract.
type Source[K, T any] struct {
	pagedlist.SourceBase
	loader Loader[K, T]

	// keyMu guards prevKey/nextKey. nil means the store reported no page in
	// that direction.
	keyMu   sync.Mutex
	prevKey *K
	nextKey *K
}

// New wraps a Loader as a page-keyed data source.
func New[K, T any](loader Loader[K, T]) *Source[K, T] {
	return &Source[K, T]{loader: loader}
}

func (s *Source[K, T]) setKeys(prev, next *K) {
	s.keyMu.Lock()
	s.prevKey = prev
	s.nextKey = next
	s.keyMu.Unlock()
}

func (s *Source[K, T]) setPrevKey(key *K) {
	s.keyMu.Lock()
	s.prevKey = key
	s.keyMu.Unlock()
}

func (s *Source[K, T]) setNextKey(key *K) {
	s.keyMu.Lock()
	s.nextKey = key
	s.keyMu.Unlock()
}

// DispatchLoadInitial implements pagedlist.Source. Page-keyed stores supply
// their own tokens, so key is ignored; the load always begins at the
// store's first page.
func (s *Source[K, T]) DispatchLoadInitial(ctx context.Context, _ *K, requestedSize, _ int, rec *pagedlist.Receiver[T]) {
	if s.Invalid() {
		rec.Deliver(pagedlist.InvalidResult[T](pagedlist.LoadInit))
		return
	}
	s.loader.LoadInitial(ctx, InitialParams{RequestedLoadSize: requestedSize}, &InitialCallback[K, T]{src: s, rec: rec})
}

// DispatchLoadBefore implements pagedlist.Source. It reads the current
// previous-page token; a nil token means the front is already complete and
// an empty result is delivered without touching the loader.
func (s *Source[K, T]) DispatchLoadBefore(ctx context.Context, _ int, _ T, pageSize int, rec *pagedlist.Receiver[T]) {
	if s.Invalid() {
		rec.Deliver(pagedlist.InvalidResult[T](pagedlist.LoadPrepend))
		return
	}
	s.keyMu.Lock()
	key := s.prevKey
	s.keyMu.Unlock()
	if key == nil {
		rec.Deliver(pagedlist.PageResult[T]{Type: pagedlist.LoadPrepend, FrontComplete: true})
		return
	}
	s.loader.LoadBefore(ctx, LoadParams[K]{Key: *key, RequestedLoadSize: pageSize},
		&PageCallback[K, T]{src: s, rec: rec, loadType: pagedlist.LoadPrepend})
}

// DispatchLoadAfter implements pagedlist.Source, symmetric to
// DispatchLoadBefore over the next-page token.
func (s *Source[K, T]) DispatchLoadAfter(ctx context.Context, _ int, _ T, pageSize int, rec *pagedlist.Receiver[T]) {
	if s.Invalid() {
		rec.Deliver(pagedlist.InvalidResult[T](pagedlist.LoadAppend))
		return
	}
	s.keyMu.Lock()
	key := s.nextKey
	s.keyMu.Unlock()
	if key == nil {
		rec.Deliver(pagedlist.PageResult[T]{Type: pagedlist.LoadAppend, EndComplete: true})
		return
	}
	s.loader.LoadAfter(ctx, LoadParams[K]{Key: *key, RequestedLoadSize: pageSize},
		&PageCallback[K, T]{src: s, rec: rec, loadType: pagedlist.LoadAppend})
}

// InitialCallback reports the construction-time load. Single use.
type InitialCallback[K, T any] struct {
	src *Source[K, T]
	rec *pagedlist.Receiver[T]
}

// OnResult reports the first page with its adjacent tokens. Pass nil for a
// direction the store has no more data in.
func (cb *InitialCallback[K, T]) OnResult(items []T, previousKey, nextKey *K) {
	if cb.src.Invalid() {
		cb.rec.Deliver(pagedlist.InvalidResult[T](pagedlist.LoadInit))
		return
	}
	cb.src.setKeys(previousKey, nextKey)
	cb.rec.Deliver(pagedlist.PageResult[T]{
		Type:          pagedlist.LoadInit,
		Items:         items,
		FrontComplete: previousKey == nil,
		EndComplete:   nextKey == nil,
	})
}

// PageCallback reports one prepend/append load. Single use.
type PageCallback[K, T any] struct {
	src      *Source[K, T]
	rec      *pagedlist.Receiver[T]
	loadType pagedlist.LoadType
}

// OnResult reports the loaded page and the token for the page beyond it in
// the load's direction (the new previous token for a prepend, the new next
// token for an append). Pass nil when the dataset is exhausted in that
// direction.
func (cb *PageCallback[K, T]) OnResult(items []T, adjacentKey *K) {
	if cb.src.Invalid() {
		cb.rec.Deliver(pagedlist.InvalidResult[T](cb.loadType))
		return
	}
	res := pagedlist.PageResult[T]{Type: cb.loadType, Items: items}
	switch cb.loadType {
	case pagedlist.LoadPrepend:
		cb.src.setPrevKey(adjacentKey)
		res.FrontComplete = adjacentKey == nil
	case pagedlist.LoadAppend:
		cb.src.setNextKey(adjacentKey)
		res.EndComplete = adjacentKey == nil
	}
	cb.rec.Deliver(res)
}

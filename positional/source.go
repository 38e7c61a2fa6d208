// Package positional provides the position-addressed (tiled) loading
// strategy: pages are fetched by absolute integer offset, which supports
// efficient random jump-to-offset and, when the backing store can count
// itself, full placeholder computation.
//
// Implement Loader against your store and wrap it with New:
//
//	source := positional.New(loader)
//	list, err := pagedlist.NewBuilder[int, Row](source, cfg).Build()
package positional

import (
	"context"
	"sync"

	pagedlist "github.com/nrfta/go-pagedlist"
)

// InitialParams describes the construction-time load.
type InitialParams struct {
	// RequestedStartPosition is the absolute position the load should begin
	// at. Already page-aligned and clamped to >= 0.
	RequestedStartPosition int

	// RequestedLoadSize is the number of items to load, coerced to a
	// multiple of PageSize.
	RequestedLoadSize int

	// PageSize is the configured page size, for loaders that tile caches.
	PageSize int
}

// RangeParams describes one prepend/append load.
type RangeParams struct {
	// StartPosition is the absolute position of the first item to load.
	StartPosition int

	// LoadSize is the number of items requested. May be smaller than the
	// page size when the range is clamped at position zero.
	LoadSize int
}

// Loader is implemented against the backing store. Both methods must cause
// exactly one delivery on their callback — immediately, later, or from
// another goroutine.
type Loader[T any] interface {
	// LoadInitial fetches the first page. Report through OnResult when the
	// store can count its total size (enabling placeholders), or through
	// OnResultUncounted when counting is impractical.
	LoadInitial(ctx context.Context, params InitialParams, cb *InitialCallback[T])

	// LoadRange fetches params.LoadSize items starting at
	// params.StartPosition. Reporting fewer items than requested signals
	// that the dataset ends inside the range.
	LoadRange(ctx context.Context, params RangeParams, cb *RangeCallback[T])
}

// LoaderFuncs adapts plain functions to the Loader interface, for loaders
// with no state of their own.
type LoaderFuncs[T any] struct {
	LoadInitialFunc func(ctx context.Context, params InitialParams, cb *InitialCallback[T])
	LoadRangeFunc   func(ctx context.Context, params RangeParams, cb *RangeCallback[T])
}

func (f LoaderFuncs[T]) LoadInitial(ctx context.Context, params InitialParams, cb *InitialCallback[T]) {
	f.LoadInitialFunc(ctx, params, cb)
}

func (f LoaderFuncs[T]) LoadRange(ctx context.Context, params RangeParams, cb *RangeCallback[T]) {
	f.LoadRangeFunc(ctx, params, cb)
}

// Source adapts a Loader to the pagedlist.Source contract, keyed by
// absolute position.
type Source[T any] struct {
	pagedlist.SourceBase
	loader Loader[T]

	// offset is the absolute position of list index 0. Zero when the
	// initial load was counted (placeholders make list indices absolute).
	// When uncounted it starts at the initial position and decreases as
	// prepended pages shift the window. Written by the load-completion
	// path, read by the dispatch path, guarded by mu.
	mu      sync.Mutex
	offset  int
	counted bool
}

func (s *Source[T]) position(index int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.offset + index
}

func (s *Source[T]) initWindow(position int, counted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counted = counted
	if !counted {
		s.offset = position
	}
}

func (s *Source[T]) shiftWindow(prepended int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.counted {
		s.offset -= prepended
	}
}

// New wraps a Loader as a positional data source.
func New[T any](loader Loader[T]) *Source[T] {
	return &Source[T]{loader: loader}
}

// DispatchLoadInitial implements pagedlist.Source. The requested size is
// rounded up to a multiple of pageSize and the start position is centered
// on key (when given) then aligned to a page boundary, so later tiles line
// up with the initial one.
func (s *Source[T]) DispatchLoadInitial(ctx context.Context, key *int, requestedSize, pageSize int, rec *pagedlist.Receiver[T]) {
	if s.Invalid() {
		rec.Deliver(pagedlist.InvalidResult[T](pagedlist.LoadInit))
		return
	}

	size := ((requestedSize + pageSize - 1) / pageSize) * pageSize
	start := 0
	if key != nil {
		start = *key - size/2
		if start < 0 {
			start = 0
		}
		start = (start / pageSize) * pageSize
	}

	s.loader.LoadInitial(ctx, InitialParams{
		RequestedStartPosition: start,
		RequestedLoadSize:      size,
		PageSize:               pageSize,
	}, &InitialCallback[T]{src: s, rec: rec, requested: size})
}

// DispatchLoadBefore implements pagedlist.Source. The range preceding the
// front edge is clamped at position zero; when the edge is already at zero
// an empty front-complete result is delivered without touching the loader.
func (s *Source[T]) DispatchLoadBefore(ctx context.Context, frontIndex int, _ T, pageSize int, rec *pagedlist.Receiver[T]) {
	if s.Invalid() {
		rec.Deliver(pagedlist.InvalidResult[T](pagedlist.LoadPrepend))
		return
	}
	frontPosition := s.position(frontIndex)
	if frontPosition <= 0 {
		rec.Deliver(pagedlist.PageResult[T]{Type: pagedlist.LoadPrepend, FrontComplete: true})
		return
	}

	size := pageSize
	if size > frontPosition {
		size = frontPosition
	}
	start := frontPosition - size

	s.loader.LoadRange(ctx, RangeParams{StartPosition: start, LoadSize: size},
		&RangeCallback[T]{src: s, rec: rec, loadType: pagedlist.LoadPrepend, start: start, requested: size})
}

// DispatchLoadAfter implements pagedlist.Source.
func (s *Source[T]) DispatchLoadAfter(ctx context.Context, endIndex int, _ T, pageSize int, rec *pagedlist.Receiver[T]) {
	if s.Invalid() {
		rec.Deliver(pagedlist.InvalidResult[T](pagedlist.LoadAppend))
		return
	}
	start := s.position(endIndex) + 1

	s.loader.LoadRange(ctx, RangeParams{StartPosition: start, LoadSize: pageSize},
		&RangeCallback[T]{src: s, rec: rec, loadType: pagedlist.LoadAppend, start: start, requested: pageSize})
}

// InitialCallback reports the construction-time load. Single use: exactly
// one of OnResult or OnResultUncounted must be called, exactly once.
type InitialCallback[T any] struct {
	src       *Source[T]
	rec       *pagedlist.Receiver[T]
	requested int
}

// OnResult reports the loaded items together with their absolute position
// and the store's total count, establishing placeholders on both sides.
// It panics when the counts are inconsistent (a usage error).
func (cb *InitialCallback[T]) OnResult(items []T, position, totalCount int) {
	if cb.src.Invalid() {
		cb.rec.Deliver(pagedlist.InvalidResult[T](pagedlist.LoadInit))
		return
	}
	if position < 0 || totalCount < 0 || position+len(items) > totalCount {
		panic("positional: initial result position/totalCount inconsistent with item count")
	}
	cb.src.initWindow(position, true)
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

// OnResultUncounted reports the loaded items and their absolute position
// when the total count is not computable. The list then runs without
// trailing placeholders and discovers the end through a short or empty
// append.
func (cb *InitialCallback[T]) OnResultUncounted(items []T, position int) {
	if cb.src.Invalid() {
		cb.rec.Deliver(pagedlist.InvalidResult[T](pagedlist.LoadInit))
		return
	}
	if position < 0 {
		panic("positional: negative initial result position")
	}
	cb.src.initWindow(position, false)
	cb.rec.Deliver(pagedlist.PageResult[T]{
		Type:          pagedlist.LoadInit,
		Items:         items,
		Position:      position,
		FrontComplete: position == 0,
		EndComplete:   len(items) == 0,
	})
}

// RangeCallback reports one prepend/append load. Single use.
type RangeCallback[T any] struct {
	src       *Source[T]
	rec       *pagedlist.Receiver[T]
	loadType  pagedlist.LoadType
	start     int
	requested int
}

// OnResult reports the loaded range. Fewer items than requested marks the
// serviced direction complete.
func (cb *RangeCallback[T]) OnResult(items []T) {
	if cb.src.Invalid() {
		cb.rec.Deliver(pagedlist.InvalidResult[T](cb.loadType))
		return
	}
	if len(items) > cb.requested {
		panic("positional: range result larger than requested load size")
	}
	if cb.loadType == pagedlist.LoadPrepend {
		cb.src.shiftWindow(len(items))
	}
	short := len(items) < cb.requested
	cb.rec.Deliver(pagedlist.PageResult[T]{
		Type:          cb.loadType,
		Items:         items,
		FrontComplete: cb.loadType == pagedlist.LoadPrepend && (cb.start == 0 || short),
		EndComplete:   cb.loadType == pagedlist.LoadAppend && short,
	})
}

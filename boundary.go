package pagedlist

// BoundaryCallback observes edge-of-data transitions on a PagedList.
// Each of the three signals fires at most once per list instance, always on
// the controlling executor. A single callback instance may be shared across
// several lists; implementations must therefore tolerate the same logical
// signal arriving once per list.
//
// Embed NoopBoundaryCallback to implement only the signals you care about.
type BoundaryCallback[T any] interface {
	// OnZeroItemsLoaded fires when the initial load returns no items.
	// When it fires, neither edge callback will fire for this list.
	OnZeroItemsLoaded()

	// OnItemAtFrontLoaded fires when the front of the dataset has been
	// loaded and a position within PrefetchDistance of it accessed.
	// item is the current first loaded item.
	OnItemAtFrontLoaded(item T)

	// OnItemAtEndLoaded fires when the end of the dataset has been loaded
	// and a position within PrefetchDistance of it accessed.
	// item is the current last loaded item.
	OnItemAtEndLoaded(item T)
}

// NoopBoundaryCallback is an embeddable BoundaryCallback with no-op
// defaults for every signal.
type NoopBoundaryCallback[T any] struct{}

// OnZeroItemsLoaded implements BoundaryCallback.
func (NoopBoundaryCallback[T]) OnZeroItemsLoaded() {}

// OnItemAtFrontLoaded implements BoundaryCallback.
func (NoopBoundaryCallback[T]) OnItemAtFrontLoaded(T) {}

// OnItemAtEndLoaded implements BoundaryCallback.
func (NoopBoundaryCallback[T]) OnItemAtEndLoaded(T) {}

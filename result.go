package pagedlist

// LoadType tags a PageResult with the direction of the load it answers.
type LoadType int

const (
	// LoadInit is the construction-time load that seeds the window.
	LoadInit LoadType = iota

	// LoadPrepend extends the window at its front edge.
	LoadPrepend

	// LoadAppend extends the window at its end edge.
	LoadAppend
)

// String returns the load type name for diagnostics.
func (t LoadType) String() string {
	switch t {
	case LoadInit:
		return "init"
	case LoadPrepend:
		return "prepend"
	case LoadAppend:
		return "append"
	default:
		return "unknown"
	}
}

// PageResult describes the outcome of one load operation. It is created by
// a data source strategy, delivered through a single-use Receiver, consumed
// once by the owning list, and then discarded.
//
// Leading, Trailing, Position, and Counted are meaningful only for LoadInit
// results from strategies that can report a total count; they establish the
// window's initial placeholder counts.
type PageResult[T any] struct {
	// Type is the direction this result services.
	Type LoadType

	// Items is the loaded page, in logical dataset order. Empty means the
	// dataset is exhausted in this result's direction.
	Items []T

	// Leading is the number of placeholders before the first item (LoadInit
	// only, requires Counted).
	Leading int

	// Trailing is the number of placeholders after the last item (LoadInit
	// only, requires Counted).
	Trailing int

	// Position is the absolute dataset position of the first item (LoadInit
	// only, requires Counted).
	Position int

	// Counted reports whether Leading/Trailing/Position were derived from a
	// total count supplied by the backing store.
	Counted bool

	// FrontComplete reports that no data exists before the first item of
	// this result (LoadInit and LoadPrepend).
	FrontComplete bool

	// EndComplete reports that no data exists after the last item of this
	// result (LoadInit and LoadAppend).
	EndComplete bool

	// Invalid marks a result delivered for a source that has been
	// invalidated. Invalid results carry no data and must not mutate
	// storage; the receiving list detaches instead.
	Invalid bool
}

// InvalidResult builds the result delivered in place of real data once a
// source has been invalidated.
func InvalidResult[T any](t LoadType) PageResult[T] {
	return PageResult[T]{Type: t, Invalid: true}
}

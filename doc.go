// Package pagedlist presents a logically unbounded ordered dataset as a
// fixed-size in-memory window with optional placeholders, growing the window
// incrementally as positions near its edges are accessed.
//
// A PagedList owns a windowed Storage and a data Source. Consumers call
// LoadAround once per accessed position (typically once per visible-row
// bind); the list tracks the accessed extent, dispatches at most one
// outstanding page load per direction, and notifies an optional
// BoundaryCallback exactly once per edge when the end of the dataset has
// been both reached and recently accessed.
//
// Three loading strategies are provided as subpackages, all speaking the
// same Source contract:
//   - positional: absolute-offset tiling with random jump and placeholders
//   - pagekeyed: store-supplied next/previous page tokens, contiguous only
//   - itemkeyed: continuation keys derived from the items at the edges
//
// The sqlite subpackage adapts an embedded SQLite table to the positional
// and item-keyed strategies.
//
// # Threading
//
// A single controlling goroutine owns the list: Get, LoadAround, and all
// storage mutation happen there. Page loads may execute anywhere; their
// results are marshalled back through the list's controlling Executor,
// which is the only cross-goroutine hand-off point.
//
// Example usage:
//
//	cfg, err := pagedlist.NewConfigBuilder().PageSize(20).Build()
//	if err != nil {
//	    return err
//	}
//
//	source := positional.New(loader)
//	list, err := pagedlist.NewBuilder[int, Row](source, cfg).
//	    BoundaryCallback(cb).
//	    Build()
//	if err != nil {
//	    return err
//	}
//
//	for i := range visible {
//	    list.LoadAround(i)
//	    if row, ok := list.Get(i); ok {
//	        bind(row)
//	    } // else still a placeholder
//	}
package pagedlist

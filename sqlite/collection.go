// Package sqlite adapts one ordered table of an embedded SQLite database to
// the paged-list loading strategies. It uses the pure-Go modernc.org/sqlite
// driver, so the backing store runs in-process with no cgo and no server.
//
// A Collection wraps a table ordered by a unique key column and exposes a
// positional loader (LIMIT/OFFSET plus COUNT, enabling placeholders) and an
// item-keyed loader (keyset predicates on the key column).
//
// Example usage:
//
//	db, err := sqlite.Open("library.db")
//	coll := sqlite.NewCollection(db, "books", "id", "id, title, rating",
//	    scanBook, func(b Book) string { return b.ID })
//
//	source := positional.New(coll.PositionalLoader())
//	list, err := pagedlist.NewBuilder[int, Book](source, cfg).Build()
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/friendsofgo/errors"
	_ "modernc.org/sqlite" // registers the pure-Go "sqlite" driver

	"github.com/nrfta/go-pagedlist/itemkeyed"
	"github.com/nrfta/go-pagedlist/positional"
)

// Open opens (creating if needed) an embedded database file and verifies
// the connection. Use ":memory:" for an in-memory database.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrapf(err, "open sqlite database %q", path)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.Wrapf(err, "ping sqlite database %q", path)
	}
	return db, nil
}

// RowScanner decodes the current row of a result set into an item.
type RowScanner[T any] func(rows *sql.Rows) (T, error)

// ErrorHandler observes query failures inside the loaders. op is "initial",
// "range", "before", or "after".
type ErrorHandler func(op string, err error)

// Collection is a paged view over one table, ordered ascending by a unique
// key column.
//
// The engine's contract forbids loaders from surfacing errors: a fetch
// failure must become a (possibly empty) result. The Collection's loaders
// therefore report an empty page on query failure — which marks that edge
// complete — and forward the error to the OnError handler so callers can
// invalidate the source and rebuild.
type Collection[K, T any] struct {
	db        *sql.DB
	table     string
	keyColumn string
	columns   string
	scanRow   RowScanner[T]
	keyOf     func(T) K
	onError   ErrorHandler
}

// NewCollection creates a Collection.
//
// Parameters:
//   - table: table name
//   - keyColumn: unique, indexed column defining dataset order
//   - columns: the SELECT column list, in the order scanRow consumes them
//   - scanRow: decodes one row into a T
//   - keyOf: extracts the key column's value from an item
func NewCollection[K, T any](
	db *sql.DB,
	table, keyColumn, columns string,
	scanRow RowScanner[T],
	keyOf func(T) K,
) *Collection[K, T] {
	return &Collection[K, T]{
		db:        db,
		table:     table,
		keyColumn: keyColumn,
		columns:   columns,
		scanRow:   scanRow,
		keyOf:     keyOf,
		onError:   func(string, error) {},
	}
}

// OnError registers a handler for query failures inside the loaders.
func (c *Collection[K, T]) OnError(h ErrorHandler) *Collection[K, T] {
	if h != nil {
		c.onError = h
	}
	return c
}

// Count returns the table's total row count.
func (c *Collection[K, T]) Count(ctx context.Context) (int, error) {
	var count int
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", c.table)
	if err := c.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, errors.Wrapf(err, "count %s", c.table)
	}
	return count, nil
}

// Range returns limit items starting offset rows into the key order.
func (c *Collection[K, T]) Range(ctx context.Context, offset, limit int) ([]T, error) {
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY %s ASC LIMIT ? OFFSET ?",
		c.columns, c.table, c.keyColumn)
	return c.queryItems(ctx, query, limit, offset)
}

// After returns up to limit items with keys strictly greater than key, in
// dataset order.
func (c *Collection[K, T]) After(ctx context.Context, key K, limit int) ([]T, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s > ? ORDER BY %s ASC LIMIT ?",
		c.columns, c.table, c.keyColumn, c.keyColumn)
	return c.queryItems(ctx, query, key, limit)
}

// Before returns up to limit items with keys strictly less than key, in
// dataset order (the nearest-to-key items, reordered ascending).
func (c *Collection[K, T]) Before(ctx context.Context, key K, limit int) ([]T, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s < ? ORDER BY %s DESC LIMIT ?",
		c.columns, c.table, c.keyColumn, c.keyColumn)
	items, err := c.queryItems(ctx, query, key, limit)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
	return items, nil
}

// AtOrAfter returns up to limit items with keys at or above key, in dataset
// order. Used to resume an item-keyed list from a saved key.
func (c *Collection[K, T]) AtOrAfter(ctx context.Context, key K, limit int) ([]T, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s >= ? ORDER BY %s ASC LIMIT ?",
		c.columns, c.table, c.keyColumn, c.keyColumn)
	return c.queryItems(ctx, query, key, limit)
}

func (c *Collection[K, T]) queryItems(ctx context.Context, query string, args ...any) ([]T, error) {
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrapf(err, "query %s", c.table)
	}
	defer rows.Close()

	var items []T
	for rows.Next() {
		item, err := c.scanRow(rows)
		if err != nil {
			return nil, errors.Wrapf(err, "scan %s row", c.table)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrapf(err, "iterate %s rows", c.table)
	}
	return items, nil
}

// PositionalLoader adapts the collection to the positional strategy, using
// COUNT to establish placeholders.
func (c *Collection[K, T]) PositionalLoader() positional.Loader[T] {
	return &positionalLoader[K, T]{c: c}
}

// ItemKeyedLoader adapts the collection to the item-keyed strategy.
func (c *Collection[K, T]) ItemKeyedLoader() itemkeyed.Loader[K, T] {
	return &itemKeyedLoader[K, T]{c: c}
}

type positionalLoader[K, T any] struct {
	c *Collection[K, T]
}

func (l *positionalLoader[K, T]) LoadInitial(ctx context.Context, params positional.InitialParams, cb *positional.InitialCallback[T]) {
	total, err := l.c.Count(ctx)
	if err != nil {
		l.c.onError("initial", err)
		cb.OnResult(nil, 0, 0)
		return
	}

	// Pull a start past the end back to the last page boundary that still
	// fits the requested load.
	start := params.RequestedStartPosition
	maxStart := ((total - params.RequestedLoadSize + params.PageSize - 1) / params.PageSize) * params.PageSize
	if start > maxStart {
		start = maxStart
	}
	if start < 0 {
		start = 0
	}
	items, err := l.c.Range(ctx, start, params.RequestedLoadSize)
	if err != nil {
		l.c.onError("initial", err)
		cb.OnResult(nil, 0, 0)
		return
	}
	cb.OnResult(items, start, total)
}

func (l *positionalLoader[K, T]) LoadRange(ctx context.Context, params positional.RangeParams, cb *positional.RangeCallback[T]) {
	items, err := l.c.Range(ctx, params.StartPosition, params.LoadSize)
	if err != nil {
		l.c.onError("range", err)
		cb.OnResult(nil)
		return
	}
	cb.OnResult(items)
}

type itemKeyedLoader[K, T any] struct {
	c *Collection[K, T]
}

func (l *itemKeyedLoader[K, T]) LoadInitial(ctx context.Context, params itemkeyed.InitialParams[K], cb *itemkeyed.InitialCallback[T]) {
	var (
		items []T
		err   error
	)
	if params.RequestedInitialKey != nil {
		items, err = l.c.AtOrAfter(ctx, *params.RequestedInitialKey, params.RequestedLoadSize)
	} else {
		items, err = l.c.Range(ctx, 0, params.RequestedLoadSize)
	}
	if err != nil {
		l.c.onError("initial", err)
		cb.OnResult(nil)
		return
	}
	cb.OnResult(items)
}

func (l *itemKeyedLoader[K, T]) LoadBefore(ctx context.Context, params itemkeyed.LoadParams[K], cb *itemkeyed.PageCallback[T]) {
	items, err := l.c.Before(ctx, params.Key, params.RequestedLoadSize)
	if err != nil {
		l.c.onError("before", err)
		cb.OnResult(nil)
		return
	}
	cb.OnResult(items)
}

func (l *itemKeyedLoader[K, T]) LoadAfter(ctx context.Context, params itemkeyed.LoadParams[K], cb *itemkeyed.PageCallback[T]) {
	items, err := l.c.After(ctx, params.Key, params.RequestedLoadSize)
	if err != nil {
		l.c.onError("after", err)
		cb.OnResult(nil)
		return
	}
	cb.OnResult(items)
}

func (l *itemKeyedLoader[K, T]) KeyOf(item T) K {
	return l.c.keyOf(item)
}

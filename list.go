package pagedlist

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/friendsofgo/errors"
	"go.uber.org/zap"
)

// ErrInvalidatedSource is returned by Builder.Build when the data source is
// invalidated before or during the initial load.
var ErrInvalidatedSource = errors.New("pagedlist: data source invalidated during initial load")

// PagedList presents the dataset as an indexed window with placeholders and
// grows it in response to access. It owns exactly one Storage and
// references one Source and at most one BoundaryCallback.
//
// All methods must be called from the controlling goroutine — the one that
// drains the controlling Executor. Loads execute on the fetch executor and
// deliver back through the controlling executor; that hand-off is the only
// synchronization the list performs.
type PagedList[K, T any] struct {
	config   *Config
	source   Source[K, T]
	storage  *Storage[T]
	boundary BoundaryCallback[T]
	mainExec Executor
	loadExec Executor
	ctx      context.Context
	log      *zap.Logger

	detached atomic.Bool

	// Controlling-goroutine state. lowest/highest are valid only once
	// accessed is true; an explicit flag avoids sentinel values.
	lastLoad        int
	lastItem        *T
	lowestAccessed  int
	highestAccessed int
	accessed        bool

	// counted means placeholders were established from a total count, so
	// edge exhaustion can also be observed through placeholder counts.
	counted bool

	// frontComplete/endComplete latch "no more data in this direction".
	// beginDeferred/endDeferred arm the corresponding boundary callback;
	// each is cleared once its callback fires.
	frontComplete bool
	endComplete   bool
	beginDeferred bool
	endDeferred   bool

	zeroFired  bool
	frontFired bool
	endFired   bool

	prependInFlight bool
	appendInFlight  bool
}

// Builder assembles a PagedList. Build performs the initial load
// synchronously on the calling goroutine, so the returned list is ready to
// index immediately.
type Builder[K, T any] struct {
	source     Source[K, T]
	config     *Config
	boundary   BoundaryCallback[T]
	initialKey *K
	mainExec   Executor
	loadExec   Executor
	ctx        context.Context
	log        *zap.Logger
}

// NewBuilder creates a Builder for the given source and config. Both are
// required.
func NewBuilder[K, T any](source Source[K, T], config *Config) *Builder[K, T] {
	return &Builder[K, T]{
		source: source,
		config: config,
	}
}

// BoundaryCallback registers the edge observer. Optional.
func (b *Builder[K, T]) BoundaryCallback(cb BoundaryCallback[T]) *Builder[K, T] {
	b.boundary = cb
	return b
}

// InitialKey positions the initial load, e.g. to resume a previous session.
// Optional; strategies fall back to their default starting position.
func (b *Builder[K, T]) InitialKey(key K) *Builder[K, T] {
	b.initialKey = &key
	return b
}

// ControllingExecutor sets the executor that marshals load results and
// boundary notifications back to the controlling goroutine. Defaults to
// ImmediateExecutor; consumers with their own event loop supply it here
// (a SerialExecutor, typically).
func (b *Builder[K, T]) ControllingExecutor(e Executor) *Builder[K, T] {
	b.mainExec = e
	return b
}

// FetchExecutor sets the executor on which prepend/append dispatch runs.
// Defaults to ImmediateExecutor; use GoExecutor (or your own pool) when the
// source performs blocking I/O.
func (b *Builder[K, T]) FetchExecutor(e Executor) *Builder[K, T] {
	b.loadExec = e
	return b
}

// Context sets the context passed to every load dispatch. Defaults to
// context.Background. Cancelling it is a concern of the data source; the
// list itself never cancels loads.
func (b *Builder[K, T]) Context(ctx context.Context) *Builder[K, T] {
	b.ctx = ctx
	return b
}

// Logger sets the diagnostics logger. Defaults to a no-op logger; the list
// logs load dispatch and delivery at debug level only.
func (b *Builder[K, T]) Logger(log *zap.Logger) *Builder[K, T] {
	b.log = log
	return b
}

// Build runs the initial load and returns the initialized list. The initial
// load executes synchronously on the calling goroutine: no other goroutine
// can hold the list yet, so this is the one load that skips the controlling
// executor. Boundary conditions arising from the initial load are evaluated
// inline for the same reason.
func (b *Builder[K, T]) Build() (*PagedList[K, T], error) {
	if b.source == nil {
		return nil, errors.New("pagedlist: builder requires a data source")
	}
	if b.config == nil {
		return nil, errors.New("pagedlist: builder requires a config")
	}
	mainExec := b.mainExec
	if mainExec == nil {
		mainExec = ImmediateExecutor{}
	}
	loadExec := b.loadExec
	if loadExec == nil {
		loadExec = ImmediateExecutor{}
	}
	ctx := b.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	log := b.log
	if log == nil {
		log = zap.NewNop()
	}

	l := &PagedList[K, T]{
		config:   b.config,
		source:   b.source,
		storage:  NewStorage[T](),
		boundary: b.boundary,
		mainExec: mainExec,
		loadExec: loadExec,
		ctx:      ctx,
		log:      log,
	}

	resCh := make(chan PageResult[T], 1)
	rec := NewReceiver(func(res PageResult[T]) { resCh <- res })
	b.source.DispatchLoadInitial(ctx, b.initialKey, b.config.InitialLoadSizeHint, b.config.PageSize, rec)
	res := <-resCh

	if res.Invalid || b.source.Invalid() {
		return nil, ErrInvalidatedSource
	}

	leading, trailing := 0, 0
	if res.Counted {
		leading = res.Leading
		trailing = res.Trailing
		l.counted = true
	}
	l.storage.Init(leading, res.Items, trailing)
	l.lastLoad = leading + len(res.Items)/2

	l.frontComplete = res.FrontComplete || (l.counted && l.storage.LeadingNullCount() == 0)
	l.endComplete = res.EndComplete || (l.counted && l.storage.TrailingNullCount() == 0)
	l.beginDeferred = l.frontComplete
	l.endDeferred = l.endComplete

	l.log.Debug("paged list initialized",
		zap.Int("loaded", l.storage.LoadedCount()),
		zap.Int("size", l.storage.Size()),
		zap.Bool("counted", l.counted))

	if l.boundary != nil && l.storage.Size() == 0 {
		l.zeroFired = true
		l.beginDeferred = false
		l.endDeferred = false
		l.boundary.OnZeroItemsLoaded()
	}
	// Construction runs before any consumer can be reentered, so boundary
	// evaluation is inline rather than posted.
	l.dispatchBoundary()

	return l, nil
}

// Size is the total logical size of the list: loaded items plus
// placeholders.
func (l *PagedList[K, T]) Size() int {
	return l.storage.Size()
}

// LoadedCount is the number of currently loaded items.
func (l *PagedList[K, T]) LoadedCount() int {
	return l.storage.LoadedCount()
}

// Get returns the item at logical index i, or the zero value and false when
// the slot is still a placeholder. A loaded item is recorded as the last
// accessed item. It panics when i is out of [0, Size): indexing past the
// window is a programming error, as with a slice.
func (l *PagedList[K, T]) Get(i int) (T, bool) {
	item, ok := l.storage.Get(i)
	if ok {
		l.lastItem = &item
	}
	return item, ok
}

// LastLoadPosition returns the logical index the most recent load activity
// was anchored at: the middle of the initial page, then the latest
// LoadAround index, shifted along when prepended pages grow the window.
// Feed it (or the item near it) into a replacement list's InitialKey when
// rebuilding after invalidation.
func (l *PagedList[K, T]) LastLoadPosition() int {
	return l.lastLoad
}

// LastAccessedItem returns the most recent loaded item returned by Get,
// useful for re-deriving a continuation key when rebuilding a list after
// invalidation.
func (l *PagedList[K, T]) LastAccessedItem() (T, bool) {
	if l.lastItem == nil {
		var zero T
		return zero, false
	}
	return *l.lastItem, true
}

// Snapshot copies the current window: items holds loaded values (zero
// values in placeholder slots) and loaded marks which slots are real.
func (l *PagedList[K, T]) Snapshot() (items []T, loaded []bool) {
	size := l.storage.Size()
	items = make([]T, size)
	loaded = make([]bool, size)
	for i := 0; i < size; i++ {
		items[i], loaded[i] = l.storage.Get(i)
	}
	return items, loaded
}

// LoadAround records an access at index i and dispatches whatever loads the
// access warrants. It performs O(1) bookkeeping plus at most one dispatch
// per direction, never blocks, and is safe to call once per visible-row
// bind. It panics when i is out of [0, Size).
func (l *PagedList[K, T]) LoadAround(i int) {
	if i < 0 || i >= l.storage.Size() {
		panic(fmt.Sprintf("pagedlist: LoadAround(%d) out of bounds for size %d", i, l.storage.Size()))
	}

	l.lastLoad = i
	if !l.accessed {
		l.accessed = true
		l.lowestAccessed = i
		l.highestAccessed = i
	} else {
		if i < l.lowestAccessed {
			l.lowestAccessed = i
		}
		if i > l.highestAccessed {
			l.highestAccessed = i
		}
	}

	l.scheduleLoads()
	// Posted rather than run inline: the caller may be mid view update.
	l.mainExec.Execute(l.dispatchBoundary)
}

// Detach idempotently stops the list from issuing new loads. Bookkeeping
// continues; in-flight loads still deliver and their results are accepted
// while the source remains valid. Detachment is irreversible.
func (l *PagedList[K, T]) Detach() {
	if l.detached.CompareAndSwap(false, true) {
		l.log.Debug("paged list detached")
	}
}

// IsDetached reports whether the list has stopped issuing loads.
func (l *PagedList[K, T]) IsDetached() bool {
	return l.detached.Load()
}

// scheduleLoads dispatches a prepend and/or append when the accessed extent
// is within PrefetchDistance of the corresponding loaded edge.
func (l *PagedList[K, T]) scheduleLoads() {
	if !l.accessed || l.storage.LoadedCount() == 0 {
		return
	}
	if l.lowestAccessed-l.storage.FirstLoadedIndex() < l.config.PrefetchDistance {
		l.schedulePrepend()
	}
	if l.storage.LastLoadedIndex()-l.highestAccessed < l.config.PrefetchDistance {
		l.scheduleAppend()
	}
}

func (l *PagedList[K, T]) schedulePrepend() {
	if l.detached.Load() || l.prependInFlight || l.frontComplete {
		return
	}
	if l.source.Invalid() {
		l.Detach()
		return
	}
	l.prependInFlight = true

	frontIndex := l.storage.FirstLoadedIndex()
	frontItem := l.storage.FirstLoadedItem()
	rec := l.newPageReceiver(LoadPrepend)

	l.log.Debug("dispatching load", zap.Stringer("direction", LoadPrepend), zap.Int("edge", frontIndex))
	l.loadExec.Execute(func() {
		l.source.DispatchLoadBefore(l.ctx, frontIndex, frontItem, l.config.PageSize, rec)
	})
}

func (l *PagedList[K, T]) scheduleAppend() {
	if l.detached.Load() || l.appendInFlight || l.endComplete {
		return
	}
	if l.source.Invalid() {
		l.Detach()
		return
	}
	l.appendInFlight = true

	endIndex := l.storage.LastLoadedIndex()
	endItem := l.storage.LastLoadedItem()
	rec := l.newPageReceiver(LoadAppend)

	l.log.Debug("dispatching load", zap.Stringer("direction", LoadAppend), zap.Int("edge", endIndex))
	l.loadExec.Execute(func() {
		l.source.DispatchLoadAfter(l.ctx, endIndex, endItem, l.config.PageSize, rec)
	})
}

// newPageReceiver builds the single-use receiver for one prepend/append
// load. Delivery marshals the result onto the controlling executor; this is
// the only point where a load's goroutine touches the list.
func (l *PagedList[K, T]) newPageReceiver(t LoadType) *Receiver[T] {
	return NewReceiver(func(res PageResult[T]) {
		l.mainExec.Execute(func() {
			l.onPageResult(t, res)
		})
	})
}

// onPageResult applies one delivered page on the controlling goroutine.
func (l *PagedList[K, T]) onPageResult(t LoadType, res PageResult[T]) {
	switch t {
	case LoadPrepend:
		l.prependInFlight = false
	case LoadAppend:
		l.appendInFlight = false
	}

	// A result that raced with invalidation is discarded without touching
	// storage; the list it belongs to has been superseded.
	if res.Invalid || l.source.Invalid() {
		l.log.Debug("discarding stale load result", zap.Stringer("direction", t))
		l.Detach()
		return
	}

	l.log.Debug("load delivered", zap.Stringer("direction", t), zap.Int("count", len(res.Items)))

	switch t {
	case LoadPrepend:
		// When the page overflows the leading placeholders every logical
		// index shifts; the accessed extent must shift with it or the
		// prefetch check keeps seeing a front-edge access forever.
		if shift := l.storage.PrependPage(res.Items); shift > 0 {
			l.lastLoad += shift
			if l.accessed {
				l.lowestAccessed += shift
				l.highestAccessed += shift
			}
		}
		if len(res.Items) == 0 || res.FrontComplete || (l.counted && l.storage.LeadingNullCount() == 0) {
			l.markFrontComplete()
		}
	case LoadAppend:
		l.storage.AppendPage(res.Items)
		if len(res.Items) == 0 || res.EndComplete || (l.counted && l.storage.TrailingNullCount() == 0) {
			l.markEndComplete()
		}
	}

	// The accessed extent may still demand more of this edge; keep the
	// window growing until it is satisfied or the edge is exhausted.
	l.scheduleLoads()
	l.dispatchBoundary()
}

func (l *PagedList[K, T]) markFrontComplete() {
	l.frontComplete = true
	if !l.frontFired && !l.zeroFired {
		l.beginDeferred = true
	}
}

func (l *PagedList[K, T]) markEndComplete() {
	l.endComplete = true
	if !l.endFired && !l.zeroFired {
		l.endDeferred = true
	}
}

// dispatchBoundary fires whichever deferred boundary callbacks have had
// their edge accessed within PrefetchDistance. Runs on the controlling
// goroutine only.
func (l *PagedList[K, T]) dispatchBoundary() {
	if l.boundary == nil || !l.accessed || l.storage.LoadedCount() == 0 {
		return
	}
	if l.beginDeferred && l.lowestAccessed <= l.config.PrefetchDistance {
		l.beginDeferred = false
		l.frontFired = true
		l.boundary.OnItemAtFrontLoaded(l.storage.FirstLoadedItem())
	}
	if l.endDeferred && l.highestAccessed >= l.storage.Size()-1-l.config.PrefetchDistance {
		l.endDeferred = false
		l.endFired = true
		l.boundary.OnItemAtEndLoaded(l.storage.LastLoadedItem())
	}
}

package pagedlist_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	pagedlist "github.com/nrfta/go-pagedlist"
)

// memorySource is a source over a fixed in-memory dataset. Counted by
// default, so logical indices coincide with dataset positions; with
// uncounted set it reports no total and tracks the absolute position of
// list index 0 itself, like a store that cannot count. With manual set,
// prepend/append deliveries are parked until flush, so tests can observe
// in-flight state.
type memorySource struct {
	pagedlist.SourceBase
	data      []string
	manual    bool
	uncounted bool

	offset   int
	pending  []func()
	prepends int
	appends  int
}

func newMemorySource(data []string) *memorySource {
	return &memorySource{data: data}
}

func (s *memorySource) DispatchLoadInitial(_ context.Context, key *int, requestedSize, _ int, rec *pagedlist.Receiver[string]) {
	if s.Invalid() {
		rec.Deliver(pagedlist.InvalidResult[string](pagedlist.LoadInit))
		return
	}
	pos := 0
	if key != nil {
		pos = *key
	}
	if pos > len(s.data) {
		pos = len(s.data)
	}
	end := pos + requestedSize
	if end > len(s.data) {
		end = len(s.data)
	}
	if s.uncounted {
		s.offset = pos
		rec.Deliver(pagedlist.PageResult[string]{
			Type:          pagedlist.LoadInit,
			Items:         s.data[pos:end],
			Position:      pos,
			FrontComplete: pos == 0,
			EndComplete:   len(s.data[pos:end]) == 0,
		})
		return
	}
	rec.Deliver(pagedlist.PageResult[string]{
		Type:          pagedlist.LoadInit,
		Items:         s.data[pos:end],
		Leading:       pos,
		Trailing:      len(s.data) - end,
		Position:      pos,
		Counted:       true,
		FrontComplete: pos == 0,
		EndComplete:   end == len(s.data),
	})
}

func (s *memorySource) DispatchLoadBefore(_ context.Context, frontIndex int, _ string, pageSize int, rec *pagedlist.Receiver[string]) {
	s.prepends++
	front := frontIndex
	if s.uncounted {
		front = s.offset + frontIndex
	}
	deliver := func() {
		if s.Invalid() {
			rec.Deliver(pagedlist.InvalidResult[string](pagedlist.LoadPrepend))
			return
		}
		start := front - pageSize
		if start < 0 {
			start = 0
		}
		if s.uncounted {
			s.offset -= front - start
		}
		rec.Deliver(pagedlist.PageResult[string]{
			Type:          pagedlist.LoadPrepend,
			Items:         s.data[start:front],
			FrontComplete: start == 0,
		})
	}
	if s.manual {
		s.pending = append(s.pending, deliver)
		return
	}
	deliver()
}

func (s *memorySource) DispatchLoadAfter(_ context.Context, endIndex int, _ string, pageSize int, rec *pagedlist.Receiver[string]) {
	s.appends++
	last := endIndex
	if s.uncounted {
		last = s.offset + endIndex
	}
	deliver := func() {
		if s.Invalid() {
			rec.Deliver(pagedlist.InvalidResult[string](pagedlist.LoadAppend))
			return
		}
		start := last + 1
		end := start + pageSize
		if end > len(s.data) {
			end = len(s.data)
		}
		rec.Deliver(pagedlist.PageResult[string]{
			Type:        pagedlist.LoadAppend,
			Items:       s.data[start:end],
			EndComplete: end == len(s.data),
		})
	}
	if s.manual {
		s.pending = append(s.pending, deliver)
		return
	}
	deliver()
}

// flush delivers every parked result in dispatch order. Deliveries may park
// new loads; those stay pending for the next flush.
func (s *memorySource) flush() {
	pending := s.pending
	s.pending = nil
	for _, deliver := range pending {
		deliver()
	}
}

// recordingBoundary captures every boundary notification.
type recordingBoundary struct {
	zeroCalls int
	fronts    []string
	ends      []string
}

func (b *recordingBoundary) OnZeroItemsLoaded()              { b.zeroCalls++ }
func (b *recordingBoundary) OnItemAtFrontLoaded(item string) { b.fronts = append(b.fronts, item) }
func (b *recordingBoundary) OnItemAtEndLoaded(item string)   { b.ends = append(b.ends, item) }

var _ = Describe("PagedList", func() {
	newConfig := func(pageSize, prefetch, initial int) *pagedlist.Config {
		return pagedlist.NewConfigBuilder().
			PageSize(pageSize).
			PrefetchDistance(prefetch).
			InitialLoadSizeHint(initial).
			MustBuild()
	}

	Describe("Build", func() {
		It("requires a source and a config", func() {
			_, err := pagedlist.NewBuilder[int, string](nil, newConfig(10, 10, 30)).Build()
			Expect(err).To(HaveOccurred())

			_, err = pagedlist.NewBuilder[int, string](newMemorySource(makeItems(0, 10)), nil).Build()
			Expect(err).To(HaveOccurred())
		})

		It("seeds the window from the initial load, with placeholders", func() {
			source := newMemorySource(makeItems(0, 100))
			list, err := pagedlist.NewBuilder[int, string](source, newConfig(20, 20, 60)).Build()
			Expect(err).ToNot(HaveOccurred())

			Expect(list.Size()).To(Equal(100))
			Expect(list.LoadedCount()).To(Equal(60))

			item, ok := list.Get(0)
			Expect(ok).To(BeTrue())
			Expect(item).To(Equal("item-0"))

			_, ok = list.Get(60)
			Expect(ok).To(BeFalse())
		})

		It("positions the window at the initial key", func() {
			source := newMemorySource(makeItems(0, 100))
			list, err := pagedlist.NewBuilder[int, string](source, newConfig(10, 10, 30)).
				InitialKey(40).
				Build()
			Expect(err).ToNot(HaveOccurred())

			Expect(list.Size()).To(Equal(100))
			_, ok := list.Get(39)
			Expect(ok).To(BeFalse())

			item, ok := list.Get(40)
			Expect(ok).To(BeTrue())
			Expect(item).To(Equal("item-40"))
		})

		It("fails when the source is already invalid", func() {
			source := newMemorySource(makeItems(0, 100))
			source.Invalidate()

			_, err := pagedlist.NewBuilder[int, string](source, newConfig(10, 10, 30)).Build()
			Expect(err).To(MatchError(pagedlist.ErrInvalidatedSource))
		})
	})

	Describe("Zero items", func() {
		It("notifies OnZeroItemsLoaded exactly once and nothing else", func() {
			boundary := &recordingBoundary{}
			source := newMemorySource(nil)
			list, err := pagedlist.NewBuilder[int, string](source, newConfig(10, 10, 30)).
				BoundaryCallback(boundary).
				Build()
			Expect(err).ToNot(HaveOccurred())

			Expect(list.Size()).To(Equal(0))
			Expect(boundary.zeroCalls).To(Equal(1))
			Expect(boundary.fronts).To(BeEmpty())
			Expect(boundary.ends).To(BeEmpty())

			Expect(func() { list.Get(0) }).To(Panic())
			Expect(func() { list.LoadAround(0) }).To(Panic())
		})
	})

	Describe("Get", func() {
		It("panics out of bounds", func() {
			source := newMemorySource(makeItems(0, 10))
			list, err := pagedlist.NewBuilder[int, string](source, newConfig(5, 5, 10)).Build()
			Expect(err).ToNot(HaveOccurred())

			Expect(func() { list.Get(-1) }).To(Panic())
			Expect(func() { list.Get(10) }).To(Panic())
		})

		It("records the last accessed loaded item", func() {
			source := newMemorySource(makeItems(0, 100))
			list, err := pagedlist.NewBuilder[int, string](source, newConfig(10, 10, 30)).Build()
			Expect(err).ToNot(HaveOccurred())

			_, ok := list.LastAccessedItem()
			Expect(ok).To(BeFalse())

			list.Get(7)
			last, ok := list.LastAccessedItem()
			Expect(ok).To(BeTrue())
			Expect(last).To(Equal("item-7"))

			// Placeholder access does not overwrite the record.
			list.Get(90)
			last, ok = list.LastAccessedItem()
			Expect(ok).To(BeTrue())
			Expect(last).To(Equal("item-7"))
		})
	})

	Describe("LoadAround", func() {
		It("panics out of bounds", func() {
			source := newMemorySource(makeItems(0, 10))
			list, err := pagedlist.NewBuilder[int, string](source, newConfig(5, 5, 10)).Build()
			Expect(err).ToNot(HaveOccurred())

			Expect(func() { list.LoadAround(-1) }).To(Panic())
			Expect(func() { list.LoadAround(10) }).To(Panic())
		})

		It("leaves the window alone when the access is far from both edges", func() {
			source := newMemorySource(makeItems(0, 100))
			list, err := pagedlist.NewBuilder[int, string](source, newConfig(10, 5, 30)).Build()
			Expect(err).ToNot(HaveOccurred())

			list.LoadAround(15)

			Expect(source.prepends).To(Equal(0))
			Expect(source.appends).To(Equal(0))
			Expect(list.LoadedCount()).To(Equal(30))
		})

		It("loads pages toward an accessed placeholder and fires the end boundary once", func() {
			boundary := &recordingBoundary{}
			source := newMemorySource(makeItems(0, 100))
			list, err := pagedlist.NewBuilder[int, string](source, newConfig(20, 20, 60)).
				BoundaryCallback(boundary).
				Build()
			Expect(err).ToNot(HaveOccurred())
			Expect(list.LoadedCount()).To(Equal(60))

			list.LoadAround(95)

			Expect(list.Size()).To(Equal(100))
			Expect(list.LoadedCount()).To(Equal(100))
			item, ok := list.Get(95)
			Expect(ok).To(BeTrue())
			Expect(item).To(Equal("item-95"))

			Expect(boundary.ends).To(Equal([]string{"item-99"}))

			// Further accesses at the edge never re-fire the callback.
			list.LoadAround(99)
			Expect(boundary.ends).To(HaveLen(1))
			Expect(source.appends).To(Equal(2))
		})

		It("loads toward the front and fires the front boundary once", func() {
			boundary := &recordingBoundary{}
			source := newMemorySource(makeItems(0, 100))
			list, err := pagedlist.NewBuilder[int, string](source, newConfig(10, 10, 30)).
				InitialKey(30).
				BoundaryCallback(boundary).
				Build()
			Expect(err).ToNot(HaveOccurred())

			list.LoadAround(5)

			item, ok := list.Get(0)
			Expect(ok).To(BeTrue())
			Expect(item).To(Equal("item-0"))
			Expect(boundary.fronts).To(Equal([]string{"item-0"}))

			list.LoadAround(0)
			Expect(boundary.fronts).To(HaveLen(1))
		})

		It("prepends only within prefetch distance on an uncounted window", func() {
			source := newMemorySource(makeItems(0, 1000))
			source.uncounted = true
			list, err := pagedlist.NewBuilder[int, string](source, newConfig(10, 10, 20)).
				InitialKey(500).
				Build()
			Expect(err).ToNot(HaveOccurred())
			Expect(list.Size()).To(Equal(20))

			list.LoadAround(0)

			// One page satisfies the prefetch demand: the prepend shifted
			// the accessed extent along with the window, so the front edge
			// is no longer within prefetch range.
			Expect(source.prepends).To(Equal(1))
			Expect(source.appends).To(Equal(0))
			Expect(list.Size()).To(Equal(30))
			Expect(list.LoadedCount()).To(Equal(30))

			first, ok := list.Get(0)
			Expect(ok).To(BeTrue())
			Expect(first).To(Equal("item-490"))

			// The accessed item kept its identity at the shifted index.
			shifted, ok := list.Get(10)
			Expect(ok).To(BeTrue())
			Expect(shifted).To(Equal("item-500"))
		})

		It("defers the boundary callback until the edge is actually accessed", func() {
			boundary := &recordingBoundary{}
			source := newMemorySource(makeItems(0, 100))
			list, err := pagedlist.NewBuilder[int, string](source, newConfig(10, 5, 100)).
				BoundaryCallback(boundary).
				Build()
			Expect(err).ToNot(HaveOccurred())

			// Everything is loaded and both edges complete, but nothing near
			// an edge has been accessed yet.
			Expect(list.LoadedCount()).To(Equal(100))
			Expect(boundary.fronts).To(BeEmpty())
			Expect(boundary.ends).To(BeEmpty())

			list.LoadAround(50)
			Expect(boundary.fronts).To(BeEmpty())
			Expect(boundary.ends).To(BeEmpty())

			list.LoadAround(2)
			Expect(boundary.fronts).To(Equal([]string{"item-0"}))

			list.LoadAround(97)
			Expect(boundary.ends).To(Equal([]string{"item-99"}))
		})
	})

	Describe("In-flight loads", func() {
		It("dispatches at most one load per direction", func() {
			source := newMemorySource(makeItems(0, 100))
			source.manual = true
			list, err := pagedlist.NewBuilder[int, string](source, newConfig(20, 20, 60)).Build()
			Expect(err).ToNot(HaveOccurred())

			list.LoadAround(95)
			list.LoadAround(96)
			list.LoadAround(99)

			Expect(source.appends).To(Equal(1))
			Expect(source.pending).To(HaveLen(1))

			source.flush()
			Expect(list.LoadedCount()).To(Equal(80))

			// The delivered page keeps the accessed extent unsatisfied, so
			// the continuation dispatches the next append itself.
			Expect(source.appends).To(Equal(2))
			source.flush()
			Expect(list.LoadedCount()).To(Equal(100))
		})
	})

	Describe("Invalidation", func() {
		It("discards a result that raced with invalidation and detaches", func() {
			boundary := &recordingBoundary{}
			source := newMemorySource(makeItems(0, 100))
			source.manual = true
			list, err := pagedlist.NewBuilder[int, string](source, newConfig(20, 20, 60)).
				BoundaryCallback(boundary).
				Build()
			Expect(err).ToNot(HaveOccurred())

			list.LoadAround(95)
			Expect(source.pending).To(HaveLen(1))

			source.Invalidate()
			source.flush()

			Expect(list.Size()).To(Equal(100))
			Expect(list.LoadedCount()).To(Equal(60))
			Expect(list.IsDetached()).To(BeTrue())
			Expect(boundary.ends).To(BeEmpty())

			// Bookkeeping continues, loads do not.
			appends := source.appends
			list.LoadAround(99)
			Expect(source.appends).To(Equal(appends))
		})

		It("runs invalidation hooks once", func() {
			source := newMemorySource(makeItems(0, 10))
			calls := 0
			source.OnInvalidated(func() { calls++ })

			source.Invalidate()
			source.Invalidate()

			Expect(source.Invalid()).To(BeTrue())
			Expect(calls).To(Equal(1))
		})
	})

	Describe("Detach", func() {
		It("stops new loads but keeps the window readable", func() {
			source := newMemorySource(makeItems(0, 100))
			list, err := pagedlist.NewBuilder[int, string](source, newConfig(20, 20, 60)).Build()
			Expect(err).ToNot(HaveOccurred())

			list.Detach()
			Expect(list.IsDetached()).To(BeTrue())

			list.LoadAround(95)
			Expect(source.appends).To(Equal(0))
			Expect(list.LoadedCount()).To(Equal(60))

			item, ok := list.Get(10)
			Expect(ok).To(BeTrue())
			Expect(item).To(Equal("item-10"))
		})
	})

	Describe("LastLoadPosition", func() {
		It("starts at the middle of the initial page and follows LoadAround", func() {
			source := newMemorySource(makeItems(0, 100))
			list, err := pagedlist.NewBuilder[int, string](source, newConfig(20, 20, 60)).Build()
			Expect(err).ToNot(HaveOccurred())

			Expect(list.LastLoadPosition()).To(Equal(30))

			list.LoadAround(42)
			Expect(list.LastLoadPosition()).To(Equal(42))
		})

		It("shifts along when prepended pages grow the window", func() {
			source := newMemorySource(makeItems(0, 1000))
			source.uncounted = true
			list, err := pagedlist.NewBuilder[int, string](source, newConfig(10, 10, 20)).
				InitialKey(500).
				Build()
			Expect(err).ToNot(HaveOccurred())
			Expect(list.LastLoadPosition()).To(Equal(10))

			list.LoadAround(0)

			// The prepended page moved the anchor to index 10; the item
			// there is the one accessed at index 0.
			Expect(list.LastLoadPosition()).To(Equal(10))
			item, ok := list.Get(list.LastLoadPosition())
			Expect(ok).To(BeTrue())
			Expect(item).To(Equal("item-500"))
		})
	})

	Describe("Snapshot", func() {
		It("copies the window with a loaded mask", func() {
			source := newMemorySource(makeItems(0, 10))
			list, err := pagedlist.NewBuilder[int, string](source, newConfig(2, 2, 4)).
				InitialKey(4).
				Build()
			Expect(err).ToNot(HaveOccurred())

			items, loaded := list.Snapshot()
			Expect(items).To(HaveLen(10))
			Expect(loaded).To(HaveLen(10))

			Expect(loaded[3]).To(BeFalse())
			Expect(items[3]).To(Equal(""))
			Expect(loaded[4]).To(BeTrue())
			Expect(items[4]).To(Equal("item-4"))
			Expect(loaded[8]).To(BeFalse())
		})
	})

	Describe("Asynchronous executors", func() {
		It("grows the window through the controlling executor", func() {
			main := pagedlist.NewSerialExecutor()
			defer main.Stop()

			boundary := &recordingBoundary{}
			source := newMemorySource(makeItems(0, 100))
			list, err := pagedlist.NewBuilder[int, string](source, newConfig(20, 20, 60)).
				BoundaryCallback(boundary).
				ControllingExecutor(main).
				FetchExecutor(pagedlist.GoExecutor{}).
				Build()
			Expect(err).ToNot(HaveOccurred())

			onMain := func(task func()) {
				done := make(chan struct{})
				main.Execute(func() {
					task()
					close(done)
				})
				<-done
			}

			onMain(func() { list.LoadAround(95) })

			loaded := func() int {
				var n int
				onMain(func() { n = list.LoadedCount() })
				return n
			}
			Eventually(loaded).Should(Equal(100))

			var ends []string
			onMain(func() { ends = append([]string(nil), boundary.ends...) })
			Expect(ends).To(Equal([]string{"item-99"}))
		})
	})
})

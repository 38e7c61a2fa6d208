package pagedlist

import "fmt"

// Storage is the windowed buffer behind a PagedList: a contiguous run of
// loaded items surrounded by leading and trailing placeholder counts.
//
//	[leading placeholders][loaded items][trailing placeholders]
//
// The invariant LeadingNullCount + LoadedCount + TrailingNullCount == Size
// holds after every operation. Size never decreases: trimming converts
// loaded items back into placeholders rather than shrinking the window.
//
// Storage is not safe for concurrent use; the owning list mutates it only
// on the controlling goroutine.
type Storage[T any] struct {
	leading  int
	trailing int
	items    []T
}

// NewStorage creates an empty storage.
func NewStorage[T any]() *Storage[T] {
	return &Storage[T]{}
}

// Init seeds the storage with the initial page and its surrounding
// placeholder counts, replacing any previous contents.
func (s *Storage[T]) Init(leading int, items []T, trailing int) {
	if leading < 0 || trailing < 0 {
		panic(fmt.Sprintf("pagedlist: negative placeholder count (leading=%d trailing=%d)", leading, trailing))
	}
	s.leading = leading
	s.trailing = trailing
	s.items = append([]T(nil), items...)
}

// Size is the total logical size: loaded items plus placeholders.
func (s *Storage[T]) Size() int {
	return s.leading + len(s.items) + s.trailing
}

// LoadedCount is the number of loaded (non-placeholder) items.
func (s *Storage[T]) LoadedCount() int {
	return len(s.items)
}

// LeadingNullCount is the number of placeholders before the loaded range.
func (s *Storage[T]) LeadingNullCount() int {
	return s.leading
}

// TrailingNullCount is the number of placeholders after the loaded range.
func (s *Storage[T]) TrailingNullCount() int {
	return s.trailing
}

// FirstLoadedIndex is the logical index of the first loaded item.
// Meaningless when LoadedCount is zero.
func (s *Storage[T]) FirstLoadedIndex() int {
	return s.leading
}

// LastLoadedIndex is the logical index of the last loaded item.
// Meaningless when LoadedCount is zero.
func (s *Storage[T]) LastLoadedIndex() int {
	return s.leading + len(s.items) - 1
}

// FirstLoadedItem returns the item at the front edge of the loaded range.
// It panics when nothing is loaded.
func (s *Storage[T]) FirstLoadedItem() T {
	if len(s.items) == 0 {
		panic("pagedlist: FirstLoadedItem on empty storage")
	}
	return s.items[0]
}

// LastLoadedItem returns the item at the end edge of the loaded range.
// It panics when nothing is loaded.
func (s *Storage[T]) LastLoadedItem() T {
	if len(s.items) == 0 {
		panic("pagedlist: LastLoadedItem on empty storage")
	}
	return s.items[len(s.items)-1]
}

// Get returns the item at logical index i and true, or the zero value and
// false when i falls in a placeholder region. The placeholder check is
// O(1). It panics when i is out of [0, Size).
func (s *Storage[T]) Get(i int) (T, bool) {
	if i < 0 || i >= s.Size() {
		panic(fmt.Sprintf("pagedlist: index %d out of bounds for size %d", i, s.Size()))
	}
	if i < s.leading || i >= s.leading+len(s.items) {
		var zero T
		return zero, false
	}
	return s.items[i-s.leading], true
}

// PrependPage extends the loaded range at the front edge, absorbing leading
// placeholders. If the page is larger than the remaining leading
// placeholder count, the extra items grow the window (placeholder count
// floors at zero). It returns the number of positions every existing
// logical index shifted by — the overflow past the placeholder count — so
// the owner can offset any indices it holds.
func (s *Storage[T]) PrependPage(items []T) int {
	if len(items) == 0 {
		return 0
	}
	shift := len(items) - s.leading
	if shift < 0 {
		shift = 0
	}
	s.leading -= len(items)
	if s.leading < 0 {
		s.leading = 0
	}
	s.items = append(append([]T(nil), items...), s.items...)
	return shift
}

// AppendPage extends the loaded range at the end edge, absorbing trailing
// placeholders. Items beyond the remaining trailing placeholder count grow
// the window (placeholder count floors at zero).
func (s *Storage[T]) AppendPage(items []T) {
	if len(items) == 0 {
		return
	}
	s.trailing -= len(items)
	if s.trailing < 0 {
		s.trailing = 0
	}
	s.items = append(s.items, items...)
}

// TrimFront drops up to n loaded items from the front edge, converting them
// back into leading placeholders. Size is invariant under trim.
func (s *Storage[T]) TrimFront(n int) {
	if n <= 0 {
		return
	}
	if n > len(s.items) {
		n = len(s.items)
	}
	s.leading += n
	s.items = append([]T(nil), s.items[n:]...)
}

// TrimEnd drops up to n loaded items from the end edge, converting them
// back into trailing placeholders. Size is invariant under trim.
func (s *Storage[T]) TrimEnd(n int) {
	if n <= 0 {
		return
	}
	if n > len(s.items) {
		n = len(s.items)
	}
	s.trailing += n
	s.items = append([]T(nil), s.items[:len(s.items)-n]...)
}

package pagedlist

import "sync/atomic"

// Receiver is the single-use delivery point for one load operation.
// A strategy's callback delivers exactly one PageResult through it;
// delivering twice is a usage error and panics. A Receiver may be stashed
// and delivered later, which is how a data source models backpressure or
// its own retry policy — the engine places no timeout on delivery.
type Receiver[T any] struct {
	fired   atomic.Bool
	deliver func(PageResult[T])
}

// NewReceiver creates a Receiver that forwards its single result to
// deliver. The list constructs receivers whose deliver func marshals the
// result onto the controlling executor.
func NewReceiver[T any](deliver func(PageResult[T])) *Receiver[T] {
	return &Receiver[T]{deliver: deliver}
}

// Deliver hands the result to the receiver's owner. It panics if called
// more than once on the same Receiver.
func (r *Receiver[T]) Deliver(res PageResult[T]) {
	if !r.fired.CompareAndSwap(false, true) {
		panic("pagedlist: page result delivered more than once on a single-use receiver")
	}
	r.deliver(res)
}

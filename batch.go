package cells

import (
	"sync"

	"github.com/petermattis/goid"
)

// batchFrame is one level of the per-goroutine batch stack: the set of
// observers queued for a deferred DidUpdate, plus the (first) source that
// triggered each one, in the order they were first queued.
type batchFrame struct {
	queue map[Observer]AnyCell
	order []Observer
}

func newBatchFrame() *batchFrame {
	return &batchFrame{queue: make(map[Observer]AnyCell)}
}

func (f *batchFrame) enqueue(o Observer, source AnyCell) {
	if _, ok := f.queue[o]; ok {
		return
	}
	f.queue[o] = source
	f.order = append(f.order, o)
}

// mergeInto folds f's queued entries into parent, preserving parent's
// existing order and appending any observer parent doesn't already have.
// Used when an inner (non-outermost) batch scope exits: only the
// outermost batch flushes, so the inner scope's queued work simply
// becomes the outer scope's queued work instead of flushing early.
func (f *batchFrame) mergeInto(parent *batchFrame) {
	for _, o := range f.order {
		parent.enqueue(o, f.queue[o])
	}
}

var batchStacks sync.Map // goid.Get() (int64) -> []*batchFrame

func currentBatchFrame() *batchFrame {
	gid := goid.Get()
	v, ok := batchStacks.Load(gid)
	if !ok {
		return nil
	}
	stack := v.([]*batchFrame)
	if len(stack) == 0 {
		return nil
	}
	return stack[len(stack)-1]
}

// enqueueDidUpdate queues a changed=true DidUpdate for observer o if a
// batch is active on the calling goroutine, returning true if it did. The
// caller is expected to deliver the notification immediately instead when
// this returns false.
func enqueueDidUpdate(o Observer, source AnyCell) bool {
	f := currentBatchFrame()
	if f == nil {
		return false
	}
	f.enqueue(o, source)
	return true
}

// Batch defers DidUpdate delivery until fn returns: mutable cell writes
// inside fn still mark the whole dependency graph stale immediately
// (WillUpdate is never deferred), but each observer that would receive a
// changed=true DidUpdate is instead enqueued once, deduplicated, and only
// notified when the outermost Batch call on this goroutine returns. Nested
// Batch calls are no-ops beyond merging their queued work into the outer
// scope — only the outermost call flushes.
//
// Batch is scoped to the calling goroutine: batching from two different
// goroutines at once are two independent batches, not one.
func Batch(fn func()) {
	gid := goid.Get()
	var stack []*batchFrame
	if v, ok := batchStacks.Load(gid); ok {
		stack = v.([]*batchFrame)
	}
	outermost := len(stack) == 0
	f := newBatchFrame()
	stack = append(stack, f)
	batchStacks.Store(gid, stack)

	defer func() {
		stack = stack[:len(stack)-1]
		if len(stack) == 0 {
			batchStacks.Delete(gid)
		} else {
			batchStacks.Store(gid, stack)
		}

		if !outermost {
			f.mergeInto(stack[len(stack)-1])
			return
		}
		for _, o := range f.order {
			o.DidUpdate(f.queue[o], true)
		}
	}()

	fn()
}

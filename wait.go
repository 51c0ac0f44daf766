package cells

import (
	"sync"
	"time"

	"github.com/samber/lo"
)

// Awaitable is a minimal promise: a value (or error) that becomes
// available at some future point, observed via Subscribe. It is the one
// seam where the reactive graph legitimately meets code running on
// another goroutine — see doc.go's Concurrency Model.
type Awaitable[V any] interface {
	// Subscribe registers fn to run exactly once, with the completion
	// value and a non-nil error if it failed. If the awaitable has
	// already completed, fn runs synchronously, inline, before Subscribe
	// returns. The returned Unsubscribe cancels a still-pending
	// registration; it has no effect once fn has already run.
	Subscribe(fn func(V, error)) Unsubscribe
}

// Future is a settable Awaitable: the producer side of the bridge between
// background-goroutine completions and the single-threaded cell graph.
// It holds its own mutex, since completion may happen on another goroutine.
type Future[V any] struct {
	mu   sync.Mutex
	done bool
	v    V
	err  error
	subs map[uint64]func(V, error)
	next uint64
}

// NewFuture constructs an unresolved Future.
func NewFuture[V any]() *Future[V] {
	return &Future[V]{subs: make(map[uint64]func(V, error))}
}

// Resolve completes the future successfully. A future can only complete
// once; later calls to Resolve or Reject are no-ops.
func (f *Future[V]) Resolve(v V) { f.complete(v, nil) }

// Reject completes the future with an error.
func (f *Future[V]) Reject(err error) {
	var zero V
	f.complete(zero, err)
}

func (f *Future[V]) complete(v V, err error) {
	f.mu.Lock()
	if f.done {
		f.mu.Unlock()
		return
	}
	f.done, f.v, f.err = true, v, err
	subs := f.subs
	f.subs = nil
	f.mu.Unlock()

	for _, fn := range subs {
		fn(v, err)
	}
}

func (f *Future[V]) Subscribe(fn func(V, error)) Unsubscribe {
	f.mu.Lock()
	if f.done {
		v, err := f.v, f.err
		f.mu.Unlock()
		fn(v, err)
		return func() {}
	}
	id := f.next
	f.next++
	f.subs[id] = fn
	f.mu.Unlock()

	return func() {
		f.mu.Lock()
		delete(f.subs, id)
		f.mu.Unlock()
	}
}

// Delayed returns an Awaitable that resolves to v after the given
// duration, using time.AfterFunc's own internal goroutine — the
// reference example for why Future needs its own mutex at all.
func Delayed[V any](v V, after time.Duration) Awaitable[V] {
	fut := NewFuture[V]()
	time.AfterFunc(after, func() { fut.Resolve(v) })
	return fut
}

// WaitMode selects how a wait cell reacts to its source cell settling on a
// new awaitable. The zero value, WaitReset, is the most common default;
// Go's zero-value-as-default convention doesn't fit a two-boolean (reset,
// queue) flag pair cleanly, so this package collapses them into one enum
// instead of a WaitOptions{Reset, Queue bool} that would silently mean
// "reset=false" whenever a caller forgot to set it.
type WaitMode int

const (
	// WaitReset (reset=true, the default): a new awaitable immediately
	// resets the cell to pending and notifies observers of that, orphaning
	// whatever the previous awaitable was about to produce.
	WaitReset WaitMode = iota
	// WaitNewest (reset=false, queue=false): the cell keeps its last
	// resolved value until the newest awaitable completes; an older
	// awaitable's late completion is discarded.
	WaitNewest
	// WaitQueue (reset=false, queue=true): every awaitable's eventual
	// result is delivered, in assignment order, regardless of completion
	// order.
	WaitQueue
)

// WaitOptions configures a wait cell's reaction to source changes.
type WaitOptions struct {
	Mode WaitMode
}

// waitQueueEntry is one FIFO slot in a WaitQueue-mode wait cell: an
// awaitable that has been assigned but may not yet be due for delivery.
type waitQueueEntry[V any] struct {
	done  bool
	value V
	err   error
	unsub Unsubscribe
}

// waitCell adapts a Cell[Awaitable[V]] into a Cell[V]: reading it returns
// the current awaitable's result once resolved, or panics with a
// *PendingAsyncValueError while pending. Unlike every other cell variant,
// its notification to its own observers is not always fired synchronously
// from its source's DidUpdate — under WaitNewest and WaitQueue it is
// deferred until an awaitable actually resolves, which may happen on a
// different goroutine entirely. That third kind of announcement doesn't
// fit this package's WillUpdate/DidUpdate pair, so an awaitable completion
// is modeled as a DidUpdate with no paired WillUpdate of its own — see
// doc.go's Concurrency Model.
type waitCell[V any] struct {
	baseCell
	source      Cell[Awaitable[V]]
	sourceUnsub Unsubscribe
	mode        WaitMode

	mu             sync.Mutex
	ownPendingPush bool
	generation     uint64
	awaitUnsub     Unsubscribe
	resolved       bool
	value          V
	err            error

	queue []*waitQueueEntry[V] // WaitQueue mode only
}

// Waited constructs a wait cell over source using the default mode
// (WaitReset).
func Waited[V any](source Cell[Awaitable[V]]) Cell[V] {
	return WaitedWithOptions(source, WaitOptions{Mode: WaitReset})
}

// WaitedWithOptions is Waited with an explicit reset/queue mode.
func WaitedWithOptions[V any](source Cell[Awaitable[V]], opts WaitOptions) Cell[V] {
	w := &waitCell[V]{source: source, mode: opts.Mode}
	tag := "wait"
	switch opts.Mode {
	case WaitNewest:
		tag = "wait_newest"
	case WaitQueue:
		tag = "wait_queue"
	}
	w.baseCell = baseCell{key: NewStructuralKey(tag, source.Key())}
	w.baseCell.onActivate = w.activate
	w.baseCell.onDeactivate = w.deactivate
	return w
}

// Wait is sugar for Waited(source).Value(), for one-off reads that don't
// need to keep the intermediate cell around.
func Wait[V any](source Cell[Awaitable[V]]) V {
	return Waited(source).Value()
}

func (w *waitCell[V]) activate() {
	w.sourceUnsub = w.source.addObserver(w)
	aw := Untrack(w.source.Value)

	if w.mode == WaitQueue {
		w.mu.Lock()
		w.err = &PendingAsyncValueError{Key: w.key}
		w.mu.Unlock()
		w.enqueue(aw)
		return
	}

	w.mu.Lock()
	w.generation++
	gen := w.generation
	w.resolved = false
	var zero V
	w.value = zero
	w.err = &PendingAsyncValueError{Key: w.key}
	w.ownPendingPush = true
	w.mu.Unlock()
	w.subscribeGen(aw, gen)
}

func (w *waitCell[V]) deactivate() {
	if w.sourceUnsub != nil {
		w.sourceUnsub()
		w.sourceUnsub = nil
	}
	w.mu.Lock()
	if w.awaitUnsub != nil {
		w.awaitUnsub()
		w.awaitUnsub = nil
	}
	w.generation++
	queue := w.queue
	w.queue = nil
	w.mu.Unlock()

	for _, e := range queue {
		if e.unsub != nil {
			e.unsub()
		}
	}
}

// subscribeGen subscribes to aw as the current awaitable for generation
// gen (WaitReset/WaitNewest only): a completion that arrives after gen has
// been superseded is silently discarded.
func (w *waitCell[V]) subscribeGen(aw Awaitable[V], gen uint64) {
	unsub := aw.Subscribe(func(v V, err error) {
		w.mu.Lock()
		if gen != w.generation {
			w.mu.Unlock()
			return
		}
		w.resolved = true
		w.value, w.err = v, err
		wasPending := w.ownPendingPush
		w.ownPendingPush = false
		w.mu.Unlock()

		if wasPending {
			w.didUpdate(w, true)
		}
	})

	w.mu.Lock()
	if gen == w.generation {
		w.awaitUnsub = unsub
	} else {
		w.mu.Unlock()
		unsub()
		return
	}
	w.mu.Unlock()
}

// resetTo implements WaitReset's reaction to a source change: the cell
// reverts to pending immediately, notifying observers of that, then
// starts tracking the new awaitable for whenever it resolves.
func (w *waitCell[V]) resetTo(aw Awaitable[V]) {
	w.mu.Lock()
	if w.awaitUnsub != nil {
		w.awaitUnsub()
		w.awaitUnsub = nil
	}
	w.generation++
	gen := w.generation
	w.resolved = false
	var zero V
	w.value = zero
	w.err = &PendingAsyncValueError{Key: w.key}
	w.ownPendingPush = true
	w.mu.Unlock()

	w.didUpdate(w, true)
	w.subscribeGen(aw, gen)
}

// supersedeWith implements WaitNewest's reaction to a source change: the
// previous resolved value (if any) is kept as-is until the new awaitable
// itself resolves; no notification fires here.
func (w *waitCell[V]) supersedeWith(aw Awaitable[V]) {
	w.mu.Lock()
	if w.awaitUnsub != nil {
		w.awaitUnsub()
		w.awaitUnsub = nil
	}
	w.generation++
	gen := w.generation
	w.ownPendingPush = true
	w.mu.Unlock()
	w.subscribeGen(aw, gen)
}

// enqueue implements WaitQueue's reaction to a source change: aw is
// appended to the FIFO and awaited independently of whatever is ahead of
// it in line; drainQueue applies completions strictly in assignment order
// once they're actually due.
func (w *waitCell[V]) enqueue(aw Awaitable[V]) {
	entry := &waitQueueEntry[V]{}
	w.mu.Lock()
	w.queue = append(w.queue, entry)
	w.mu.Unlock()

	entry.unsub = aw.Subscribe(func(v V, err error) {
		w.mu.Lock()
		entry.done, entry.value, entry.err = true, v, err
		w.mu.Unlock()
		w.drainQueue()
	})
}

// drainQueue delivers every contiguously-completed entry at the head of
// the FIFO, in order, stopping at the first still-pending entry.
func (w *waitCell[V]) drainQueue() {
	for {
		w.mu.Lock()
		if len(w.queue) == 0 || !w.queue[0].done {
			w.mu.Unlock()
			return
		}
		head := w.queue[0]
		w.queue = w.queue[1:]
		w.resolved = true
		w.value, w.err = head.value, head.err
		w.mu.Unlock()
		w.didUpdate(w, true)
	}
}

func (w *waitCell[V]) Value() V {
	track(w)
	w.mu.Lock()
	resolved, v, err := w.resolved, w.value, w.err
	w.mu.Unlock()
	if !resolved || err != nil {
		if err == nil {
			err = &PendingAsyncValueError{Key: w.key}
		}
		panic(err)
	}
	return v
}

// WillUpdate implements Observer, reacting to the source cell (which holds
// the current awaitable) about to change. Forwarded to this cell's own
// observers at most once per wave, regardless of mode.
func (w *waitCell[V]) WillUpdate(source AnyCell) {
	w.mu.Lock()
	already := w.ownPendingPush
	w.ownPendingPush = true
	w.mu.Unlock()
	if !already {
		w.willUpdate(w)
	}
}

// DidUpdate implements Observer: the source has settled on a new
// awaitable. What happens next depends on mode — see resetTo,
// supersedeWith and enqueue.
func (w *waitCell[V]) DidUpdate(source AnyCell, changed bool) {
	aw := Untrack(w.source.Value)
	switch w.mode {
	case WaitNewest:
		w.supersedeWith(aw)
	case WaitQueue:
		w.enqueue(aw)
	default:
		w.resetTo(aw)
	}
}

// join2 combines two awaitables into one that resolves once both have,
// for Wait2's Computed dependency (Go generics can't express a variadic
// heterogeneous wait(*cells), so arity-specific combinators stand in for
// it — see Wait2/Wait3).
func join2[A, B any](a Awaitable[A], b Awaitable[B]) Awaitable[lo.Tuple2[A, B]] {
	fut := NewFuture[lo.Tuple2[A, B]]()
	var mu sync.Mutex
	var gotA, gotB bool
	var va A
	var vb B
	var joinErr error

	settle := func() {
		if !gotA || !gotB {
			return
		}
		if joinErr != nil {
			fut.Reject(joinErr)
			return
		}
		fut.Resolve(lo.Tuple2[A, B]{A: va, B: vb})
	}

	a.Subscribe(func(v A, err error) {
		mu.Lock()
		gotA, va = true, v
		if err != nil {
			joinErr = err
		}
		settle()
		mu.Unlock()
	})
	b.Subscribe(func(v B, err error) {
		mu.Lock()
		gotB, vb = true, v
		if err != nil {
			joinErr = err
		}
		settle()
		mu.Unlock()
	})
	return fut
}

func join3[A, B, C any](a Awaitable[A], b Awaitable[B], c Awaitable[C]) Awaitable[lo.Tuple3[A, B, C]] {
	fut := NewFuture[lo.Tuple3[A, B, C]]()
	var mu sync.Mutex
	var gotA, gotB, gotC bool
	var va A
	var vb B
	var vc C
	var joinErr error

	settle := func() {
		if !gotA || !gotB || !gotC {
			return
		}
		if joinErr != nil {
			fut.Reject(joinErr)
			return
		}
		fut.Resolve(lo.Tuple3[A, B, C]{A: va, B: vb, C: vc})
	}

	a.Subscribe(func(v A, err error) {
		mu.Lock()
		gotA, va = true, v
		if err != nil {
			joinErr = err
		}
		settle()
		mu.Unlock()
	})
	b.Subscribe(func(v B, err error) {
		mu.Lock()
		gotB, vb = true, v
		if err != nil {
			joinErr = err
		}
		settle()
		mu.Unlock()
	})
	c.Subscribe(func(v C, err error) {
		mu.Lock()
		gotC, vc = true, v
		if err != nil {
			joinErr = err
		}
		settle()
		mu.Unlock()
	})
	return fut
}

// Wait2 joins two awaitable-valued cells into one wait cell over both,
// resolving once both of their current awaitables have.
func Wait2[A, B any](ca Cell[Awaitable[A]], cb Cell[Awaitable[B]]) Cell[lo.Tuple2[A, B]] {
	joined := Computed(func() Awaitable[lo.Tuple2[A, B]] {
		return join2(ca.Value(), cb.Value())
	})
	return Waited(joined)
}

// Wait3 is Wait2 for three sources.
func Wait3[A, B, C any](ca Cell[Awaitable[A]], cb Cell[Awaitable[B]], cc Cell[Awaitable[C]]) Cell[lo.Tuple3[A, B, C]] {
	joined := Computed(func() Awaitable[lo.Tuple3[A, B, C]] {
		return join3(ca.Value(), cb.Value(), cc.Value())
	})
	return Waited(joined)
}

package cells

import "sync"

// computedCell derives its value from other cells. It is
// active, and therefore incrementally maintained, iff it has at least one
// observer of its own; while active it subscribes to whatever cells its
// compute function reads, reconciling that subscription set after every
// recomputation since dependencies may change dynamically from one run to
// the next. While inactive it still answers Value() calls correctly, by
// recomputing fresh on every read instead of maintaining a cache nobody is
// watching.
type computedCell[T any] struct {
	baseCell

	mu          sync.Mutex
	fn          func() T
	equal       EqualFunc[T]
	changesOnly bool
	onPanic     func(any, []byte)

	computed bool
	dirty    bool
	value    T
	err      error

	deps   map[string]AnyCell
	unsubs map[string]Unsubscribe

	// pendingPush/pendingSources implement the once-per-wave forwarding
	// guard described in observer.go: pendingPush is set by the first
	// WillUpdate of a propagation wave and cleared when the last of this
	// cell's direct dependencies reports its matching DidUpdate, at which
	// point every dependency's value is final and it is safe to recompute.
	pendingPush    bool
	pendingSources int
}

// Computed constructs a derived cell. fn's dependencies are discovered
// automatically: every cell read via Value() during a run of fn, on the
// goroutine that runs it, is recorded and subscribed to, and no longer subscribed to if fn stops
// reading it on a later run.
func Computed[T any](fn func() T) Cell[T] {
	return ComputedWithOptions(fn, Options[T]{})
}

// ComputedWithOptions is Computed with explicit equality, panic-reporting
// and changes-only behavior.
func ComputedWithOptions[T any](fn func() T, opts Options[T]) Cell[T] {
	return newComputed[T](newIdentityKey(), fn, opts)
}

// computedWithKey is used by the operator-sugar constructors in ops.go to
// give a derived cell a structural key instead of an opaque identity one,
// so two independently built `Add(a, b)` expressions are interchangeable.
func computedWithKey[T any](key Key, fn func() T, opts Options[T]) Cell[T] {
	return newComputed[T](key, fn, opts)
}

func newComputed[T any](key Key, fn func() T, opts Options[T]) *computedCell[T] {
	eq := opts.Equal
	if eq == nil {
		eq = defaultEqual[T]
	}
	c := &computedCell[T]{
		fn:          fn,
		equal:       eq,
		changesOnly: opts.ChangesOnly,
		onPanic:     opts.OnPanic,
		deps:        make(map[string]AnyCell),
		unsubs:      make(map[string]Unsubscribe),
	}
	c.baseCell = baseCell{key: key}
	c.baseCell.onActivate = c.activate
	c.baseCell.onDeactivate = c.deactivate
	return c
}

func (c *computedCell[T]) Value() T {
	track(c)

	c.mu.Lock()
	if c.active() {
		// dirty can be true here even mid-propagation-wave: a batch defers
		// this cell's own DidUpdate (and so the recompute that would
		// normally run from it) until the batch flushes, but a direct read
		// must still see a fresh value right away. Recomputing here does
		// not disturb pendingPush/pendingSources — the deferred DidUpdate
		// still arrives later, runs fn once more and then forwards to this
		// cell's observers.
		if !c.computed || c.dirty {
			c.recomputeLocked()
		}
		v, err := c.value, c.err
		c.mu.Unlock()
		if err != nil {
			panic(err)
		}
		return v
	}
	c.mu.Unlock()

	return c.valueFresh()
}

// valueFresh recomputes fn directly without touching the subscription
// cache, for reads that happen while this cell has no observers of its
// own. It is correct but not incremental: every such read redoes the work.
func (c *computedCell[T]) valueFresh() T {
	_, outcome := c.doCompute()
	switch {
	case outcome.aborted:
		c.mu.Lock()
		hadValue, v := c.computed, c.value
		c.mu.Unlock()
		if hadValue {
			return v
		}
		if outcome.hasAbortDefault {
			if vv, ok := outcome.abortDefault.(T); ok {
				return vv
			}
		}
		var zero T
		return zero
	case outcome.err != nil:
		panic(outcome.err)
	default:
		v, _ := outcome.value.(T)
		return v
	}
}

func (c *computedCell[T]) activate() {
	c.mu.Lock()
	c.recomputeLocked()
	c.mu.Unlock()
}

func (c *computedCell[T]) deactivate() {
	c.mu.Lock()
	for k, unsub := range c.unsubs {
		unsub()
		delete(c.unsubs, k)
		delete(c.deps, k)
	}
	c.dirty = true
	c.mu.Unlock()
}

func (c *computedCell[T]) doCompute() ([]AnyCell, computeOutcome) {
	pushFrame()
	outcome := runCompute(c.fn, c.onPanic)
	f := popFrame()
	return f.cells(), outcome
}

// recomputeLocked runs fn, reconciles the dependency subscription set
// against what fn read this time, and stores the result. Callers must hold
// c.mu and must only call this while c is active (onActivate / the tail of
// a propagation wave in DidUpdate). It reports whether this cell's own
// observers should be told a change happened.
func (c *computedCell[T]) recomputeLocked() bool {
	newDeps, outcome := c.doCompute()
	c.reconcileDeps(newDeps)

	hadValue, prevVal, prevErr := c.computed, c.value, c.err
	c.computed = true
	c.dirty = false

	switch {
	case outcome.aborted:
		// Retain the previous value; the supplied default only applies when
		// there is no previous value. Abort never counts as a change
		// downstream, regardless of changes_only.
		if !hadValue && outcome.hasAbortDefault {
			if v, ok := outcome.abortDefault.(T); ok {
				c.value = v
			}
		}
		c.err = nil
		return false
	case outcome.err != nil:
		c.err = outcome.err
		if !c.changesOnly {
			return true
		}
		return prevErr == nil || prevErr.Error() != outcome.err.Error()
	default:
		v, _ := outcome.value.(T)
		c.value = v
		c.err = nil
		if !c.changesOnly {
			return true
		}
		return !hadValue || prevErr != nil || !c.equal(prevVal, v)
	}
}

func (c *computedCell[T]) reconcileDeps(newDeps []AnyCell) {
	next := make(map[string]AnyCell, len(newDeps))
	for _, d := range newDeps {
		next[d.Key().String()] = d
	}
	for k, unsub := range c.unsubs {
		if _, ok := next[k]; !ok {
			unsub()
			delete(c.unsubs, k)
			delete(c.deps, k)
		}
	}
	for k, d := range next {
		if _, ok := c.unsubs[k]; !ok {
			c.unsubs[k] = d.addObserver(c)
			c.deps[k] = d
		}
	}
}

func (c *computedCell[T]) WillUpdate(source AnyCell) {
	c.mu.Lock()
	c.dirty = true
	if c.pendingPush {
		// Inside a batch the flush delivers one DidUpdate per observer, so
		// further WillUpdates do not add to the count it has to clear.
		if currentBatchFrame() == nil {
			c.pendingSources++
		}
		c.mu.Unlock()
		return
	}
	c.pendingPush = true
	c.pendingSources = 1
	c.mu.Unlock()

	c.willUpdate(c)
}

func (c *computedCell[T]) DidUpdate(source AnyCell, changed bool) {
	c.mu.Lock()
	if !c.pendingPush {
		c.mu.Unlock()
		return
	}
	c.pendingSources--
	if c.pendingSources > 0 {
		c.mu.Unlock()
		return
	}
	c.pendingPush = false
	didChange := c.recomputeLocked()
	c.mu.Unlock()

	c.didUpdate(c, didChange)
}

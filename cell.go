package cells

// AnyCell is the type-erased half of the cell contract: just enough to
// wire a cell into the observer graph without knowing its value type.
// Every dependency a computed cell or watch discovers at runtime is held
// as an AnyCell, since a single compute function can read cells of many
// different T.
//
// AnyCell is deliberately a closed, unexported-method interface, a small
// closed set of variants rather than an open inheritance hierarchy, so
// only the variants defined in this package (constant, mutable, computed,
// peek, wait) can implement it.
type AnyCell interface {
	// Key returns the cell's identity. Two cells with equal keys are
	// interchangeable for structural-sharing purposes.
	Key() Key

	addObserver(o Observer) Unsubscribe
}

// Cell is the read contract for a value-holding cell of type T. Every
// variant in this package — Constant, Mutable, Computed, Peek, Waited —
// implements it.
type Cell[T any] interface {
	AnyCell

	// Value returns the cell's current value. Calling Value() from inside a
	// running compute function (Computed's compute, or a Watch callback)
	// also records this cell as a dependency of that run, folding read and
	// subscribe into the one method Go idiom expects. Calling Value()
	// outside any tracking frame does not register a dependency.
	//
	// If the cell holds an error (a panicking compute function, or a wait
	// cell that is still pending), Value panics with that error instead of
	// returning.
	Value() T
}

// baseCell is the activation and notification plumbing shared by every
// concrete cell variant: a cell is active iff its observer count is
// greater than zero, and for computed and peek cells that activation in
// turn drives their own subscriptions upstream. It is embedded, not
// exposed, by constant, mutable, computed, peek and wait cells.
type baseCell struct {
	key Key

	obs observerSet

	// onActivate/onDeactivate fire on the 0→1 and 1→0 observer-count
	// transitions respectively. Computed and peek cells use these to
	// subscribe to / unsubscribe from their own dependencies; constant and
	// mutable cells leave them nil (they have nothing upstream to manage).
	onActivate   func()
	onDeactivate func()
}

func (b *baseCell) Key() Key { return b.key }

func (b *baseCell) active() bool { return b.obs.count() > 0 }

func (b *baseCell) addObserver(o Observer) Unsubscribe {
	wasActive := b.active()
	id := b.obs.add(o)
	if !wasActive && b.onActivate != nil {
		b.onActivate()
	}
	return func() {
		b.obs.remove(id)
		if !b.active() && b.onDeactivate != nil {
			b.onDeactivate()
		}
	}
}

// willUpdate forwards WillUpdate to every current observer, in
// registration order. It is never deferred by an active batch: staleness
// must propagate through the whole graph immediately so that later,
// deferred DidUpdate delivery recomputes against a fully up-to-date
// picture of what's stale.
func (b *baseCell) willUpdate(source AnyCell) {
	b.obs.each(func(o Observer) { o.WillUpdate(source) })
}

// didUpdate forwards DidUpdate to every current observer, in registration
// order, UNLESS a batch is active on the calling goroutine — in which case
// a changed=true notification is deferred into that batch's flush list
// (deduplicated per observer) instead of delivered immediately. changed=false
// notifications are never deferred: there is nothing to coalesce, since
// repeating one is already a no-op downstream.
func (b *baseCell) didUpdate(source AnyCell, changed bool) {
	b.obs.each(func(o Observer) {
		if changed && enqueueDidUpdate(o, source) {
			return
		}
		o.DidUpdate(source, changed)
	})
}

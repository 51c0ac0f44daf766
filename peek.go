package cells

// peekCell wraps a target cell so it can be read without establishing a
// dependency. Reading a peek cell tracks the peek cell itself, never its
// target, and the peek
// cell never forwards WillUpdate/DidUpdate — it has nothing to announce,
// since its own value is read fresh on every access rather than cached.
//
// While a peek cell has observers, it holds its target active by
// subscribing a no-op observer to it, so an otherwise-unwatched computed
// target keeps its incrementally-maintained value warm instead of falling
// back to recompute-on-every-read.
type peekCell[T any] struct {
	baseCell
	target Cell[T]
	unsub  Unsubscribe
}

// Peek constructs a cell that reads target's current value without ever
// tracking target as a dependency of whatever compute reads the peek cell.
func Peek[T any](target Cell[T]) Cell[T] {
	p := &peekCell[T]{target: target}
	p.baseCell = baseCell{key: NewStructuralKey("peek", target.Key())}
	p.baseCell.onActivate = p.activate
	p.baseCell.onDeactivate = p.deactivate
	return p
}

func (p *peekCell[T]) activate() {
	p.unsub = p.target.addObserver(noopObserver{})
}

func (p *peekCell[T]) deactivate() {
	if p.unsub != nil {
		p.unsub()
		p.unsub = nil
	}
}

func (p *peekCell[T]) Value() T {
	track(p)
	return Untrack(p.target.Value)
}

// noopObserver discards every notification. It exists solely to keep a
// peek cell's target active without peek itself reacting to anything.
type noopObserver struct{}

func (noopObserver) WillUpdate(AnyCell)      {}
func (noopObserver) DidUpdate(AnyCell, bool) {}

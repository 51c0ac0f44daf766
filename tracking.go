package cells

import (
	"sync"

	"github.com/petermattis/goid"
)

// trackingFrame is one level of the dependency-tracking stack: the set of
// cells read (via Value()) since the frame was pushed, in first-read
// order. A computed cell or watch pushes a fresh frame
// before running its compute/callback and pops it afterward; the frame's
// contents become that run's dependency set.
type trackingFrame struct {
	deps  map[string]AnyCell
	order []string
}

func newTrackingFrame() *trackingFrame {
	return &trackingFrame{deps: make(map[string]AnyCell)}
}

func (f *trackingFrame) record(c AnyCell) {
	k := c.Key().String()
	if _, ok := f.deps[k]; !ok {
		f.order = append(f.order, k)
	}
	f.deps[k] = c
}

func (f *trackingFrame) cells() []AnyCell {
	out := make([]AnyCell, len(f.order))
	for i, k := range f.order {
		out[i] = f.deps[k]
	}
	return out
}

// frameStacks holds one tracking-frame stack per goroutine, keyed by
// goroutine id. A plain package-level stack would suffice under a single
// designated executor, but tracking frames must survive suspension
// boundaries: a wait cell's awaitable completion can arrive on a
// background goroutine mid-run, and that compute context needs its frame
// to still be there when it resumes. Keying the stack per-goroutine
// avoids cross-goroutine leakage of an unrelated frame when that happens.
var frameStacks sync.Map // goid.Get() (int64) -> []*trackingFrame

func pushFrame() *trackingFrame {
	gid := goid.Get()
	var stack []*trackingFrame
	if v, ok := frameStacks.Load(gid); ok {
		stack = v.([]*trackingFrame)
	}
	f := newTrackingFrame()
	stack = append(stack, f)
	frameStacks.Store(gid, stack)
	return f
}

func popFrame() *trackingFrame {
	gid := goid.Get()
	v, _ := frameStacks.Load(gid)
	stack := v.([]*trackingFrame)
	f := stack[len(stack)-1]
	stack = stack[:len(stack)-1]
	if len(stack) == 0 {
		frameStacks.Delete(gid)
	} else {
		frameStacks.Store(gid, stack)
	}
	return f
}

func currentFrame() *trackingFrame {
	gid := goid.Get()
	v, ok := frameStacks.Load(gid)
	if !ok {
		return nil
	}
	stack := v.([]*trackingFrame)
	if len(stack) == 0 {
		return nil
	}
	return stack[len(stack)-1]
}

// track records c as a dependency of the currently-running compute, if
// any. Cell.Value() implementations call this unconditionally; it is a
// no-op when called outside any tracking frame, so a direct Value() read
// outside a compute registers no dependency.
func track(c AnyCell) {
	if f := currentFrame(); f != nil {
		f.record(c)
	}
}

// Untrack runs fn without recording any cell reads made inside it as
// dependencies of the enclosing compute, if any. Peek cells use this to
// read their target's value without tracking the target itself; it is
// also exported for callers who want the same escape hatch in their own
// compute functions.
func Untrack[T any](fn func() T) T {
	gid := goid.Get()
	v, had := frameStacks.Load(gid)
	if had {
		frameStacks.Delete(gid)
	}
	defer func() {
		if had {
			frameStacks.Store(gid, v)
		}
	}()
	return fn()
}

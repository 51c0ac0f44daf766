package cells

import (
	"errors"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFuture_ResolveDeliversToSubscriber(t *testing.T) {
	f := NewFuture[int]()

	var got int
	var gotErr error
	f.Subscribe(func(v int, err error) { got, gotErr = v, err })

	f.Resolve(42)

	require.NoError(t, gotErr)
	assert.Equal(t, 42, got)
}

func TestFuture_SubscribeAfterResolveRunsSynchronously(t *testing.T) {
	f := NewFuture[string]()
	f.Resolve("done")

	called := false
	f.Subscribe(func(v string, err error) {
		called = true
		assert.Equal(t, "done", v)
	})

	assert.True(t, called, "Subscribe on an already-resolved future should call fn synchronously")
}

func TestFuture_RejectDeliversError(t *testing.T) {
	f := NewFuture[int]()
	want := errors.New("failed")

	var gotErr error
	f.Subscribe(func(_ int, err error) { gotErr = err })
	f.Reject(want)

	assert.Equal(t, want, gotErr)
}

func TestFuture_OnlyFirstCompletionWins(t *testing.T) {
	f := NewFuture[int]()
	var calls int
	f.Subscribe(func(int, error) { calls++ })

	f.Resolve(1)
	f.Resolve(2)
	f.Reject(errors.New("too late"))

	assert.Equal(t, 1, calls)
}

func TestFuture_UnsubscribeCancelsPending(t *testing.T) {
	f := NewFuture[int]()
	called := false
	unsub := f.Subscribe(func(int, error) { called = true })
	unsub()
	f.Resolve(1)

	assert.False(t, called, "unsubscribed callback should not be called")
}

func TestDelayed_ResolvesAfterDuration(t *testing.T) {
	aw := Delayed(7, 5*time.Millisecond)

	done := make(chan int, 1)
	aw.Subscribe(func(v int, err error) {
		assert.NoError(t, err)
		done <- v
	})

	select {
	case v := <-done:
		assert.Equal(t, 7, v)
	case <-time.After(200 * time.Millisecond):
		t.Fatal("Delayed never resolved")
	}
}

func TestWaited_PendingUntilResolved(t *testing.T) {
	fut := NewFuture[int]()
	source := Mutable[Awaitable[int]](fut)
	w := Waited[int](source)

	unsub := w.addObserver(observerFunc{})
	defer unsub()

	func() {
		defer func() {
			assert.NotNil(t, recover(), "Value() should panic while pending")
		}()
		w.Value()
	}()

	fut.Resolve(9)

	assert.Equal(t, 9, w.Value())
}

func TestWaited_NewAwaitableOnSourceChange(t *testing.T) {
	fut1 := NewFuture[int]()
	source := Mutable[Awaitable[int]](fut1)
	w := Waited[int](source)

	unsub := w.addObserver(observerFunc{})
	defer unsub()

	fut1.Resolve(1)
	require.Equal(t, 1, w.Value())

	fut2 := NewFuture[int]()
	source.Set(fut2)

	func() {
		defer func() { recover() }()
		w.Value()
		t.Errorf("expected Value() to panic after source moved to a new, unresolved awaitable")
	}()

	fut1.Resolve(999) // fut1 already completed, so this second Resolve is a no-op

	fut2.Resolve(2)
	assert.Equal(t, 2, w.Value())
}

func TestWaited_NotifiesObserversOnResolve(t *testing.T) {
	fut := NewFuture[int]()
	source := Mutable[Awaitable[int]](fut)
	w := Waited[int](source)

	dids := 0
	unsub := w.addObserver(observerFunc{didUpdate: func(AnyCell, bool) { dids++ }})
	defer unsub()

	fut.Resolve(3)
	assert.Equal(t, 1, dids)
}

func TestWaited_ResetModeNotifiesPendingOnReassign(t *testing.T) {
	fut1 := NewFuture[int]()
	source := Mutable[Awaitable[int]](fut1)
	w := WaitedWithOptions[int](source, WaitOptions{Mode: WaitReset})

	var seenErrs int
	unsub := w.addObserver(observerFunc{didUpdate: func(AnyCell, bool) {
		func() {
			defer func() {
				if recover() != nil {
					seenErrs++
				}
			}()
			w.Value()
		}()
	}})
	defer unsub()

	fut1.Resolve(1)
	require.Equal(t, 1, w.Value())

	fut2 := NewFuture[int]()
	source.Set(fut2) // reset mode: must go back to pending immediately

	func() {
		defer func() {
			assert.NotNil(t, recover(), "Value() should panic immediately after reassignment under WaitReset")
		}()
		w.Value()
	}()

	assert.NotZero(t, seenErrs, "the reset-to-pending transition itself should fire a did_update observers can see")

	fut2.Resolve(2)
	assert.Equal(t, 2, w.Value())
}

func TestWaited_NewestModeKeepsStaleValueUntilResolve(t *testing.T) {
	fut1 := NewFuture[int]()
	source := Mutable[Awaitable[int]](fut1)
	w := WaitedWithOptions[int](source, WaitOptions{Mode: WaitNewest})

	unsub := w.addObserver(observerFunc{})
	defer unsub()

	fut1.Resolve(1)
	require.Equal(t, 1, w.Value())

	fut2 := NewFuture[int]()
	source.Set(fut2)

	// WaitNewest: no reset to pending, the old value reads fine until fut2
	// resolves.
	assert.Equal(t, 1, w.Value(), "WaitNewest must not reset to pending")

	fut2.Resolve(2)
	assert.Equal(t, 2, w.Value())
}

func TestWaited_NewestModeDiscardsStaleCompletion(t *testing.T) {
	fut1 := NewFuture[int]()
	source := Mutable[Awaitable[int]](fut1)
	w := WaitedWithOptions[int](source, WaitOptions{Mode: WaitNewest})

	unsub := w.addObserver(observerFunc{})
	defer unsub()

	fut2 := NewFuture[int]()
	source.Set(fut2)

	fut1.Resolve(999) // orphaned: fut1 was superseded before it completed
	func() {
		defer func() { recover() }()
		w.Value()
		t.Errorf("expected Value() to still panic: fut1's completion must be discarded")
	}()

	fut2.Resolve(2)
	assert.Equal(t, 2, w.Value())
}

func TestWaited_QueueModeDeliversInAssignmentOrderDespiteOutOfOrderCompletion(t *testing.T) {
	fut1 := NewFuture[int]()
	source := Mutable[Awaitable[int]](fut1)
	w := WaitedWithOptions[int](source, WaitOptions{Mode: WaitQueue})

	var seen []int
	unsub := w.addObserver(observerFunc{didUpdate: func(AnyCell, bool) {
		func() {
			defer func() { recover() }()
			seen = append(seen, w.Value())
		}()
	}})
	defer unsub()

	fut2 := NewFuture[int]()
	source.Set(fut2) // fut2 is now queued behind fut1

	fut3 := NewFuture[int]()
	source.Set(fut3) // fut3 queued behind fut2

	// Complete out of assignment order: fut3, then fut1, then fut2.
	fut3.Resolve(30)
	fut1.Resolve(10)
	fut2.Resolve(20)

	assert.Equal(t, []int{10, 20, 30}, seen, "completions should deliver in assignment order, not completion order")
}

func TestWait2_JoinsBothSources(t *testing.T) {
	futA := NewFuture[int]()
	futB := NewFuture[string]()
	ca := Mutable[Awaitable[int]](futA)
	cb := Mutable[Awaitable[string]](futB)

	joined := Wait2[int, string](ca, cb)
	unsub := joined.addObserver(observerFunc{})
	defer unsub()

	func() {
		defer func() { recover() }()
		joined.Value()
		t.Errorf("expected Value() to panic before both sources resolve")
	}()

	futA.Resolve(1)

	func() {
		defer func() { recover() }()
		joined.Value()
		t.Errorf("expected Value() to panic with only one of two sources resolved")
	}()

	futB.Resolve("ok")

	assert.Equal(t, lo.Tuple2[int, string]{A: 1, B: "ok"}, joined.Value())
}

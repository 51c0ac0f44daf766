package cells

import (
	"errors"
	"fmt"
	"log"
	"runtime/debug"
)

// PendingAsyncValueError is the value a wait cell's Value() panics with
// while its source Awaitable has not yet completed.
type PendingAsyncValueError struct {
	// Key identifies the wait cell that is still pending, for diagnostics.
	Key Key
}

func (e *PendingAsyncValueError) Error() string {
	return fmt.Sprintf("cells: %s is pending", e.Key)
}

// StoppedWatchError is returned by WatchHandle.Trigger when called after
// Stop: a stopped watch has no callback left to rerun, so Trigger reports
// the misuse directly to the caller instead of silently doing nothing.
type StoppedWatchError struct {
	Key Key
}

func (e *StoppedWatchError) Error() string {
	return fmt.Sprintf("cells: watch %s already stopped", e.Key)
}

// computeOutcome classifies what happened when a compute function ran to
// completion or panicked: exactly one of normal completion, an aborted
// recomputation (None), or a raised error.
type computeOutcome struct {
	value   any
	err     error
	aborted bool
	// abortDefault is the value from None(def), only meaningful if aborted
	// is true and a default was supplied.
	abortDefault   any
	hasAbortDefault bool
}

// runCompute invokes fn, converting any panic into a computeOutcome rather
// than letting it escape. This is the one recover() boundary every
// recomputing cell variant (computed, watch) funnels through, so the
// abort-sentinel/error classification happens in exactly one place.
//
// onPanic, if non-nil, is reported for non-abort panics only; with no hook
// configured the panic is logged via the standard logger instead of
// silently swallowed.
func runCompute[T any](fn func() T, onPanic func(any, []byte)) (outcome computeOutcome) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		if a, ok := isAbort(r); ok {
			outcome.aborted = true
			if a.value != nil {
				outcome.abortDefault = a.value
				outcome.hasAbortDefault = true
			}
			return
		}
		stack := debug.Stack()
		if onPanic != nil {
			onPanic(r, stack)
		} else {
			log.Printf("cells: recovered panic: %v\n%s", r, stack)
		}
		outcome.err = toError(r)
	}()
	outcome.value = fn()
	return outcome
}

// toError normalizes an arbitrary recovered panic value into an error,
// preserving the original panic value rather than reporting a generic
// "panic recovered" placeholder.
func toError(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return errors.New(fmt.Sprint(r))
}

package cells

import "reflect"

// Options configures a cell's change-detection and panic-reporting
// behavior, shared across every constructor that takes a *WithOptions form.
type Options[T any] struct {
	// Equal overrides the default equality check used to decide whether a
	// new value counts as a change. Defaults to reflect.DeepEqual.
	Equal EqualFunc[T]

	// OnPanic, if set, is called with the recovered panic value and a
	// stack trace whenever a compute function for this cell panics with
	// something other than the abort sentinel, instead of the package
	// default of logging via the log package.
	OnPanic func(recovered any, stack []byte)

	// ChangesOnly makes a computed cell report changed=false in the
	// DidUpdate it sends when it recomputes to a value equal to its previous
	// one. The DidUpdate itself is still delivered.
	ChangesOnly bool
}

func defaultEqual[T any](a, b T) bool {
	return reflect.DeepEqual(a, b)
}

// WatchOptions configures a Watch.
type WatchOptions struct {
	// Schedule, if set, defers the callback's execution: instead of
	// running synchronously at the end of a propagation wave, the watch
	// hands schedule a thunk to run later (e.g. on a UI event loop or a
	// debounced timer). The thunk reruns the callback against the
	// dependency values current when it runs; it does not capture the
	// values as of scheduling time.
	Schedule func(func())

	// OnPanic, if set, receives panics raised by the watch callback
	// instead of the package default.
	OnPanic func(recovered any, stack []byte)
}

package cells

// abortSignal is the panic payload raised by None to short-circuit a
// compute function: discard this recomputation, retain the previous
// value, and report changed=false downstream. It is a distinct type from
// error so a recover() site can tell an abort apart from an ordinary
// computation error with a single type switch.
type abortSignal struct {
	value any
}

// None aborts the currently-running compute function. The cell keeps
// whatever value it already held. On a first computation, with no prior
// value to keep, the cell takes the default argument if one is given and
// T's zero value otherwise (see computed.go). The wave is reported as
// changed=false.
func None[T any](def ...T) T {
	var v any
	if len(def) > 0 {
		v = def[0]
	}
	panic(abortSignal{value: v})
}

// isAbort reports whether r (a recovered panic value) is an abort signal,
// returning its carried default value (possibly nil) alongside.
func isAbort(r any) (abortSignal, bool) {
	a, ok := r.(abortSignal)
	return a, ok
}

package cells

// EqualFunc reports whether two values of type T should be treated as
// equal for change-detection purposes. The zero value of Options[T] uses
// a reflect-based deep-equal fallback (see defaultEqual in options.go).
type EqualFunc[T any] func(a, b T) bool

// MutableCell is the read/write contract for a mutable cell: the one
// primitive source of truth a reactive graph is built on top of.
type MutableCell[T any] interface {
	Cell[T]

	// Set assigns a new value. If it is unequal to the current value
	// (per the cell's EqualFunc), every transitive observer receives a
	// WillUpdate immediately and a DidUpdate once the write (or enclosing
	// Batch) completes. Setting an equal value is a no-op: no notification
	// fires at all.
	Set(v T)

	// Update computes the next value from the current one and assigns it,
	// equivalent to Set(fn(m.Value())) but reading the value without
	// registering a dependency.
	Update(fn func(T) T)
}

type mutableCell[T any] struct {
	baseCell
	v     T
	equal EqualFunc[T]
}

// Mutable constructs a mutable cell holding v, using the default
// reflect-based equality check.
func Mutable[T any](v T) MutableCell[T] {
	return MutableWithOptions(v, Options[T]{})
}

// MutableWithOptions constructs a mutable cell holding v with an explicit
// Options[T] (principally a custom EqualFunc).
func MutableWithOptions[T any](v T, opts Options[T]) MutableCell[T] {
	eq := opts.Equal
	if eq == nil {
		eq = defaultEqual[T]
	}
	return &mutableCell[T]{
		baseCell: baseCell{key: newIdentityKey()},
		v:        v,
		equal:    eq,
	}
}

func (m *mutableCell[T]) Value() T {
	track(m)
	return m.v
}

func (m *mutableCell[T]) Set(v T) {
	if m.equal(m.v, v) {
		return
	}
	m.willUpdate(m)
	m.v = v
	m.didUpdate(m, true)
}

func (m *mutableCell[T]) Update(fn func(T) T) {
	m.Set(fn(Untrack(m.Value)))
}

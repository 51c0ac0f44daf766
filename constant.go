package cells

// constantCell is an immutable cell: it never changes, so it never has
// dependencies, is never dirty, and its observer set — while maintained
// for interface uniformity — is never actually notified.
type constantCell[T any] struct {
	baseCell
	v T
}

// Value constructs an immutable cell holding v. It never changes and
// never recomputes; subscribing to it is legal but no notification will
// ever follow.
func Value[T any](v T) Cell[T] {
	return &constantCell[T]{
		baseCell: baseCell{key: newIdentityKey()},
		v:        v,
	}
}

func (c *constantCell[T]) Value() T {
	track(c)
	return c.v
}

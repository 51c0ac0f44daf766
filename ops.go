package cells

import (
	"errors"
	"fmt"
	"math"

	"golang.org/x/exp/constraints"
)

// Number is the constraint for the arithmetic operator sugar below:
// golang.org/x/exp/constraints splits integers and floats but has no
// combined numeric constraint of its own.
type Number interface {
	constraints.Integer | constraints.Float
}

// Add, Sub, Mul and Div build derived cells from the arithmetic operators.
// Each uses a structural key over its operands, so `Add(a, b)` built twice
// from the same a and b is the same cell for subscription-sharing
// purposes.
func Add[T Number](a, b Cell[T]) Cell[T] {
	return computedWithKey[T](NewStructuralKey("add", a.Key(), b.Key()),
		func() T { return a.Value() + b.Value() }, Options[T]{})
}

func Sub[T Number](a, b Cell[T]) Cell[T] {
	return computedWithKey[T](NewStructuralKey("sub", a.Key(), b.Key()),
		func() T { return a.Value() - b.Value() }, Options[T]{})
}

func Mul[T Number](a, b Cell[T]) Cell[T] {
	return computedWithKey[T](NewStructuralKey("mul", a.Key(), b.Key()),
		func() T { return a.Value() * b.Value() }, Options[T]{})
}

func Div[T Number](a, b Cell[T]) Cell[T] {
	return computedWithKey[T](NewStructuralKey("div", a.Key(), b.Key()),
		func() T { return a.Value() / b.Value() }, Options[T]{})
}

// BitAnd, BitOr, BitXor and BitNot are the bitwise operator sugar,
// restricted to integer cells the same way Go's own `&`/`|`/`^` operators
// are.
func BitAnd[T constraints.Integer](a, b Cell[T]) Cell[T] {
	return computedWithKey[T](NewStructuralKey("band", a.Key(), b.Key()),
		func() T { return a.Value() & b.Value() }, Options[T]{})
}

func BitOr[T constraints.Integer](a, b Cell[T]) Cell[T] {
	return computedWithKey[T](NewStructuralKey("bor", a.Key(), b.Key()),
		func() T { return a.Value() | b.Value() }, Options[T]{})
}

func BitXor[T constraints.Integer](a, b Cell[T]) Cell[T] {
	return computedWithKey[T](NewStructuralKey("bxor", a.Key(), b.Key()),
		func() T { return a.Value() ^ b.Value() }, Options[T]{})
}

func BitNot[T constraints.Integer](a Cell[T]) Cell[T] {
	return computedWithKey[T](NewStructuralKey("bnot", a.Key()),
		func() T { return ^a.Value() }, Options[T]{})
}

// Eq and Neq are the equality operator sugar, defined for any comparable
// cell value rather than just Number.
func Eq[T comparable](a, b Cell[T]) Cell[bool] {
	return computedWithKey[bool](NewStructuralKey("eq", a.Key(), b.Key()),
		func() bool { return a.Value() == b.Value() }, Options[bool]{})
}

func Neq[T comparable](a, b Cell[T]) Cell[bool] {
	return computedWithKey[bool](NewStructuralKey("neq", a.Key(), b.Key()),
		func() bool { return a.Value() != b.Value() }, Options[bool]{})
}

// Lt, Le, Gt and Ge are the ordering comparison operator sugar.
func Lt[T constraints.Ordered](a, b Cell[T]) Cell[bool] {
	return computedWithKey[bool](NewStructuralKey("lt", a.Key(), b.Key()),
		func() bool { return a.Value() < b.Value() }, Options[bool]{})
}

func Le[T constraints.Ordered](a, b Cell[T]) Cell[bool] {
	return computedWithKey[bool](NewStructuralKey("le", a.Key(), b.Key()),
		func() bool { return a.Value() <= b.Value() }, Options[bool]{})
}

func Gt[T constraints.Ordered](a, b Cell[T]) Cell[bool] {
	return computedWithKey[bool](NewStructuralKey("gt", a.Key(), b.Key()),
		func() bool { return a.Value() > b.Value() }, Options[bool]{})
}

func Ge[T constraints.Ordered](a, b Cell[T]) Cell[bool] {
	return computedWithKey[bool](NewStructuralKey("ge", a.Key(), b.Key()),
		func() bool { return a.Value() >= b.Value() }, Options[bool]{})
}

// Abs is the absolute-value operator sugar. It is a no-op for unsigned
// integer cells, matching Go's own handling of unsigned underflow-free
// magnitude.
func Abs[T Number](a Cell[T]) Cell[T] {
	return computedWithKey[T](NewStructuralKey("abs", a.Key()),
		func() T {
			v := a.Value()
			if v < 0 {
				return -v
			}
			return v
		}, Options[T]{})
}

// Round is the rounding operator sugar, defined over floating-point cells
// only — rounding an already-integral cell is the identity, which callers
// can express directly without this helper.
func Round[T constraints.Float](a Cell[T]) Cell[T] {
	return computedWithKey[T](NewStructuralKey("round", a.Key()),
		func() T { return T(math.Round(float64(a.Value()))) }, Options[T]{})
}

// LogAnd, LogOr and LogNot are the boolean operator sugar. Like the
// underlying Go operators, LogAnd and LogOr short-circuit: the second
// operand is only read (and so only tracked as a dependency) when it's
// actually needed to decide the result.
func LogAnd(a, b Cell[bool]) Cell[bool] {
	return computedWithKey[bool](NewStructuralKey("and", a.Key(), b.Key()),
		func() bool { return a.Value() && b.Value() }, Options[bool]{})
}

func LogOr(a, b Cell[bool]) Cell[bool] {
	return computedWithKey[bool](NewStructuralKey("or", a.Key(), b.Key()),
		func() bool { return a.Value() || b.Value() }, Options[bool]{})
}

func LogNot(a Cell[bool]) Cell[bool] {
	return computedWithKey[bool](NewStructuralKey("not", a.Key()),
		func() bool { return !a.Value() }, Options[bool]{})
}

// Select is a reactive ternary: it reads cond every recompute, but only
// reads whichever of t or f cond currently selects, so the other branch is
// not a dependency until cond picks it.
func Select[T any](cond Cell[bool], t, f Cell[T]) Cell[T] {
	return computedWithKey[T](NewStructuralKey("select", cond.Key(), t.Key(), f.Key()),
		func() T {
			if cond.Value() {
				return t.Value()
			}
			return f.Value()
		}, Options[T]{})
}

// OnError substitutes fallback's value whenever source's compute function
// raises an ordinary error, and re-raises an abort sentinel untouched if
// one somehow reaches here. In practice a computed cell's own recompute
// boundary fully absorbs an abort — it retains the previous value and
// reports changed=false — before source.Value() can ever return or panic
// it back out here, so that branch is unreachable in normal use; it is
// kept only as a defensive fallback against a future source variant that
// panics abortSignal past its own boundary.
func OnError[T any](source, fallback Cell[T]) Cell[T] {
	return computedWithKey[T](NewStructuralKey("on_error", source.Key(), fallback.Key()),
		func() (result T) {
			defer func() {
				if r := recover(); r == nil {
					return
				} else if a, ok := isAbort(r); ok {
					panic(a)
				} else {
					result = fallback.Value()
				}
			}()
			return source.Value()
		}, Options[T]{})
}

// OnErrorAs is OnError restricted to errors matching E: a raised error of
// any other type is not "ours" to substitute for, so it propagates
// through this cell instead of being replaced by fallback's value.
func OnErrorAs[E error, T any](source, fallback Cell[T]) Cell[T] {
	return computedWithKey[T](NewStructuralKey(fmt.Sprintf("on_error_as[%T]", (*E)(nil)), source.Key(), fallback.Key()),
		func() (result T) {
			defer func() {
				if r := recover(); r == nil {
					return
				} else if a, ok := isAbort(r); ok {
					panic(a)
				} else if err, ok := r.(error); ok {
					var target E
					if !errors.As(err, &target) {
						panic(r)
					}
					result = fallback.Value()
				} else {
					panic(r)
				}
			}()
			return source.Value()
		}, Options[T]{})
}

// ErrorOf reports the most recent computation error source has raised, or
// nil if it has not raised one. The error stays set after source later
// recomputes successfully. With all=true (ErrorOfAll), the cell's value
// clears back to nil on every successful recomputation rather than
// staying sticky between errors; aborted recomputations never count as an
// error either way — an abort carries no value and no error, so it leaves
// whatever error state was already there untouched.
func ErrorOf[T any](source Cell[T]) Cell[error] {
	return errorOf[T](source, false)
}

// ErrorOfAll is ErrorOf with all=true.
func ErrorOfAll[T any](source Cell[T]) Cell[error] {
	return errorOf[T](source, true)
}

func errorOf[T any](source Cell[T], all bool) Cell[error] {
	var lastErr error
	op := "error_of"
	if all {
		op = "error_of_all"
	}
	return computedWithKey[error](NewStructuralKey(op, source.Key()),
		func() error {
			outcome := runCompute(func() T { return source.Value() }, nil)
			switch {
			case outcome.aborted:
				return lastErr
			case outcome.err != nil:
				lastErr = outcome.err
				return lastErr
			default:
				if all {
					lastErr = nil
				}
				return lastErr
			}
		}, Options[error]{ChangesOnly: true})
}

// ErrorOfAs is ErrorOf restricted to errors matching E: an error of any
// other type is not "ours" to report, so it propagates through this cell
// instead of being absorbed.
func ErrorOfAs[E error, T any](source Cell[T], all bool) Cell[error] {
	var lastErr error
	return computedWithKey[error](NewStructuralKey(fmt.Sprintf("error_of_as[%T,%t]", (*E)(nil), all), source.Key()),
		func() error {
			outcome := runCompute(func() T { return source.Value() }, nil)
			switch {
			case outcome.aborted:
				return lastErr
			case outcome.err != nil:
				var target E
				if !errors.As(outcome.err, &target) {
					panic(outcome.err)
				}
				lastErr = outcome.err
				return lastErr
			default:
				if all {
					lastErr = nil
				}
				return lastErr
			}
		}, Options[error]{ChangesOnly: true})
}

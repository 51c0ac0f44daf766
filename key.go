package cells

import (
	"strconv"
	"strings"
	"sync/atomic"
)

// Key identifies a cell for structural-sharing purposes.
//
// Two cells with equal keys are treated as semantically interchangeable:
// expression sugar (Add, LogAnd, Select, Peek, Waited, ...) builds a
// structural key from its operator tag and its operands' keys, so that two
// independently constructed `Add(a, b)` cells compare equal even though they
// are different Go values. Keys must be hashable and totally consistent
// with equality; Key.String() is that hash/equality surface rolled into
// one string.
type Key interface {
	String() string
}

// KeysEqual reports whether two keys are semantically interchangeable.
func KeysEqual(a, b Key) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.String() == b.String()
}

// identityKey is the default key for cells with no natural structural
// identity (constant and mutable cells): every construction gets a fresh,
// globally unique key.
type identityKey uint64

var identitySeq atomic.Uint64

func newIdentityKey() identityKey {
	return identityKey(identitySeq.Add(1))
}

func (k identityKey) String() string {
	return "id#" + strconv.FormatUint(uint64(k), 10)
}

// StructuralKey is the key shape for expression sugar: an operator tag plus
// the keys of its operands. Two StructuralKeys are equal iff their tags
// match and their operand keys match pairwise, in order.
type StructuralKey struct {
	Op       string
	Operands []Key
}

// NewStructuralKey builds a structural key for an operator over the given
// operand keys.
func NewStructuralKey(op string, operands ...Key) StructuralKey {
	return StructuralKey{Op: op, Operands: operands}
}

func (k StructuralKey) String() string {
	var b strings.Builder
	b.WriteString(k.Op)
	b.WriteByte('(')
	for i, o := range k.Operands {
		if i > 0 {
			b.WriteByte(',')
		}
		if o == nil {
			b.WriteString("<nil>")
			continue
		}
		b.WriteString(o.String())
	}
	b.WriteByte(')')
	return b.String()
}

package cells

import "testing"

func TestMutable_New(t *testing.T) {
	m := Mutable(42)

	if got := m.Value(); got != 42 {
		t.Errorf("Mutable(42).Value() = %d, want 42", got)
	}
}

func TestMutable_Get(t *testing.T) {
	tests := []struct {
		name  string
		value int
	}{
		{"zero", 0},
		{"positive", 42},
		{"negative", -10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Mutable(tt.value)
			if got := m.Value(); got != tt.value {
				t.Errorf("Value() = %d, want %d", got, tt.value)
			}
		})
	}
}

func TestMutable_Set(t *testing.T) {
	m := Mutable(0)

	m.Set(10)
	if got := m.Value(); got != 10 {
		t.Errorf("After Set(10), Value() = %d, want 10", got)
	}

	m.Set(20)
	if got := m.Value(); got != 20 {
		t.Errorf("After Set(20), Value() = %d, want 20", got)
	}
}

func TestMutable_Update(t *testing.T) {
	m := Mutable(5)

	m.Update(func(v int) int { return v * 2 })

	if got := m.Value(); got != 10 {
		t.Errorf("After Update(*2), Value() = %d, want 10", got)
	}
}

func TestMutable_SetEqualValueNoNotify(t *testing.T) {
	m := Mutable(5)

	wills, dids := 0, 0
	unsub := m.addObserver(observerFunc{
		willUpdate: func(AnyCell) { wills++ },
		didUpdate:  func(AnyCell, bool) { dids++ },
	})
	defer unsub()

	m.Set(5)

	if wills != 0 || dids != 0 {
		t.Errorf("Set(equal value) notified observer (wills=%d, dids=%d), want 0, 0", wills, dids)
	}
}

func TestMutable_SetUnequalValueNotifies(t *testing.T) {
	m := Mutable(5)

	var wills, dids int
	var lastChanged bool
	unsub := m.addObserver(observerFunc{
		willUpdate: func(AnyCell) { wills++ },
		didUpdate: func(source AnyCell, changed bool) {
			dids++
			lastChanged = changed
			if !KeysEqual(source.Key(), m.Key()) {
				t.Errorf("DidUpdate source key = %v, want the mutable cell's own key", source.Key())
			}
		},
	})
	defer unsub()

	m.Set(6)

	if wills != 1 || dids != 1 {
		t.Errorf("Set(unequal value) notified (wills=%d, dids=%d), want 1, 1", wills, dids)
	}
	if !lastChanged {
		t.Errorf("DidUpdate changed = false, want true")
	}
}

func TestMutable_EqualFunc(t *testing.T) {
	type point struct{ x, y int }

	m := MutableWithOptions(point{1, 1}, Options[point]{
		Equal: func(a, b point) bool { return a.x == b.x },
	})

	dids := 0
	unsub := m.addObserver(observerFunc{didUpdate: func(AnyCell, bool) { dids++ }})
	defer unsub()

	m.Set(point{1, 99}) // x unchanged per the custom Equal
	if dids != 0 {
		t.Errorf("custom Equal should have suppressed notification, dids = %d", dids)
	}

	m.Set(point{2, 99})
	if dids != 1 {
		t.Errorf("x actually changed, dids = %d, want 1", dids)
	}
}

func TestMutable_Unsubscribe(t *testing.T) {
	m := Mutable(0)

	calls := 0
	unsub := m.addObserver(observerFunc{didUpdate: func(AnyCell, bool) { calls++ }})

	m.Set(1)
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}

	unsub()
	m.Set(2)
	if calls != 1 {
		t.Errorf("after Unsubscribe, calls = %d, want still 1", calls)
	}
}

func TestMutable_MultipleObservers(t *testing.T) {
	m := Mutable(0)

	var a, b int
	unsubA := m.addObserver(observerFunc{didUpdate: func(AnyCell, bool) { a++ }})
	unsubB := m.addObserver(observerFunc{didUpdate: func(AnyCell, bool) { b++ }})
	defer unsubA()
	defer unsubB()

	m.Set(1)

	if a != 1 || b != 1 {
		t.Errorf("a=%d b=%d, want both 1", a, b)
	}
}

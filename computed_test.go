package cells

import (
	"errors"
	"testing"
)

func TestComputed_Basic(t *testing.T) {
	count := Mutable(5)

	doubled := Computed(func() int { return count.Value() * 2 })

	if got := doubled.Value(); got != 10 {
		t.Errorf("Computed() = %d, want 10", got)
	}

	count.Set(10)

	if got := doubled.Value(); got != 20 {
		t.Errorf("After Set(10), Computed() = %d, want 20", got)
	}
}

func TestComputed_MultipleDependencies(t *testing.T) {
	firstName := Mutable("John")
	lastName := Mutable("Doe")

	fullName := Computed(func() string {
		return firstName.Value() + " " + lastName.Value()
	})

	if got := fullName.Value(); got != "John Doe" {
		t.Errorf("fullName = %q, want %q", got, "John Doe")
	}

	firstName.Set("Jane")
	if got := fullName.Value(); got != "Jane Doe" {
		t.Errorf("fullName = %q, want %q", got, "Jane Doe")
	}
}

func TestComputed_InactiveRecomputesEachRead(t *testing.T) {
	count := Mutable(0)
	runs := 0
	doubled := Computed(func() int {
		runs++
		return count.Value() * 2
	})

	// No observers: every read is a fresh, uncached computation.
	doubled.Value()
	doubled.Value()
	if runs != 2 {
		t.Errorf("inactive computed ran %d times for 2 reads, want 2", runs)
	}
}

func TestComputed_ActiveCachesBetweenWrites(t *testing.T) {
	count := Mutable(0)
	runs := 0
	doubled := Computed(func() int {
		runs++
		return count.Value() * 2
	})

	unsub := doubled.addObserver(observerFunc{})
	defer unsub()

	doubled.Value()
	doubled.Value()
	doubled.Value()
	if runs != 1 {
		t.Errorf("active computed with no writes ran %d times for 3 reads, want 1", runs)
	}

	count.Set(5)
	doubled.Value()
	if runs != 2 {
		t.Errorf("after one write, active computed ran %d times, want 2", runs)
	}
}

func TestComputed_DynamicDependencies(t *testing.T) {
	useFirst := Mutable(true)
	a := Mutable("a")
	b := Mutable("b")

	picked := Computed(func() string {
		if useFirst.Value() {
			return a.Value()
		}
		return b.Value()
	})

	unsub := picked.addObserver(observerFunc{})
	defer unsub()

	if got := picked.Value(); got != "a" {
		t.Fatalf("picked = %q, want %q", got, "a")
	}

	dids := 0
	unsub2 := picked.addObserver(observerFunc{didUpdate: func(AnyCell, bool) { dids++ }})
	defer unsub2()

	// b is not currently a dependency: changing it must not trigger picked.
	b.Set("b2")
	if dids != 0 {
		t.Errorf("changing untracked branch notified picked %d times, want 0", dids)
	}

	useFirst.Set(false)
	if got := picked.Value(); got != "b2" {
		t.Errorf("after switching branch, picked = %q, want %q", got, "b2")
	}
}

func TestComputed_ChainedComputed(t *testing.T) {
	count := Mutable(5)
	doubled := Computed(func() int { return count.Value() * 2 })
	quadrupled := Computed(func() int { return doubled.Value() * 2 })

	unsub := quadrupled.addObserver(observerFunc{})
	defer unsub()

	if got := quadrupled.Value(); got != 20 {
		t.Errorf("quadrupled = %d, want 20", got)
	}

	count.Set(10)
	if got := quadrupled.Value(); got != 40 {
		t.Errorf("after count.Set(10), quadrupled = %d, want 40", got)
	}
}

func TestComputed_DiamondGlitchFree(t *testing.T) {
	a := Mutable(1)
	b := Computed(func() int { return a.Value() + 1 })
	d := Computed(func() int { return a.Value() * 10 })
	var seen []int
	c := Computed(func() int {
		v := b.Value() + d.Value()
		seen = append(seen, v)
		return v
	})

	unsub := c.addObserver(observerFunc{})
	defer unsub()
	c.Value()
	seen = nil

	a.Set(2)
	c.Value()

	// b and d must both reflect a=2 by the time c recomputes: (2+1)+(2*10)=23.
	// A glitchy implementation could transiently see (1+1)+(2*10)=21 or
	// (2+1)+(1*10)=13 on the way there.
	for _, v := range seen {
		if v != 23 {
			t.Errorf("c saw an intermediate/glitched value %d, want only 23", v)
		}
	}
	if got := c.Value(); got != 23 {
		t.Errorf("c.Value() = %d, want 23", got)
	}
}

func TestComputed_PanicRecovery(t *testing.T) {
	boom := Mutable(false)
	c := ComputedWithOptions(func() int {
		if boom.Value() {
			panic(errors.New("boom"))
		}
		return 1
	}, Options[int]{OnPanic: func(any, []byte) {}})

	unsub := c.addObserver(observerFunc{})
	defer unsub()

	if got := c.Value(); got != 1 {
		t.Fatalf("c.Value() = %d, want 1", got)
	}

	boom.Set(true)

	func() {
		defer func() {
			if recover() == nil {
				t.Errorf("expected Value() to panic after dependency starts panicking")
			}
		}()
		c.Value()
	}()
}

func TestComputed_Abort(t *testing.T) {
	trigger := Mutable(0)
	c := Computed(func() int {
		v := trigger.Value()
		if v == 0 {
			return 42
		}
		return None[int]()
	})

	unsub := c.addObserver(observerFunc{})
	defer unsub()

	if got := c.Value(); got != 42 {
		t.Fatalf("c.Value() = %d, want 42", got)
	}

	dids := 0
	var lastChanged bool
	unsub2 := c.addObserver(observerFunc{didUpdate: func(_ AnyCell, changed bool) {
		dids++
		lastChanged = changed
	}})
	defer unsub2()

	trigger.Set(1)

	if dids != 1 {
		t.Fatalf("dids = %d, want 1", dids)
	}
	if lastChanged {
		t.Errorf("an aborted recomputation should report changed=false")
	}
	if got := c.Value(); got != 42 {
		t.Errorf("after abort, c.Value() = %d, want retained 42", got)
	}
}

func TestComputed_ChangesOnlySuppressesEqualRecompute(t *testing.T) {
	trigger := Mutable(0)
	c := ComputedWithOptions(func() int {
		return trigger.Value() / 10 // many trigger values map to the same result
	}, Options[int]{ChangesOnly: true})

	unsub := c.addObserver(observerFunc{})
	defer unsub()
	c.Value()

	dids := 0
	unsub2 := c.addObserver(observerFunc{didUpdate: func(_ AnyCell, changed bool) {
		if changed {
			dids++
		}
	}})
	defer unsub2()

	trigger.Set(1) // 1/10 == 0/10, no real change
	if dids != 0 {
		t.Errorf("changes_only computed notified on an equal recompute, dids = %d", dids)
	}

	trigger.Set(20) // 20/10 == 2, a real change
	if dids != 1 {
		t.Errorf("changes_only computed did not notify on a real change, dids = %d", dids)
	}
}

func TestComputed_DefaultNotifiesOnEveryRecompute(t *testing.T) {
	trigger := Mutable(0)
	c := Computed(func() int { return trigger.Value() / 10 })

	unsub := c.addObserver(observerFunc{})
	defer unsub()
	c.Value()

	dids := 0
	unsub2 := c.addObserver(observerFunc{didUpdate: func(_ AnyCell, changed bool) {
		if changed {
			dids++
		}
	}})
	defer unsub2()

	trigger.Set(1) // value unchanged, but changes_only defaults to false
	if dids != 1 {
		t.Errorf("default computed should notify on every recompute, dids = %d, want 1", dids)
	}
}

package main

import (
	"fmt"
	"time"

	"github.com/coregx/cells"
)

func main() {
	demoBasicCells()
	demoComputedCells()
	demoWatch()
	demoBatch()
	demoPeekAndOps()
	demoWait()
	fmt.Println("\n=== Demo Complete ===")
}

func demoBasicCells() {
	fmt.Println("=== Phase 1: Mutable Cells ===")

	s := cells.Mutable("test")

	value := s.Value()
	fmt.Println("Current value:", value)

	s.Set("test1")
	fmt.Println("After Set:", s.Value())

	s.Update(func(v string) string {
		return v + "_updated"
	})
	fmt.Println("After Update:", s.Value())
}

func demoComputedCells() {
	fmt.Println("\n=== Phase 2: Computed Cells ===")

	// Example 1: Basic computed cell; dependencies are discovered
	// automatically from what the function reads, not passed explicitly.
	count := cells.Mutable(5)
	doubled := cells.Computed(func() int {
		return count.Value() * 2
	})

	fmt.Printf("count = %d, doubled = %d\n", count.Value(), doubled.Value())

	count.Set(10)
	fmt.Printf("After count.Set(10): doubled = %d\n", doubled.Value())

	// Example 2: multiple dependencies.
	firstName := cells.Mutable("John")
	lastName := cells.Mutable("Doe")

	fullName := cells.Computed(func() string {
		return firstName.Value() + " " + lastName.Value()
	})

	fmt.Printf("\nFull name: %s\n", fullName.Value())

	firstName.Set("Jane")
	fmt.Printf("After firstName.Set('Jane'): %s\n", fullName.Value())

	// Example 3: chained computed cells.
	quadrupled := cells.Computed(func() int {
		return doubled.Value() * 2
	})

	fmt.Printf("\ncount = %d, quadrupled = %d\n", count.Value(), quadrupled.Value())

	count.Set(5)
	fmt.Printf("After count.Set(5): quadrupled = %d\n", quadrupled.Value())

	// Example 4: dynamic dependencies — the branch not taken is simply
	// not tracked, unlike the explicit-dependency-list form this replaces.
	useFirst := cells.Mutable(true)
	picked := cells.Computed(func() string {
		if useFirst.Value() {
			return firstName.Value()
		}
		return lastName.Value()
	})
	fmt.Printf("\npicked (useFirst=true): %s\n", picked.Value())
	useFirst.Set(false)
	fmt.Printf("picked (useFirst=false): %s\n", picked.Value())
}

func demoWatch() {
	fmt.Println("\n=== Phase 3: Watch ===")

	effectCount := cells.Mutable(0)
	fmt.Println("Creating watch (runs immediately)...")

	w1 := cells.Watch(func() {
		fmt.Printf("Watch running! Count is: %d\n", effectCount.Value())
	})
	defer w1.Stop()

	effectCount.Set(5)
	effectCount.Set(10)

	fmt.Println("\nWatch with multiple dependencies:")
	x := cells.Mutable(3)
	y := cells.Mutable(4)

	w2 := cells.Watch(func() {
		sum := x.Value() + y.Value()
		fmt.Printf("x=%d, y=%d, sum=%d\n", x.Value(), y.Value(), sum)
	})
	defer w2.Stop()

	x.Set(5)
	y.Set(6)
}

func demoBatch() {
	fmt.Println("\n=== Phase 4: Batch ===")

	a := cells.Mutable(1)
	b := cells.Mutable(2)
	sum := cells.Computed(func() int { return a.Value() + b.Value() })

	w := cells.Watch(func() {
		fmt.Printf("sum = %d\n", sum.Value())
	})
	defer w.Stop()

	fmt.Println("Writing a and b inside one Batch (watch fires once):")
	cells.Batch(func() {
		a.Set(10)
		b.Set(20)
	})
}

func demoPeekAndOps() {
	fmt.Println("\n=== Phase 5: Peek and operator sugar ===")

	base := cells.Mutable(10)
	tripled := cells.Computed(func() int {
		return base.Value() * 3
	})
	peeked := cells.Peek(tripled)

	watcherRuns := cells.Mutable(0)
	w := cells.Watch(func() {
		watcherRuns.Update(func(n int) int { return n + 1 })
		fmt.Printf("base=%d, tripled (peeked, not tracked)=%d\n", base.Value(), peeked.Value())
	})
	defer w.Stop()

	base.Set(20)
	fmt.Printf("watch reran because base changed; peeking tripled never subscribes to it directly\n")

	doubled := cells.Add(base, base)
	fmt.Printf("\nAdd(base, base) = %d\n", doubled.Value())

	cond := cells.Mutable(true)
	choice := cells.Select(cond, base, doubled)
	fmt.Printf("Select(cond=true, base, doubled) = %d\n", choice.Value())
	cond.Set(false)
	fmt.Printf("Select(cond=false, base, doubled) = %d\n", choice.Value())

	fmt.Printf("\nGt(base, doubled) = %v\n", cells.Gt(base, doubled).Value())
	fmt.Printf("BitAnd(base, doubled) = %d\n", cells.BitAnd(base, doubled).Value())
	fmt.Printf("Abs(Sub(base, doubled)) = %d\n", cells.Abs(cells.Sub(base, doubled)).Value())
}

func demoWait() {
	fmt.Println("\n=== Phase 6: Wait cells ===")

	pending := cells.Mutable[cells.Awaitable[string]](cells.Delayed("hello", 10*time.Millisecond))
	waited := cells.Waited[string](pending)

	done := make(chan struct{})
	var closeOnce bool
	w := cells.Watch(func() {
		v := "<pending>"
		func() {
			defer func() { recover() }()
			v = waited.Value()
		}()
		fmt.Println("waited value:", v)
		if v != "<pending>" && !closeOnce {
			closeOnce = true
			close(done)
		}
	})
	defer w.Stop()

	<-done
}

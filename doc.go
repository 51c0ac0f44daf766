// Package cells is a reactive propagation engine: computations are modeled
// as a directed graph of cells, values flow from writable leaves through
// derived cells to side-effect watchers, and the graph stays glitch-free —
// every observer sees a value computed from one consistent snapshot of its
// dependencies, never a mix of old and new.
//
// # Core Types
//
// Cell[T] - the read contract shared by every variant (constant, mutable,
// computed, peek, wait).
//
// Mutable[T] - a writable leaf cell. Set and Update both participate in the
// two-phase will/did-update protocol.
//
// Computed[T] - a derived cell whose dependency set is discovered
// automatically: whichever cells its compute function calls Value() on
// during a run become its dependencies for that run, and may differ between
// runs.
//
// Watch - a permanently-active side-effect callback, the consumer-facing
// analogue of a computed cell: it recomputes (reruns its callback) instead
// of caching a value.
//
// # Example Usage
//
//	count := cells.Mutable(0)
//
//	doubled := cells.Computed(func() int {
//	    return count.Value() * 2
//	})
//
//	w := cells.Watch(func() {
//	    fmt.Println("doubled is now", doubled.Value())
//	})
//	defer w.Stop()
//
//	count.Set(5) // prints "doubled is now 10"
//
// # Dependency Tracking
//
// Unlike an explicit-dependency-list design, where every dependency has to
// be named up front when constructing a computed cell or watch, dependencies
// here are discovered automatically: Value() both reads a cell and, if
// called while a computed cell or watch is running, records that cell into
// the current run's dependency set. See tracking.go.
//
// # Concurrency Model
//
// The propagation engine itself is single-threaded and cooperative by
// design: all cell reads, writes, and propagation steps are expected to
// happen on one designated goroutine, and the engine as a whole is not safe
// for concurrent use. Awaitable completions (wait.go) may arrive from
// background goroutines, so Future and the wait cell guard their completion
// state with a mutex. Computed cells and watch handles also lock a mutex
// around their own bookkeeping; no lock spans a whole propagation wave.
//
// # Panic Safety
//
// Compute functions and watch callbacks run under panic recovery. A panicking compute function becomes a stored
// computation error (re-raised on every subsequent read) unless the panic
// carries the abort sentinel (see abort.go), in which case the cell retains
// its previous value instead.
package cells

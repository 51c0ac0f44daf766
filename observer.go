package cells

// Unsubscribe removes a single observer registration. Call it to stop
// receiving notifications and prevent memory leaks.
type Unsubscribe func()

// Observer is the two-phase notification contract every cell variant
// delivers to, and receives from, its dependents.
//
// For any source write, every transitive observer receives exactly one
// paired WillUpdate/DidUpdate, unless the wave is short-circuited by equal
// values under a computed cell's changes-only option. WillUpdate is
// idempotent within a single propagation wave: an observer with several
// paths to the same source still only forwards its own WillUpdate once.
type Observer interface {
	// WillUpdate announces that source is about to change. Implementations
	// mark themselves stale and, if active, forward their own WillUpdate to
	// their observers — but only the first time in a given wave.
	WillUpdate(source AnyCell)

	// DidUpdate announces that the change committed. changed is false when
	// a changes-only computed cell recomputed to an equal value, or when a
	// compute function raised the abort sentinel.
	DidUpdate(source AnyCell, changed bool)
}

// observerSet stores a cell's observers in registration order, so
// iteration guarantees that two observers at the same distance from the
// source are notified in the order they were added. Deletion is O(n) in
// the observer count to preserve that order — a plain map would give O(1)
// delete but no ordering, and the ordering guarantee is the one this set
// exists to provide.
type observerSet struct {
	subs  map[uint64]Observer
	order []uint64
	next  uint64
}

func (s *observerSet) add(o Observer) uint64 {
	if s.subs == nil {
		s.subs = make(map[uint64]Observer)
	}
	id := s.next
	s.next++
	s.subs[id] = o
	s.order = append(s.order, id)
	return id
}

func (s *observerSet) remove(id uint64) {
	if _, ok := s.subs[id]; !ok {
		return
	}
	delete(s.subs, id)
	for i, x := range s.order {
		if x == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

func (s *observerSet) count() int { return len(s.subs) }

// each calls fn for every currently-registered observer, in registration
// order. fn must not mutate the set; callers that need to tolerate
// unsubscribe-during-notification should snapshot first.
func (s *observerSet) each(fn func(Observer)) {
	if len(s.order) == 0 {
		return
	}
	ids := make([]uint64, len(s.order))
	copy(ids, s.order)
	for _, id := range ids {
		if o, ok := s.subs[id]; ok {
			fn(o)
		}
	}
}

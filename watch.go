package cells

import "sync"

// WatchHandle is the handle returned by Watch. It has no value and no
// observers of its own: it is a terminal node in the dependency graph,
// re-running its callback whenever any cell it read during its last run
// changes.
type WatchHandle struct {
	mu       sync.Mutex
	key      Key
	fn       func()
	schedule func(func())
	onPanic  func(any, []byte)

	deps   map[string]AnyCell
	unsubs map[string]Unsubscribe

	pendingPush    bool
	pendingSources int
	running        bool
	stopped        bool
}

// Watch runs fn immediately, subscribes to every cell fn read, and reruns
// it each time one of them changes, for as long as the returned handle is
// not stopped.
func Watch(fn func()) *WatchHandle {
	return WatchWithOptions(fn, WatchOptions{})
}

// WatchWithOptions is Watch with an explicit schedule hook and panic
// reporter.
func WatchWithOptions(fn func(), opts WatchOptions) *WatchHandle {
	h := &WatchHandle{
		key:      newIdentityKey(),
		fn:       fn,
		schedule: opts.Schedule,
		onPanic:  opts.OnPanic,
		deps:     make(map[string]AnyCell),
		unsubs:   make(map[string]Unsubscribe),
	}
	h.run()
	return h
}

// Trigger forces an immediate, synchronous rerun of the watch's callback,
// bypassing its schedule hook, regardless of whether any dependency has
// changed. It returns a *StoppedWatchError if the handle has already been
// stopped.
func (h *WatchHandle) Trigger() error {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return &StoppedWatchError{Key: h.key}
	}
	h.mu.Unlock()
	h.run()
	return nil
}

// Stop unsubscribes the watch from every cell it currently depends on. A
// stopped watch never runs again, even if already scheduled via the
// schedule hook.
func (h *WatchHandle) Stop() {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return
	}
	h.stopped = true
	unsubs := h.unsubs
	h.unsubs = nil
	h.mu.Unlock()

	for _, u := range unsubs {
		u()
	}
}

func (h *WatchHandle) run() {
	h.mu.Lock()
	if h.stopped || h.running {
		h.mu.Unlock()
		return
	}
	h.running = true
	h.mu.Unlock()

	pushFrame()
	runCompute(func() any {
		h.fn()
		return nil
	}, h.onPanic)
	f := popFrame()
	newDeps := f.cells()

	h.mu.Lock()
	h.running = false
	if !h.stopped {
		h.reconcileDeps(newDeps)
	}
	h.mu.Unlock()
}

func (h *WatchHandle) reconcileDeps(newDeps []AnyCell) {
	next := make(map[string]AnyCell, len(newDeps))
	for _, d := range newDeps {
		next[d.Key().String()] = d
	}
	for k, unsub := range h.unsubs {
		if _, ok := next[k]; !ok {
			unsub()
			delete(h.unsubs, k)
			delete(h.deps, k)
		}
	}
	for k, d := range next {
		if _, ok := h.unsubs[k]; !ok {
			h.unsubs[k] = d.addObserver(h)
			h.deps[k] = d
		}
	}
}

// WillUpdate implements Observer.
func (h *WatchHandle) WillUpdate(source AnyCell) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stopped {
		return
	}
	if h.pendingPush {
		// Inside a batch the flush delivers one DidUpdate per observer, so
		// further WillUpdates do not add to the count it has to clear.
		if currentBatchFrame() == nil {
			h.pendingSources++
		}
		return
	}
	h.pendingPush = true
	h.pendingSources = 1
}

// DidUpdate implements Observer. Once every dependency that announced a
// WillUpdate this wave has reported back, the callback reruns — directly,
// or via the schedule hook if one was configured — whatever changed flag
// those DidUpdates carried. A watch that triggers a synchronous rerun of
// itself (a callback that writes one of its own dependencies) drops that
// reentrant rerun rather than recursing; reconcileDeps after the
// in-progress run still picks up whatever the write actually changed.
func (h *WatchHandle) DidUpdate(source AnyCell, changed bool) {
	h.mu.Lock()
	if h.stopped || !h.pendingPush {
		h.mu.Unlock()
		return
	}
	h.pendingSources--
	if h.pendingSources > 0 {
		h.mu.Unlock()
		return
	}
	h.pendingPush = false
	sched := h.schedule
	h.mu.Unlock()

	if sched != nil {
		sched(h.run)
	} else {
		h.run()
	}
}

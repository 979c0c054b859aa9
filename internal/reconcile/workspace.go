package reconcile

import (
	"sync"
	"time"
)

// DefaultIdleTimeout is how long a view survives without being used.
const DefaultIdleTimeout = 2 * time.Hour

// View is the state one signed-in user works against: the loans screen
// expansion and the client detail panel.
type View struct {
	Loans  *Expansion
	Detail *DetailView
}

type entry struct {
	view *View
	used time.Time
}

// Workspace hands out one View per session key. Views idle for longer than
// the timeout are dropped, so sessions that never log out do not pile up.
type Workspace struct {
	mu        sync.Mutex
	fetch     LoanFetcher
	views     map[string]*entry
	idle      time.Duration
	now       func() time.Time
	lastSweep time.Time
}

// WorkspaceOption configures a Workspace.
type WorkspaceOption func(*Workspace)

// WithIdleTimeout overrides DefaultIdleTimeout.
func WithIdleTimeout(d time.Duration) WorkspaceOption {
	return func(w *Workspace) { w.idle = d }
}

// WithWorkspaceClock replaces time.Now, for tests.
func WithWorkspaceClock(now func() time.Time) WorkspaceOption {
	return func(w *Workspace) { w.now = now }
}

// NewWorkspace returns an empty workspace whose views load loans through f.
func NewWorkspace(f LoanFetcher, opts ...WorkspaceOption) *Workspace {
	w := &Workspace{fetch: f, views: make(map[string]*entry), idle: DefaultIdleTimeout, now: time.Now}
	for _, opt := range opts {
		opt(w)
	}
	w.lastSweep = w.now()
	return w
}

// For returns the view of key, creating it on first use.
func (w *Workspace) For(key string) *View {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	if now.Sub(w.lastSweep) >= w.idle {
		w.sweep(now)
	}
	e, ok := w.views[key]
	if !ok {
		e = &entry{view: &View{Loans: NewExpansion(w.fetch), Detail: NewDetailView(w.fetch)}}
		w.views[key] = e
	}
	e.used = now
	return e.view
}

// Drop forgets the view of key, on logout.
func (w *Workspace) Drop(key string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.views, key)
}

// Len reports how many views are held.
func (w *Workspace) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.views)
}

// sweep must be called with mu held.
func (w *Workspace) sweep(now time.Time) {
	for key, e := range w.views {
		if now.Sub(e.used) >= w.idle {
			delete(w.views, key)
		}
	}
	w.lastSweep = now
}

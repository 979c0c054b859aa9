package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"painel/internal/core"
)

// Tab is the section shown in an open detail panel.
type Tab string

const (
	TabDetails Tab = "details"
	TabLoans   Tab = "loans"
)

// ErrDetailClosed is returned by operations that need a selected client.
var ErrDetailClosed = errors.New("no client selected")

// ParseTab accepts the tab names used in query strings.
func ParseTab(s string) (Tab, error) {
	switch Tab(s) {
	case TabDetails, TabLoans:
		return Tab(s), nil
	}
	return "", fmt.Errorf("unknown tab %q", s)
}

// DetailState is the panel as rendered: closed, or one client with a tab
// and that client's loan expansion.
type DetailState struct {
	Open     bool           `json:"open"`
	ClientID core.ID        `json:"client_id,omitempty"`
	Tab      Tab            `json:"tab,omitempty"`
	Loans    ExpansionState `json:"loans"`
}

// DetailView is the client detail panel: Closed, or open on one client with
// a tab selected. Its loan expansion is collapsed whenever the client
// changes.
type DetailView struct {
	mu       sync.Mutex
	open     bool
	clientID core.ID
	tab      Tab
	loans    *Expansion
}

// NewDetailView returns a closed panel.
func NewDetailView(f LoanFetcher) *DetailView {
	return &DetailView{loans: NewExpansion(f)}
}

// Select opens the panel on clientID at the details tab.
func (d *DetailView) Select(clientID core.ID) DetailState {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.open || !d.clientID.Same(clientID) {
		d.loans.Reset()
	}
	d.open = true
	d.clientID = clientID
	d.tab = TabDetails
	return d.stateLocked()
}

// SelectTab switches tabs on the open panel. The loan expansion is kept.
func (d *DetailView) SelectTab(tab Tab) (DetailState, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.open {
		return d.stateLocked(), ErrDetailClosed
	}
	d.tab = tab
	return d.stateLocked(), nil
}

// Close hides the panel and collapses its loans.
func (d *DetailView) Close() DetailState {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.open = false
	d.clientID = ""
	d.tab = ""
	d.loans.Reset()
	return d.stateLocked()
}

// ToggleLoan expands or collapses one of the open client's loans.
func (d *DetailView) ToggleLoan(ctx context.Context, loanID core.ID) (DetailState, error) {
	d.mu.Lock()
	open := d.open
	d.mu.Unlock()
	if !open {
		return d.State(), ErrDetailClosed
	}
	_, err := d.loans.Toggle(ctx, loanID)
	return d.State(), err
}

func (d *DetailView) State() DetailState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stateLocked()
}

func (d *DetailView) stateLocked() DetailState {
	return DetailState{
		Open:     d.open,
		ClientID: d.clientID,
		Tab:      d.tab,
		Loans:    d.loans.State(),
	}
}

package reconcile

import (
	"context"
	"sync"

	"painel/internal/core"
)

// LoanFetcher loads one loan with its installments.
type LoanFetcher interface {
	GetLoan(ctx context.Context, id core.ID) (core.Loan, error)
}

// ExpansionState is Closed when LoanID is empty. While the installments are
// being fetched it is Open with Loading set and no installments.
type ExpansionState struct {
	LoanID       core.ID            `json:"loan_id,omitempty"`
	Installments []core.Installment `json:"installments"`
	Loading      bool               `json:"loading"`
}

func (s ExpansionState) Open() bool { return s.LoanID != "" }

// Expansion keeps at most one loan expanded. Concurrent toggles are not
// sequenced: whichever fetch finishes last wins.
type Expansion struct {
	mu    sync.Mutex
	state ExpansionState
	fetch LoanFetcher
}

// NewExpansion returns a collapsed expansion that loads loans through f.
func NewExpansion(f LoanFetcher) *Expansion {
	return &Expansion{fetch: f}
}

// State returns a copy of the current expansion.
func (e *Expansion) State() ExpansionState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshot()
}

// Toggle collapses id if it is the open loan. Otherwise it replaces whatever
// is open with id and fetches its installments; a failed fetch collapses.
func (e *Expansion) Toggle(ctx context.Context, id core.ID) (ExpansionState, error) {
	e.mu.Lock()
	if e.state.Open() && e.state.LoanID.Same(id) {
		e.state = ExpansionState{}
		st := e.snapshot()
		e.mu.Unlock()
		return st, nil
	}
	e.state = ExpansionState{LoanID: id, Loading: true}
	e.mu.Unlock()

	loan, err := e.fetch.GetLoan(ctx, id)

	e.mu.Lock()
	defer e.mu.Unlock()
	if err != nil {
		e.state = ExpansionState{}
		return e.snapshot(), err
	}
	e.state = ExpansionState{LoanID: id, Installments: core.SortInstallments(loan.Installments)}
	return e.snapshot(), nil
}

// Reset collapses without fetching.
func (e *Expansion) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = ExpansionState{}
}

func (e *Expansion) snapshot() ExpansionState {
	st := e.state
	st.Installments = append([]core.Installment(nil), e.state.Installments...)
	if st.Installments == nil {
		st.Installments = []core.Installment{}
	}
	return st
}

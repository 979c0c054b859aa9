// Package reconcile joins clients, loans and installments and holds the
// per-session view state: the open client detail and the single expanded
// loan.
package reconcile

import "painel/internal/core"

// FindClient looks a client up by id, comparing ids on their text form.
func FindClient(clients []core.Client, id core.ID) (core.Client, bool) {
	for _, c := range clients {
		if c.ID.Same(id) {
			return c, true
		}
	}
	return core.Client{}, false
}

// ClientForLoan resolves the owner of loan.
func ClientForLoan(loan core.Loan, clients []core.Client) (core.Client, bool) {
	return FindClient(clients, loan.ClientID)
}

// LoansForClient keeps the loans owned by clientID, in input order.
func LoansForClient(loans []core.Loan, clientID core.ID) []core.Loan {
	var out []core.Loan
	for _, l := range loans {
		if l.ClientID.Same(clientID) {
			out = append(out, l)
		}
	}
	return out
}

// ClientForInstallment walks installment -> loan -> client.
func ClientForInstallment(p core.Installment, loans []core.Loan, clients []core.Client) (core.Client, bool) {
	for _, l := range loans {
		if l.ID.Same(p.LoanID) {
			return ClientForLoan(l, clients)
		}
	}
	return core.Client{}, false
}

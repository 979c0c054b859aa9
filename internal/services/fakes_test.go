package services

import (
	"context"
	"errors"
	"io"
	"strconv"
	"sync"

	"painel/internal/amqp"
	"painel/internal/api"
	"painel/internal/core"
)

// fakeRemote stands in for the REST service.
type fakeRemote struct {
	mu           sync.Mutex
	clients      []core.Client
	loans        []core.Loan
	installments []core.Installment
	listCalls    int
	created      []core.Client
	multipart    bool
	uploaded     map[string]string
	updated      []core.Client
	deleted      []core.ID
	cancelled    []core.ID
	loanReq      []core.Loan
	nextID       int
	failList     error
	failDelete   error
	failLoans    error
	login        api.LoginResult
	loginErr     error
}

func (f *fakeRemote) ListClients(context.Context) ([]core.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.failList != nil {
		return nil, f.failList
	}
	return append([]core.Client(nil), f.clients...), nil
}

func (f *fakeRemote) GetClient(_ context.Context, id core.ID) (core.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.clients {
		if c.ID.Same(id) {
			return c, nil
		}
	}
	return core.Client{}, &api.OperationError{Entity: api.EntityClient, Op: api.OpGet, StatusCode: 404}
}

func (f *fakeRemote) CreateClient(_ context.Context, c core.Client) (core.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.created = append(f.created, c)
	c.ID = core.ID(strconv.Itoa(100 + f.nextID))
	f.clients = append(f.clients, c)
	return c, nil
}

func (f *fakeRemote) CreateClientMultipart(ctx context.Context, c core.Client, files []api.Upload) (core.Client, error) {
	f.mu.Lock()
	f.multipart = true
	f.uploaded = map[string]string{}
	for _, u := range files {
		if u.Content == nil {
			continue
		}
		b, _ := io.ReadAll(u.Content)
		f.uploaded[string(u.Field)] = string(b)
	}
	f.mu.Unlock()
	return f.CreateClient(ctx, c)
}

func (f *fakeRemote) UpdateClient(_ context.Context, id core.ID, c core.Client) (core.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updated = append(f.updated, c)
	return c, nil
}

func (f *fakeRemote) DeleteClient(_ context.Context, id core.ID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failDelete != nil {
		return f.failDelete
	}
	f.deleted = append(f.deleted, id)
	next := f.clients[:0:0]
	for _, c := range f.clients {
		if !c.ID.Same(id) {
			next = append(next, c)
		}
	}
	f.clients = next
	return nil
}

func (f *fakeRemote) ListLoans(context.Context) ([]core.Loan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failLoans != nil {
		return nil, f.failLoans
	}
	return append([]core.Loan(nil), f.loans...), nil
}

func (f *fakeRemote) GetLoan(_ context.Context, id core.ID) (core.Loan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, l := range f.loans {
		if l.ID.Same(id) {
			return l, nil
		}
	}
	return core.Loan{}, &api.OperationError{Entity: api.EntityLoan, Op: api.OpGet, StatusCode: 404}
}

func (f *fakeRemote) CreateLoan(_ context.Context, l core.Loan) (core.Loan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loanReq = append(f.loanReq, l)
	l.ID = "77"
	return l, nil
}

func (f *fakeRemote) CancelLoan(_ context.Context, id core.ID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled = append(f.cancelled, id)
	return nil
}

func (f *fakeRemote) ListInstallments(context.Context) ([]core.Installment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]core.Installment(nil), f.installments...), nil
}

func (f *fakeRemote) AdminLogin(context.Context, string, string) (api.LoginResult, error) {
	return f.login, f.loginErr
}

func (f *fakeRemote) ClientLogin(context.Context, string, string) (api.LoginResult, error) {
	return f.login, f.loginErr
}

type fakePublisher struct {
	mu     sync.Mutex
	events []*amqp.LoanEvent
	fail   bool
}

func (p *fakePublisher) PublishLoanEvent(_ context.Context, ev *amqp.LoanEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return errors.New("broker down")
	}
	p.events = append(p.events, ev)
	return nil
}

package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"painel/internal/api"
	"painel/internal/cache"
	"painel/internal/core"
	"painel/internal/log"
	"painel/internal/reconcile"
)

// ClientService applies client mutations remotely and then writes the new
// list through the cache.
type ClientService struct {
	api   ClientAPI
	loans LoanAPI
	cache *cache.ClientCache
}

// NewClientService returns a service mutating clients through clients and
// keeping c in step.
func NewClientService(clients ClientAPI, loans LoanAPI, c *cache.ClientCache) *ClientService {
	return &ClientService{api: clients, loans: loans, cache: c}
}

// List loads the cached list, then searches and filters it locally.
func (s *ClientService) List(ctx context.Context, query string, filter reconcile.ClientFilter) ([]core.Client, error) {
	clients, err := s.cache.Load(ctx)
	if err != nil {
		return nil, err
	}
	return reconcile.FilterClients(reconcile.Search(clients, query), filter), nil
}

// Refresh drops the cache and loads again.
func (s *ClientService) Refresh(ctx context.Context) ([]core.Client, error) {
	if err := s.cache.Invalidate(ctx); err != nil {
		return nil, err
	}
	return s.cache.Load(ctx)
}

// Create adds a client with the status the admin picked, pending when none
// or an unknown one is given. Attached documents switch the request to
// multipart.
func (s *ClientService) Create(ctx context.Context, c core.Client, files []api.Upload) (core.Client, error) {
	status := c.Status
	if !status.Known() {
		status = core.ClientPending
	}
	return s.create(ctx, c, files, status, "admin")
}

// Register is the public self-registration path. Registered clients start
// active.
func (s *ClientService) Register(ctx context.Context, c core.Client, files []api.Upload) (core.Client, error) {
	return s.create(ctx, c, files, core.ClientActive, "register")
}

func (s *ClientService) create(ctx context.Context, c core.Client, files []api.Upload, status core.ClientStatus, source string) (core.Client, error) {
	c.ID = ""
	c.Loans = nil
	c.SetStatus(status)
	c.Normalize()
	if err := c.Validate(); err != nil {
		return core.Client{}, err
	}

	var (
		created core.Client
		err     error
	)
	if hasFiles(files) {
		created, err = s.api.CreateClientMultipart(ctx, c, files)
	} else {
		created, err = s.api.CreateClient(ctx, c)
	}
	if err != nil {
		log.LogRemoteFailure(ctx, api.EntityClient, api.OpCreate, err)
		return core.Client{}, err
	}

	if list, ok := s.cache.Cached(ctx); ok {
		if err := s.writeThrough(ctx, append(list, created)); err != nil {
			return created, err
		}
	}

	slog.InfoContext(ctx, "Client created",
		log.FieldComponent, log.ComponentApp,
		log.FieldClientID, created.ID,
		"source", source)
	return created, nil
}

// Update replaces a client. The payment provider id of the stored record
// survives edits that do not carry one.
func (s *ClientService) Update(ctx context.Context, id core.ID, c core.Client) (core.Client, error) {
	existing, err := s.Find(ctx, id)
	if err != nil {
		return core.Client{}, err
	}
	if c.PaymentProviderID == "" {
		c.PaymentProviderID = existing.PaymentProviderID
	}
	return s.update(ctx, id, c)
}

// SetDelinquent toggles the delinquency of a stored client.
func (s *ClientService) SetDelinquent(ctx context.Context, id core.ID, on bool) (core.Client, error) {
	c, err := s.Find(ctx, id)
	if err != nil {
		return core.Client{}, err
	}
	c.SetDelinquent(on)
	return s.update(ctx, id, c)
}

func (s *ClientService) update(ctx context.Context, id core.ID, c core.Client) (core.Client, error) {
	c.ID = id
	c.Loans = nil
	c.Normalize()
	if err := c.Validate(); err != nil {
		return core.Client{}, err
	}

	updated, err := s.api.UpdateClient(ctx, id, c)
	if err != nil {
		log.LogRemoteFailure(ctx, api.EntityClient, api.OpUpdate, err)
		return core.Client{}, err
	}
	if updated.ID == "" {
		updated = c
	}

	if list, ok := s.cache.Cached(ctx); ok {
		next := make([]core.Client, 0, len(list))
		for _, existing := range list {
			if existing.ID.Same(id) {
				existing = updated
			}
			next = append(next, existing)
		}
		if err := s.writeThrough(ctx, next); err != nil {
			return updated, err
		}
	}
	return updated, nil
}

// Delete removes the client remotely and returns the list without it. The
// same list is written to the cache before returning; when that write fails
// the cache is dropped so the deleted client is never served again.
func (s *ClientService) Delete(ctx context.Context, id core.ID) ([]core.Client, error) {
	if err := s.api.DeleteClient(ctx, id); err != nil {
		log.LogRemoteFailure(ctx, api.EntityClient, api.OpDelete, err)
		return nil, err
	}

	list, ok := s.cache.Cached(ctx)
	if !ok {
		return s.cache.Load(ctx)
	}
	next := make([]core.Client, 0, len(list))
	for _, c := range list {
		if !c.ID.Same(id) {
			next = append(next, c)
		}
	}
	if err := s.writeThrough(ctx, next); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "Client deleted",
		log.FieldComponent, log.ComponentApp,
		log.FieldClientID, id)
	return next, nil
}

// MyData is the signed-in client's own record with its loans.
type MyData struct {
	Client core.Client `json:"cliente"`
	Loans  []core.Loan `json:"emprestimos"`
}

// Me loads the record of the signed-in client. Loans nested in the record
// are used as is; otherwise they are joined from the loan list.
func (s *ClientService) Me(ctx context.Context, id core.ID) (MyData, error) {
	c, err := s.api.GetClient(ctx, id)
	if err != nil {
		log.LogRemoteFailure(ctx, api.EntityClient, api.OpGet, err)
		return MyData{}, err
	}
	loans := c.Loans
	if len(loans) == 0 {
		all, err := s.loans.ListLoans(ctx)
		if err != nil {
			log.LogRemoteFailure(ctx, api.EntityLoan, api.OpList, err)
			return MyData{}, err
		}
		loans = reconcile.LoansForClient(all, id)
	}
	if loans == nil {
		loans = []core.Loan{}
	}
	c.Loans = nil
	return MyData{Client: c, Loans: loans}, nil
}

// Find looks a client up in the loaded list, falling back to the remote
// record.
func (s *ClientService) Find(ctx context.Context, id core.ID) (core.Client, error) {
	if list, err := s.cache.Load(ctx); err == nil {
		if c, ok := reconcile.FindClient(list, id); ok {
			return c, nil
		}
	}
	c, err := s.api.GetClient(ctx, id)
	if err != nil {
		if errors.Is(err, api.ErrNotFound) {
			return core.Client{}, fmt.Errorf("client %s: %w", id, err)
		}
		log.LogRemoteFailure(ctx, api.EntityClient, api.OpGet, err)
		return core.Client{}, err
	}
	return c, nil
}

// writeThrough stores list after a remote mutation. A failed write drops the
// cache so the next Load refetches; only a failed drop is returned.
func (s *ClientService) writeThrough(ctx context.Context, list []core.Client) error {
	err := s.cache.WriteThrough(ctx, list)
	if err == nil {
		return nil
	}
	slog.WarnContext(ctx, "Cache write-through failed, invalidating",
		log.FieldComponent, log.ComponentCache,
		log.FieldError, err)
	if ierr := s.cache.Invalidate(ctx); ierr != nil {
		return fmt.Errorf("client cache out of date: %w", errors.Join(err, ierr))
	}
	return nil
}

func hasFiles(files []api.Upload) bool {
	for _, f := range files {
		if f.Content != nil {
			return true
		}
	}
	return false
}

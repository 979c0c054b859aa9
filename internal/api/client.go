// Package api is a typed client for the loan-servicing REST service.
//
// Every call issues exactly one request. Non-2xx responses and transport
// failures come back as *OperationError naming the entity and the operation;
// nothing is retried.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Entity names used in errors and logs.
const (
	EntityClient      = "cliente"
	EntityLoan        = "emprestimo"
	EntityInstallment = "parcela"
	EntityAuth        = "auth"
)

// Operation names used in errors and logs.
const (
	OpList     = "list"
	OpGet      = "get"
	OpGetByCPF = "get_by_cpf"
	OpCreate   = "create"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpCancel   = "cancel"
	OpLogin    = "login"
)

const maxErrorLen = 4 << 10

// DefaultLoanInterestRate is the percentage the service expects on new loans.
const DefaultLoanInterestRate = 30

type Client struct {
	baseURL  string
	http     *http.Client
	loanRate float64
}

type Option func(*Client)

// WithHTTPClient replaces the transport, mostly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the transport-level timeout for every request.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithLoanInterestRate sets the rate sent on every new loan.
func WithLoanInterestRate(rate float64) Option {
	return func(c *Client) { c.loanRate = rate }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     &http.Client{Timeout: 15 * time.Second},
		loanRate: DefaultLoanInterestRate,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// LoanInterestRate returns the rate this client forces on new loans.
func (c *Client) LoanInterestRate() float64 {
	return c.loanRate
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out any, entity, op string) error {
	var body io.Reader
	contentType := ""
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return &OperationError{Entity: entity, Op: op, Err: fmt.Errorf("encode request: %w", err)}
		}
		body = bytes.NewReader(b)
		contentType = "application/json"
	}
	return c.do(ctx, method, path, body, contentType, out, entity, op)
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out any, entity, op string) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return &OperationError{Entity: entity, Op: op, Err: fmt.Errorf("build request: %w", err)}
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return &OperationError{Entity: entity, Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorLen))
		return &OperationError{
			Entity:     entity,
			Op:         op,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(msg)),
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
		return &OperationError{Entity: entity, Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

package amqp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"painel/internal/core"
)

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 1 * time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 16 * time.Second},
		{5, 30 * time.Second},
		{10, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("attempt_%d", tt.attempt), func(t *testing.T) {
			if got := exponentialBackoff(tt.attempt); got != tt.expected {
				t.Errorf("exponentialBackoff(%d) = %v, want %v", tt.attempt, got, tt.expected)
			}
		})
	}
}

func TestIsConnectionError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"connection refused", errors.New("dial tcp: connection refused"), true},
		{"EOF", errors.New("unexpected EOF"), true},
		{"broken pipe", errors.New("write: broken pipe"), true},
		{"channel closed", errors.New("message channel closed"), true},
		{"other error", errors.New("some other error"), false},
		{"precondition", errors.New("PRECONDITION_FAILED - inequivalent arg"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isConnectionError(tt.err); got != tt.expected {
				t.Errorf("isConnectionError(%v) = %v, want %v", tt.err, got, tt.expected)
			}
		})
	}
}

func TestClient_CircuitBreaker(t *testing.T) {
	client := &Client{exchangeName: "test_exchange", queueName: "test_queue"}

	t.Run("initial state is closed", func(t *testing.T) {
		if client.isCircuitOpen() {
			t.Error("circuit breaker should be closed initially")
		}
	})

	t.Run("record success resets state", func(t *testing.T) {
		atomic.StoreInt64(&client.failureCount, 3)
		atomic.StoreInt32(&client.state, StateOpen)
		client.recordSuccess()
		if atomic.LoadInt64(&client.failureCount) != 0 || atomic.LoadInt32(&client.state) != StateClosed {
			t.Error("success should close the circuit and reset failures")
		}
	})

	t.Run("max failures open circuit", func(t *testing.T) {
		for i := 0; i < maxFailures; i++ {
			client.recordFailure()
		}
		if !client.isCircuitOpen() {
			t.Error("circuit breaker should be open after max failures")
		}
	})

	t.Run("half-open after timeout", func(t *testing.T) {
		atomic.StoreInt32(&client.state, StateOpen)
		client.lastFailure = time.Now().Add(-openTimeout - time.Second)
		if client.isCircuitOpen() {
			t.Error("circuit should be half-open after timeout")
		}
		if atomic.LoadInt32(&client.state) != StateHalfOpen {
			t.Error("state should be StateHalfOpen")
		}
	})
}

func TestPublishShortCircuits(t *testing.T) {
	client := &Client{exchangeName: "test_exchange", queueName: "test_queue"}
	ev := NewLoanEvent(LoanCreated, "1", "2")

	atomic.StoreInt32(&client.state, StateOpen)
	client.lastFailure = time.Now()
	err := client.PublishLoanEvent(context.Background(), ev)
	if err == nil || !strings.Contains(err.Error(), "circuit breaker is open") {
		t.Fatalf("expected circuit breaker error, got %v", err)
	}

	atomic.StoreInt32(&client.state, StateClosed)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := client.PublishLoanEvent(ctx, ev); err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

type fakeAck struct {
	acked, nacked, requeued bool
}

func (f *fakeAck) Ack(bool) error {
	f.acked = true
	return nil
}

func (f *fakeAck) Nack(_, requeue bool) error {
	f.nacked = true
	f.requeued = requeue
	return nil
}

func TestDispatch(t *testing.T) {
	good, _ := NewLoanEvent(LoanCancelled, "9", "").ToJSON()
	tests := []struct {
		name        string
		body        []byte
		handlerErr  error
		wantAck     bool
		wantNack    bool
		wantRequeue bool
	}{
		{"success acks", good, nil, true, false, false},
		{"handler error requeues", good, errors.New("sheets down"), false, true, true},
		{"malformed json drops", []byte("{"), nil, false, true, false},
		{"unknown kind drops", []byte(`{"kind":"loan.paid","loan_id":"1"}`), nil, false, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ack := &fakeAck{}
			var got *LoanEvent
			dispatch(context.Background(), tt.body, ack, func(_ context.Context, ev *LoanEvent) error {
				got = ev
				return tt.handlerErr
			})
			if ack.acked != tt.wantAck || ack.nacked != tt.wantNack || ack.requeued != tt.wantRequeue {
				t.Errorf("ack=%v nack=%v requeue=%v", ack.acked, ack.nacked, ack.requeued)
			}
			if tt.wantAck && (got == nil || got.LoanID != "9") {
				t.Errorf("handler got %+v", got)
			}
		})
	}
}

func TestLoanEventJSON(t *testing.T) {
	ev := NewLoanEvent(LoanCreated, core.ID("42"), core.ID("7"))
	if ev.ID == "" || ev.Timestamp.IsZero() {
		t.Fatalf("event not initialised: %+v", ev)
	}

	b, err := ev.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	if !strings.Contains(string(b), `"loan_id":42`) {
		t.Errorf("numeric loan id not preserved: %s", b)
	}

	back, err := LoanEventFromJSON(b)
	if err != nil {
		t.Fatalf("LoanEventFromJSON: %v", err)
	}
	if back.ID != ev.ID || back.LoanID != "42" || back.ClientID != "7" || back.Kind != LoanCreated {
		t.Errorf("decoded %+v", back)
	}

	if _, err := LoanEventFromJSON([]byte(`{"kind":"loan.created"}`)); !errors.Is(err, ErrInvalidEvent) {
		t.Errorf("missing loan id: %v", err)
	}
}

package http

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"painel/internal/api"
	"painel/internal/core"
	"painel/internal/reconcile"
	"painel/internal/services"
)

func TestWriteJSONEncodeFailure(t *testing.T) {
	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
	writeJSON(rec, r, http.StatusOK, map[string]float64{"x": math.Inf(1)})

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	var body errorBody
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil || body.Error == "" {
		t.Fatalf("body = %q, err %v", rec.Body.String(), err)
	}
}

func TestWriteJSONLeadingZeroID(t *testing.T) {
	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/clients", nil)
	writeJSON(rec, r, http.StatusOK, []core.Client{{ID: "0042", Name: "Ana"}})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var got []core.Client
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 1 || got[0].ID != "0042" {
		t.Fatalf("got %+v", got)
	}
}

func TestFailStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"bad request", badRequest{"x"}, http.StatusBadRequest},
		{"missing credentials", services.ErrMissingCredentials, http.StatusBadRequest},
		{"invalid credentials", services.ErrInvalidCredentials, http.StatusUnauthorized},
		{"validation", core.ErrEmptyCPF, http.StatusUnprocessableEntity},
		{"detail closed", reconcile.ErrDetailClosed, http.StatusConflict},
		{"not owner", errNotOwner, http.StatusNotFound},
		{"remote 404", &api.OperationError{Entity: api.EntityLoan, Op: api.OpGet, StatusCode: 404}, http.StatusNotFound},
		{"remote 500", &api.OperationError{Entity: api.EntityLoan, Op: api.OpGet, StatusCode: 500}, http.StatusBadGateway},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			fail(rec, httptest.NewRequest(http.MethodGet, "/", nil), tt.err)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

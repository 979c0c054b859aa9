package trace

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestMiddlewareAssignsRequestID(t *testing.T) {
	var seen string
	h := NewMiddleware(func(*http.Request) string { return "1.2.3.4" }).Middleware(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = GetRequestID(r.Context())
			w.WriteHeader(http.StatusTeapot)
		}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))

	if seen == "" || rec.Header().Get(HeaderRequestID) != seen {
		t.Errorf("context id %q, header %q", seen, rec.Header().Get(HeaderRequestID))
	}
	if rec.Code != http.StatusTeapot {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestMiddlewareKeepsIncomingID(t *testing.T) {
	const id = "3f1c2a8e-9f7b-4c1d-8e2a-0b6d5c4e3f21"
	tests := []struct {
		name     string
		incoming string
		keep     bool
	}{
		{"valid uuid kept", id, true},
		{"garbage replaced", "not-an-id", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewMiddleware(nil).Middleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.Header.Set(HeaderRequestID, tt.incoming)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, r)
			got := rec.Header().Get(HeaderRequestID)
			if (got == tt.incoming) != tt.keep {
				t.Errorf("response id = %q", got)
			}
		})
	}
}

package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"painel/internal/api"
	"painel/internal/cache"
	"painel/internal/core"
	"painel/internal/log"
	"painel/internal/middleware/trace"
	"painel/internal/reconcile"
	"painel/internal/services"
)

type errorBody struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// writeJSON encodes v before writing the status, so an encoding failure
// still reaches the caller as a 500.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if v == nil {
		w.WriteHeader(status)
		return
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		slog.ErrorContext(r.Context(), "Failed to encode response",
			log.FieldComponent, log.ComponentHTTP,
			log.FieldPath, r.URL.Path,
			log.FieldError, err)
		buf.Reset()
		_ = json.NewEncoder(&buf).Encode(errorBody{Error: "erro interno", RequestID: trace.GetRequestID(r.Context())})
		status = http.StatusInternalServerError
	}
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, errorBody{Error: msg, RequestID: trace.GetRequestID(r.Context())})
}

// badRequest marks malformed input.
type badRequest struct{ msg string }

func (e badRequest) Error() string { return e.msg }

var errNotOwner = errors.New("loan belongs to another client")

// fail maps err to a status and a message the user can read. Remote
// failures were already logged by the services.
func fail(w http.ResponseWriter, r *http.Request, err error) {
	var br badRequest
	var op *api.OperationError
	switch {
	case errors.As(err, &br):
		writeError(w, r, http.StatusBadRequest, br.msg)
	case errors.Is(err, services.ErrMissingCredentials):
		writeError(w, r, http.StatusBadRequest, "informe usuário e senha")
	case errors.Is(err, services.ErrInvalidCredentials):
		writeError(w, r, http.StatusUnauthorized, "credenciais inválidas")
	case isValidation(err):
		writeError(w, r, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, reconcile.ErrDetailClosed):
		writeError(w, r, http.StatusConflict, "nenhum cliente selecionado")
	case errors.Is(err, api.ErrNotFound), errors.Is(err, errNotOwner):
		writeError(w, r, http.StatusNotFound, "registro não encontrado")
	case errors.Is(err, cache.ErrLoad), errors.As(err, &op):
		writeError(w, r, http.StatusBadGateway, "falha ao comunicar com o servidor: "+err.Error())
	default:
		slog.ErrorContext(r.Context(), "Request failed",
			log.FieldComponent, log.ComponentHTTP,
			log.FieldPath, r.URL.Path,
			log.FieldError, err)
		writeError(w, r, http.StatusInternalServerError, "erro interno")
	}
}

func isValidation(err error) bool {
	for _, target := range []error{
		core.ErrEmptyName,
		core.ErrEmptyCPF,
		core.ErrMissingClient,
		core.ErrInvalidPrincipal,
		core.ErrInvalidInstalment,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// requireConfirm guards destructive routes: without confirm=true the
// request is refused with 428.
func requireConfirm(w http.ResponseWriter, r *http.Request) bool {
	if r.URL.Query().Get("confirm") == "true" {
		return true
	}
	writeError(w, r, http.StatusPreconditionRequired, "confirmação necessária: envie confirm=true")
	return false
}

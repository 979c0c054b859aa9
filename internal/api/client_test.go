package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"painel/internal/core"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL+"/api/", WithHTTPClient(srv.Client()))
}

func TestListClients(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/api/clientes" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `[{"id_cliente":1,"nome":"Ana","red_cliente":true},{"id_cliente":"abc","nome":"Bia"}]`)
	})

	got, err := c.ListClients(context.Background())
	if err != nil {
		t.Fatalf("ListClients: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 clients, got %d", len(got))
	}
	if got[0].ID != "1" || !got[0].IsDelinquent() {
		t.Errorf("first client = %+v", got[0])
	}
	if got[1].ID != "abc" {
		t.Errorf("second client id = %q", got[1].ID)
	}
}

func TestListEndpointsNullBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "null")
	})
	ctx := context.Background()

	clients, err := c.ListClients(ctx)
	if err != nil || clients == nil || len(clients) != 0 {
		t.Errorf("ListClients = %v, %v", clients, err)
	}
	loans, err := c.ListLoans(ctx)
	if err != nil || loans == nil || len(loans) != 0 {
		t.Errorf("ListLoans = %v, %v", loans, err)
	}
	inst, err := c.ListInstallments(ctx)
	if err != nil || inst == nil || len(inst) != 0 {
		t.Errorf("ListInstallments = %v, %v", inst, err)
	}
}

func TestOperationErrorOnNon2xx(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	_, err := c.ListLoans(context.Background())
	var op *OperationError
	if !errors.As(err, &op) {
		t.Fatalf("expected OperationError, got %T %v", err, err)
	}
	if op.Entity != EntityLoan || op.Op != OpList || op.StatusCode != 500 {
		t.Errorf("unexpected error fields: %+v", op)
	}
	if op.Body != "boom" {
		t.Errorf("body = %q", op.Body)
	}
	if errors.Is(err, ErrNotFound) {
		t.Error("500 must not match ErrNotFound")
	}
	if !IsStatus(err, 500) {
		t.Error("IsStatus(500) = false")
	}
}

func TestNotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/clientes/cpf/12345678900" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := c.GetClientByCPF(context.Background(), "12345678900")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if !strings.Contains(err.Error(), "cliente get_by_cpf failed: status 404") {
		t.Errorf("message = %q", err.Error())
	}
}

func TestTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := New(url)
	err := c.DeleteClient(context.Background(), "7")
	var op *OperationError
	if !errors.As(err, &op) {
		t.Fatalf("expected OperationError, got %v", err)
	}
	if op.StatusCode != 0 || op.Err == nil || op.Op != OpDelete {
		t.Errorf("unexpected error fields: %+v", op)
	}
}

func TestUpdateAndDeleteClient(t *testing.T) {
	var calls []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.Path)
		if r.Method == http.MethodPut {
			var body map[string]any
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Errorf("decode: %v", err)
				return
			}
			if body["asaas_id"] != "cus_1" {
				t.Errorf("asaas_id not forwarded: %v", body)
			}
			_, _ = io.WriteString(w, `{"id_cliente":9,"nome":"Ana"}`)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	ctx := context.Background()

	got, err := c.UpdateClient(ctx, "9", core.Client{ID: "9", Name: "Ana", PaymentProviderID: "cus_1"})
	if err != nil || got.ID != "9" {
		t.Fatalf("UpdateClient = %+v, %v", got, err)
	}
	if err := c.DeleteClient(ctx, "9"); err != nil {
		t.Fatalf("DeleteClient: %v", err)
	}
	want := []string{"PUT /api/clientes/9", "DELETE /api/clientes/9"}
	if strings.Join(calls, ",") != strings.Join(want, ",") {
		t.Errorf("calls = %v, want %v", calls, want)
	}
}

func TestCreateClientMultipart(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
			t.Errorf("content type = %q", r.Header.Get("Content-Type"))
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
			return
		}
		if got := r.FormValue("nome"); got != "Ana" {
			t.Errorf("nome = %q", got)
		}
		if got := r.FormValue("carro_alugado"); got != "true" {
			t.Errorf("carro_alugado = %q", got)
		}
		if _, ok := r.MultipartForm.Value["comprovante_residencial"]; ok {
			t.Error("document url must not be sent as a value")
		}
		fh := r.MultipartForm.File["foto_documento_selfie"]
		if len(fh) != 1 || fh[0].Filename != "selfie.jpg" {
			t.Errorf("selfie file = %+v", fh)
			return
		}
		f, _ := fh[0].Open()
		b, _ := io.ReadAll(f)
		if string(b) != "jpegdata" {
			t.Errorf("file content = %q", b)
		}
		_, _ = io.WriteString(w, `{"id_cliente":3,"nome":"Ana"}`)
	})

	client := core.Client{
		Name:             "Ana",
		CPF:              "123",
		CarRented:        true,
		ProofOfResidence: "https://x/y.pdf",
	}
	got, err := c.CreateClientMultipart(context.Background(), client, []Upload{
		{Field: FieldSelfie, Filename: "selfie.jpg", Content: strings.NewReader("jpegdata")},
		{Field: FieldRentalContract},
	})
	if err != nil {
		t.Fatalf("CreateClientMultipart: %v", err)
	}
	if got.ID != "3" {
		t.Errorf("id = %q", got.ID)
	}
}

func TestCreateLoanForcesRate(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/emprestimos" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode: %v", err)
			return
		}
		if body["taxa_juros"] != float64(30) {
			t.Errorf("taxa_juros = %v", body["taxa_juros"])
		}
		if body["valor_emprestimo"] != float64(1000) {
			t.Errorf("valor_emprestimo = %v", body["valor_emprestimo"])
		}
		for _, k := range []string{"valor_total_com_juros", "status_emprestimo"} {
			if _, ok := body[k]; ok {
				t.Errorf("%s must not be sent", k)
			}
		}
		_, _ = io.WriteString(w, `{"id_emprestimo":11,"id_cliente":1,"valor_emprestimo":1000}`)
	})

	loan := core.NewLoan("1", 1000, 4, 12, false)
	got, err := c.CreateLoan(context.Background(), loan)
	if err != nil {
		t.Fatalf("CreateLoan: %v", err)
	}
	if got.ID != "11" {
		t.Errorf("id = %q", got.ID)
	}
}

func TestCancelLoan(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/emprestimos/5/cancelar" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		_, _ = io.WriteString(w, `{"message":"ok"}`)
	})
	if err := c.CancelLoan(context.Background(), "5"); err != nil {
		t.Fatalf("CancelLoan: %v", err)
	}
}

func TestGetLoanWithInstallments(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"id_emprestimo":2,"parcelas":[{"id_parcela":1,"numero_parcela":2},{"id_parcela":2,"numero_parcela":1}]}`)
	})
	got, err := c.GetLoan(context.Background(), "2")
	if err != nil {
		t.Fatalf("GetLoan: %v", err)
	}
	if len(got.Installments) != 2 {
		t.Fatalf("installments = %d", len(got.Installments))
	}
}

func TestLogin(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		switch r.URL.Path {
		case "/api/auth/admin/login":
			if body["email"] != "a@b.c" || body["senha"] != "pw" {
				t.Errorf("admin body = %v", body)
			}
			_, _ = io.WriteString(w, `{"success":true,"token":"tok"}`)
		case "/api/auth/cliente/login":
			if body["cpf"] != "123" {
				t.Errorf("client body = %v", body)
			}
			_, _ = io.WriteString(w, `{"success":false}`)
		default:
			t.Errorf("path = %s", r.URL.Path)
		}
	})
	ctx := context.Background()

	res, err := c.AdminLogin(ctx, "a@b.c", "pw")
	if err != nil || !res.OK() || res.Token != "tok" {
		t.Errorf("AdminLogin = %+v, %v", res, err)
	}
	res, err = c.ClientLogin(ctx, "123", "pw")
	if err != nil || res.OK() {
		t.Errorf("ClientLogin = %+v, %v", res, err)
	}
}

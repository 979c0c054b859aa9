package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

const (
	ClientActive     ClientStatus = "ativo"
	ClientPending    ClientStatus = "pendente"
	ClientDelinquent ClientStatus = "inadimplente"
	ClientInactive   ClientStatus = "inativo"
)

const (
	LoanActive   LoanStatus = "ativo"
	LoanPaid     LoanStatus = "pago"
	LoanPending  LoanStatus = "pendente"
	LoanInactive LoanStatus = "inativo"
)

const (
	InstallmentScheduled InstallmentStatus = "agendada"
	InstallmentPending   InstallmentStatus = "pendente"
	InstallmentPaid      InstallmentStatus = "paga"
	InstallmentSent      InstallmentStatus = "enviado"
)

// Entities exchanged with the remote API, with their JSON field names.
type (
	// ID is an entity identifier. The remote service sends ids either as JSON
	// numbers or strings; both decode to the same textual form.
	ID string

	ClientStatus      string
	LoanStatus        string
	InstallmentStatus string

	// DocumentRef is a URL to an uploaded document (image or PDF).
	DocumentRef string

	Client struct {
		ID                  ID           `json:"id_cliente,omitempty"`
		Name                string       `json:"nome"`
		Email               string       `json:"email"`
		Phone               string       `json:"telefone"`
		CPF                 string       `json:"cpf"`
		Address             string       `json:"endereco"`
		Car                 string       `json:"carro"`
		CarPlate            string       `json:"placa_carro"`
		CarRented           bool         `json:"carro_alugado"`
		RentalContract      DocumentRef  `json:"contrato_aluguel"`
		ResidentialLocation string       `json:"localizacao_residencial"`
		ProofOfResidence    DocumentRef  `json:"comprovante_residencial"`
		PixKey              string       `json:"chave_pix"`
		FamilyContact       string       `json:"contato_familiar"`
		SelfieDocument      DocumentRef  `json:"foto_documento_selfie"`
		Status              ClientStatus `json:"status_cliente"`
		Delinquent          bool         `json:"red_cliente"`
		PaymentProviderID   string       `json:"asaas_id,omitempty"`
		Loans               []Loan       `json:"emprestimos,omitempty"`
	}

	Loan struct {
		ID                ID            `json:"id_emprestimo,omitempty"`
		ClientID          ID            `json:"id_cliente"`
		Principal         float64       `json:"valor_emprestimo"`
		InstallmentCount  int           `json:"quantidade_parcelas"`
		InterestRate      float64       `json:"taxa_juros"`
		Status            LoanStatus    `json:"status_emprestimo"`
		WeekendNotice     bool          `json:"notification_fds"`
		TotalWithInterest float64       `json:"valor_total_com_juros,omitempty"`
		Installments      []Installment `json:"parcelas,omitempty"`
	}

	Installment struct {
		ID                ID                `json:"id_parcela"`
		LoanID            ID                `json:"id_emprestimo"`
		Number            int               `json:"numero_parcela"`
		Amount            float64           `json:"valor_parcela"`
		DueDate           string            `json:"data_vencimento"`
		Status            InstallmentStatus `json:"status_pagamento"`
		PaidAt            *string           `json:"data_pagamento"`
		CreatedAt         string            `json:"data_criacao"`
		PaymentProviderID *string           `json:"asaas_payment_id"`
		PixPayload        *string           `json:"pix_payload"`
		WeekendNotice     bool              `json:"notification_fds"`
	}
)

var (
	ErrEmptyName         = errors.New("empty client name")
	ErrEmptyCPF          = errors.New("empty client tax id")
	ErrMissingClient     = errors.New("loan without client")
	ErrInvalidPrincipal  = errors.New("invalid loan amount")
	ErrInvalidInstalment = errors.New("invalid installment count")
)

// UnmarshalJSON accepts a JSON string, number or null.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// MarshalJSON emits numeric ids as JSON numbers so the remote service keeps
// receiving the type it issued.
func (id ID) MarshalJSON() ([]byte, error) {
	if id.numeric() {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

// numeric reports whether id is a canonical unsigned integer. Digit strings
// with leading zeros stay strings so they survive a round trip unchanged.
func (id ID) numeric() bool {
	n, err := strconv.ParseUint(string(id), 10, 64)
	return err == nil && strconv.FormatUint(n, 10) == string(id)
}

func (id ID) String() string { return string(id) }

// Same compares ids on their textual form.
func (id ID) Same(other ID) bool {
	return strings.TrimSpace(string(id)) == strings.TrimSpace(string(other))
}

// Kind reports "pdf", "image" or "" when no document was uploaded.
func (d DocumentRef) Kind() string {
	s := strings.TrimSpace(string(d))
	switch {
	case s == "":
		return ""
	case strings.HasSuffix(strings.ToLower(s), ".pdf"):
		return "pdf"
	default:
		return "image"
	}
}

// Canonical folds the legacy "pago" spelling used on some installments.
func (s InstallmentStatus) Canonical() InstallmentStatus {
	if s == "pago" {
		return InstallmentPaid
	}
	return s
}

// Known reports whether s is one of the four client statuses.
func (s ClientStatus) Known() bool {
	switch s {
	case ClientActive, ClientPending, ClientDelinquent, ClientInactive:
		return true
	}
	return false
}

// IsDelinquent is the read-side view: the server's flag, independent of status.
func (c Client) IsDelinquent() bool {
	return c.Delinquent
}

// SetStatus changes the status and derives the delinquency flag from it.
func (c *Client) SetStatus(s ClientStatus) {
	c.Status = s
	c.Delinquent = s == ClientDelinquent
}

// SetDelinquent toggles delinquency. Clearing it restores an active status.
func (c *Client) SetDelinquent(on bool) {
	if on {
		c.SetStatus(ClientDelinquent)
		return
	}
	if c.Status == ClientDelinquent {
		c.SetStatus(ClientActive)
		return
	}
	c.Delinquent = false
}

// Normalize reconciles the flag and the status before a write so that the
// flag is set exactly when the status reads delinquent.
func (c *Client) Normalize() {
	if c.Delinquent && c.Status != ClientDelinquent {
		c.Status = ClientDelinquent
	}
	c.Delinquent = c.Status == ClientDelinquent
	c.Phone = NormalizePhone(c.Phone)
}

// Validate checks the fields the remote API requires on create and update.
func (c Client) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if strings.TrimSpace(c.CPF) == "" {
		return ErrEmptyCPF
	}
	return nil
}

// NewLoan builds a loan request with its total computed from the rate.
func NewLoan(clientID ID, principal float64, installments int, rate float64, weekendNotice bool) Loan {
	return Loan{
		ClientID:          clientID,
		Principal:         principal,
		InstallmentCount:  installments,
		InterestRate:      rate,
		Status:            LoanActive,
		WeekendNotice:     weekendNotice,
		TotalWithInterest: TotalWithInterest(principal, rate),
	}
}

// Validate rejects loan requests the remote API would refuse.
func (l Loan) Validate() error {
	if strings.TrimSpace(string(l.ClientID)) == "" {
		return ErrMissingClient
	}
	if l.Principal <= 0 {
		return ErrInvalidPrincipal
	}
	if l.InstallmentCount < 1 {
		return ErrInvalidInstalment
	}
	return nil
}

// HasInstallmentStatus reports whether any installment carries s.
func (l Loan) HasInstallmentStatus(s InstallmentStatus) bool {
	want := s.Canonical()
	for _, p := range l.Installments {
		if p.Status.Canonical() == want {
			return true
		}
	}
	return false
}

// SortInstallments returns a copy ordered by installment number.
func SortInstallments(in []Installment) []Installment {
	out := make([]Installment, len(in))
	copy(out, in)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}

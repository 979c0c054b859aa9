package http

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"painel/internal/api"
	"painel/internal/core"
)

const (
	maxJSONBody      = 1 << 20
	maxMultipartBody = 32 << 20
)

// bodyParser reads small command bodies sent either as JSON objects or as
// url-encoded forms.
type bodyParser struct {
	jsonData map[string]any
	formData url.Values
}

func parseBody(w http.ResponseWriter, r *http.Request) (*bodyParser, error) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err != nil {
		return nil, badRequest{"corpo da requisição inválido"}
	}
	p := &bodyParser{}
	trimmed := strings.TrimSpace(string(raw))
	if strings.HasPrefix(trimmed, "{") {
		dec := json.NewDecoder(strings.NewReader(trimmed))
		dec.UseNumber()
		if err := dec.Decode(&p.jsonData); err != nil {
			return nil, badRequest{"JSON inválido"}
		}
		return p, nil
	}
	if p.formData, err = url.ParseQuery(trimmed); err != nil {
		return nil, badRequest{"formulário inválido"}
	}
	return p, nil
}

func (p *bodyParser) Get(key string) string {
	if p.jsonData != nil {
		if v, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(v))
		}
		return ""
	}
	return sanitizeInput(p.formData.Get(key))
}

func (p *bodyParser) Bool(key string) (bool, error) {
	v := p.Get(key)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, badRequest{key + " deve ser true ou false"}
	}
	return b, nil
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// sanitizeInput drops control characters except tab and line breaks.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// clientPayload is a client plus the uploaded documents of a multipart
// request. Close releases the uploads.
type clientPayload struct {
	Client  core.Client
	Uploads []api.Upload
	closers []io.Closer
	form    *multipart.Form
}

func (p *clientPayload) Close() {
	for _, c := range p.closers {
		c.Close()
	}
	if p.form != nil {
		_ = p.form.RemoveAll()
	}
}

// decodeClient reads a client from a JSON body or a multipart form.
func decodeClient(w http.ResponseWriter, r *http.Request) (*clientPayload, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return decodeClientMultipart(w, r)
	}
	var c core.Client
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(&c); err != nil {
		return nil, badRequest{"JSON de cliente inválido"}
	}
	return &clientPayload{Client: c}, nil
}

func decodeClientMultipart(w http.ResponseWriter, r *http.Request) (*clientPayload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxMultipartBody)
	if err := r.ParseMultipartForm(maxMultipartBody); err != nil {
		return nil, badRequest{"formulário multipart inválido"}
	}
	v := r.MultipartForm.Value
	get := func(k string) string {
		if vals := v[k]; len(vals) > 0 {
			return sanitizeInput(vals[0])
		}
		return ""
	}
	rented, _ := strconv.ParseBool(get("carro_alugado"))
	red, _ := strconv.ParseBool(get("red_cliente"))

	p := &clientPayload{
		form: r.MultipartForm,
		Client: core.Client{
			Name:                get("nome"),
			Email:               get("email"),
			Phone:               get("telefone"),
			CPF:                 get("cpf"),
			Address:             get("endereco"),
			Car:                 get("carro"),
			CarPlate:            get("placa_carro"),
			CarRented:           rented,
			ResidentialLocation: get("localizacao_residencial"),
			PixKey:              get("chave_pix"),
			FamilyContact:       get("contato_familiar"),
			Status:              core.ClientStatus(get("status_cliente")),
			Delinquent:          red,
		},
	}
	for _, field := range []api.DocumentField{api.FieldRentalContract, api.FieldProofOfResidence, api.FieldSelfie} {
		f, fh, err := r.FormFile(string(field))
		if errors.Is(err, http.ErrMissingFile) {
			continue
		}
		if err != nil {
			p.Close()
			return nil, badRequest{"arquivo inválido: " + string(field)}
		}
		p.closers = append(p.closers, f)
		p.Uploads = append(p.Uploads, api.Upload{Field: field, Filename: fh.Filename, Content: f})
	}
	return p, nil
}

func pathID(r *http.Request) (core.ID, error) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		return "", badRequest{"id ausente"}
	}
	return core.ID(id), nil
}

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"sort"
	"strconv"

	"painel/internal/core"
)

// DocumentField names the multipart fields that may carry a file.
type DocumentField string

const (
	FieldRentalContract   DocumentField = "contrato_aluguel"
	FieldProofOfResidence DocumentField = "comprovante_residencial"
	FieldSelfie           DocumentField = "foto_documento_selfie"
)

// Upload is one document file attached to a client create.
type Upload struct {
	Field    DocumentField
	Filename string
	Content  io.Reader
}

func isDocumentField(key string) bool {
	switch DocumentField(key) {
	case FieldRentalContract, FieldProofOfResidence, FieldSelfie:
		return true
	}
	return false
}

// ListClients returns every client.
func (c *Client) ListClients(ctx context.Context) ([]core.Client, error) {
	var out []core.Client
	if err := c.doJSON(ctx, http.MethodGet, "/clientes", nil, &out, EntityClient, OpList); err != nil {
		return nil, err
	}
	if out == nil {
		out = []core.Client{}
	}
	return out, nil
}

func (c *Client) GetClient(ctx context.Context, id core.ID) (core.Client, error) {
	var out core.Client
	err := c.doJSON(ctx, http.MethodGet, "/clientes/"+url.PathEscape(id.String()), nil, &out, EntityClient, OpGet)
	return out, err
}

func (c *Client) GetClientByCPF(ctx context.Context, cpf string) (core.Client, error) {
	var out core.Client
	err := c.doJSON(ctx, http.MethodGet, "/clientes/cpf/"+url.PathEscape(cpf), nil, &out, EntityClient, OpGetByCPF)
	return out, err
}

// CreateClient posts the record as JSON. Use CreateClientMultipart when
// document files are attached.
func (c *Client) CreateClient(ctx context.Context, client core.Client) (core.Client, error) {
	var out core.Client
	err := c.doJSON(ctx, http.MethodPost, "/clientes", client, &out, EntityClient, OpCreate)
	return out, err
}

// CreateClientMultipart posts the record as multipart/form-data. Document
// fields are sent only as files; their URL values are dropped.
func (c *Client) CreateClientMultipart(ctx context.Context, client core.Client, files []Upload) (core.Client, error) {
	body, contentType, err := encodeClientForm(client, files)
	if err != nil {
		return core.Client{}, &OperationError{Entity: EntityClient, Op: OpCreate, Err: err}
	}
	var out core.Client
	err = c.do(ctx, http.MethodPost, "/clientes", body, contentType, &out, EntityClient, OpCreate)
	return out, err
}

func (c *Client) UpdateClient(ctx context.Context, id core.ID, client core.Client) (core.Client, error) {
	var out core.Client
	err := c.doJSON(ctx, http.MethodPut, "/clientes/"+url.PathEscape(id.String()), client, &out, EntityClient, OpUpdate)
	return out, err
}

func (c *Client) DeleteClient(ctx context.Context, id core.ID) error {
	return c.doJSON(ctx, http.MethodDelete, "/clientes/"+url.PathEscape(id.String()), nil, nil, EntityClient, OpDelete)
}

func encodeClientForm(client core.Client, files []Upload) (*bytes.Buffer, string, error) {
	raw, err := json.Marshal(client)
	if err != nil {
		return nil, "", fmt.Errorf("encode client: %w", err)
	}
	fields := map[string]any{}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&fields); err != nil {
		return nil, "", fmt.Errorf("encode client: %w", err)
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		if !isDocumentField(k) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	for _, k := range keys {
		if err := mw.WriteField(k, formValue(fields[k])); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", k, err)
		}
	}
	for _, f := range files {
		if f.Content == nil {
			continue
		}
		part, err := mw.CreateFormFile(string(f.Field), f.Filename)
		if err != nil {
			return nil, "", fmt.Errorf("create file part %s: %w", f.Field, err)
		}
		if _, err := io.Copy(part, f.Content); err != nil {
			return nil, "", fmt.Errorf("copy file %s: %w", f.Field, err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart: %w", err)
	}
	return buf, mw.FormDataContentType(), nil
}

func formValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case json.Number:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

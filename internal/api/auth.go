package api

import (
	"context"
	"encoding/json"
	"net/http"
)

// LoginResult is the body of both login endpoints.
type LoginResult struct {
	Success bool            `json:"success"`
	Token   string          `json:"token,omitempty"`
	User    json.RawMessage `json:"usuario,omitempty"`
}

// OK reports a successful login that issued a token.
func (r LoginResult) OK() bool {
	return r.Success && r.Token != ""
}

type adminCredentials struct {
	Email    string `json:"email"`
	Password string `json:"senha"`
}

type clientCredentials struct {
	CPF      string `json:"cpf"`
	Password string `json:"senha"`
}

func (c *Client) AdminLogin(ctx context.Context, email, password string) (LoginResult, error) {
	var out LoginResult
	err := c.doJSON(ctx, http.MethodPost, "/auth/admin/login", adminCredentials{Email: email, Password: password}, &out, EntityAuth, OpLogin)
	return out, err
}

func (c *Client) ClientLogin(ctx context.Context, cpf, password string) (LoginResult, error) {
	var out LoginResult
	err := c.doJSON(ctx, http.MethodPost, "/auth/cliente/login", clientCredentials{CPF: cpf, Password: password}, &out, EntityAuth, OpLogin)
	return out, err
}

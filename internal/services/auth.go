package services

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"painel/internal/api"
	"painel/internal/log"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrMissingCredentials = errors.New("missing credentials")
)

// ClientLogin is a successful client login: the token plus the raw profile
// the service returned.
type ClientLogin struct {
	Token   string
	Profile json.RawMessage
}

// AuthService forwards logins to the remote API.
type AuthService struct {
	api AuthAPI
}

// NewAuthService returns a service logging in through a.
func NewAuthService(a AuthAPI) *AuthService {
	return &AuthService{api: a}
}

// AdminLogin returns the admin token.
func (s *AuthService) AdminLogin(ctx context.Context, email, password string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return "", ErrMissingCredentials
	}
	res, err := s.api.AdminLogin(ctx, email, password)
	if err = loginError(ctx, res, err); err != nil {
		return "", err
	}
	slog.InfoContext(ctx, "Admin signed in", log.FieldComponent, log.ComponentSession)
	return res.Token, nil
}

// ClientLogin returns the client token and profile. The tax id is sent with
// punctuation stripped.
func (s *AuthService) ClientLogin(ctx context.Context, cpf, password string) (ClientLogin, error) {
	cpf = digitsOnly(cpf)
	if cpf == "" || password == "" {
		return ClientLogin{}, ErrMissingCredentials
	}
	res, err := s.api.ClientLogin(ctx, cpf, password)
	if err = loginError(ctx, res, err); err != nil {
		return ClientLogin{}, err
	}
	if len(res.User) == 0 {
		return ClientLogin{}, ErrInvalidCredentials
	}
	slog.InfoContext(ctx, "Client signed in", log.FieldComponent, log.ComponentSession)
	return ClientLogin{Token: res.Token, Profile: res.User}, nil
}

func loginError(ctx context.Context, res api.LoginResult, err error) error {
	if err != nil {
		if api.IsStatus(err, http.StatusUnauthorized) || api.IsStatus(err, http.StatusBadRequest) {
			return ErrInvalidCredentials
		}
		log.LogRemoteFailure(ctx, api.EntityAuth, api.OpLogin, err)
		return err
	}
	if !res.OK() {
		return ErrInvalidCredentials
	}
	return nil
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

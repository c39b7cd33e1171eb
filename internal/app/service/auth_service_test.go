package service

import (
	"context"
	"testing"
	"time"

	"cf_stats/internal/common"
	"cf_stats/internal/common/security"
	"cf_stats/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAuthService(t *testing.T, password string) *AuthService {
	t.Helper()
	hash := ""
	if password != "" {
		var err error
		hash, err = security.HashPassword(password)
		require.NoError(t, err)
	}
	svc := NewAuthService("admin", hash)
	auth := security.NewTokenAuth([]byte("test-secret"))
	svc.issue = func(subject, role string) (string, error) {
		return security.IssueToken(auth, subject, role, time.Hour)
	}
	return svc
}

func TestLoginIssuesAdminToken(t *testing.T) {
	svc := newTestAuthService(t, "s3cret")

	resp, err := svc.Login(context.Background(), LoginRequest{Username: "admin", Password: "s3cret"})
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, resp.Role)
	assert.NotEmpty(t, resp.Token)
}

func TestLoginRejections(t *testing.T) {
	tests := map[string]struct {
		password string
		req      LoginRequest
		want     error
	}{
		"missing fields": {password: "s3cret", req: LoginRequest{Username: "admin"}, want: common.ErrBadRequest},
		"wrong password": {password: "s3cret", req: LoginRequest{Username: "admin", Password: "nope"}, want: common.ErrUnauthorized},
		"wrong username": {password: "s3cret", req: LoginRequest{Username: "root", Password: "s3cret"}, want: common.ErrUnauthorized},
		"login disabled": {password: "", req: LoginRequest{Username: "admin", Password: "anything"}, want: common.ErrUnauthorized},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := newTestAuthService(t, tc.password).Login(context.Background(), tc.req)
			require.ErrorIs(t, err, tc.want)
		})
	}
}

package service

import (
	"context"
	"crypto/subtle"
	"fmt"

	"cf_stats/internal/common"
	"cf_stats/internal/common/security"
	"cf_stats/internal/domain/model"
	"cf_stats/internal/platform/logger"

	"go.uber.org/zap"
)

// AuthService authenticates the single configured admin account.
type AuthService struct {
	adminUsername     string
	adminPasswordHash string
	issue             func(subject, role string) (string, error)
}

func NewAuthService(adminUsername, adminPasswordHash string) *AuthService {
	return &AuthService{
		adminUsername:     adminUsername,
		adminPasswordHash: adminPasswordHash,
		issue:             security.GenerateToken,
	}
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	Token    string `json:"token"`
}

func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	if req.Username == "" || req.Password == "" {
		return nil, common.ErrBadRequest
	}
	// An empty hash disables admin login entirely.
	if s.adminPasswordHash == "" {
		return nil, common.ErrUnauthorized
	}

	userOK := subtle.ConstantTimeCompare([]byte(req.Username), []byte(s.adminUsername)) == 1
	passOK := security.CheckPasswordHash(req.Password, s.adminPasswordHash)
	if !userOK || !passOK {
		logger.Warn(ctx, "admin login rejected", zap.String("username", req.Username))
		return nil, common.ErrUnauthorized
	}

	token, err := s.issue(s.adminUsername, model.RoleAdmin)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	logger.Info(ctx, "admin logged in", zap.String("username", s.adminUsername))
	return &AuthResponse{Username: s.adminUsername, Role: model.RoleAdmin, Token: token}, nil
}

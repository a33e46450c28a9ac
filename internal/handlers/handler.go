package handlers

import (
	"context"
	"log/slog"

	"urldash/internal/config"
	"urldash/internal/repository"
	"urldash/internal/services"
)

// OIDCProvider performs the authorization code flow against the identity
// provider.
type OIDCProvider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*services.OIDCIdentity, error)
}

type Handler struct {
	cfg          config.Config
	logger       *slog.Logger
	repos        *repository.Repositories
	authService  *services.AuthService
	userService  *services.UserService
	auditService *services.AuditService
	qrService    *services.QRService
	oidc         OIDCProvider
}

func NewHandler(
	cfg config.Config,
	logger *slog.Logger,
	repos *repository.Repositories,
	authService *services.AuthService,
	userService *services.UserService,
	auditService *services.AuditService,
	qrService *services.QRService,
	oidc OIDCProvider,
) *Handler {
	return &Handler{
		cfg:          cfg,
		logger:       logger,
		repos:        repos,
		authService:  authService,
		userService:  userService,
		auditService: auditService,
		qrService:    qrService,
		oidc:         oidc,
	}
}

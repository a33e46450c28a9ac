package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"urldash/internal/models"
	"urldash/internal/repository"
	"urldash/pkg/utils"
)

const MinPasswordLength = 8

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTooManyAttempts    = errors.New("too many failed login attempts")
)

type AuthService struct {
	users    *repository.UsersRepository
	throttle *LoginThrottle
	audit    *AuditService
	logger   *slog.Logger
}

func NewAuthService(users *repository.UsersRepository, throttle *LoginThrottle, audit *AuditService, logger *slog.Logger) *AuthService {
	return &AuthService{
		users:    users,
		throttle: throttle,
		audit:    audit,
		logger:   logger,
	}
}

// Login checks a username and password. Accounts provisioned through OIDC
// have no password and never match.
func (s *AuthService) Login(ctx context.Context, username, password string, client ClientInfo) (*models.User, error) {
	username = strings.TrimSpace(username)
	if s.throttle.Locked(ctx, username) {
		s.audit.LogAction(AuditEntry{
			Action:       ActionLoginLocked,
			ResourceType: "user",
			Details:      map[string]string{"username": username},
			Client:       client,
		})
		return nil, ErrTooManyAttempts
	}

	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil || !utils.CheckPasswordHash(password, user.PasswordHash) {
		s.throttle.RecordFailure(ctx, username)
		entry := AuditEntry{
			Action:       ActionLoginFailed,
			ResourceType: "user",
			Details:      map[string]string{"username": username},
			Client:       client,
		}
		if user != nil {
			entry.UserID = &user.ID
			entry.ResourceID = user.PublicID
		}
		s.audit.LogAction(entry)
		return nil, ErrInvalidCredentials
	}

	s.throttle.Reset(ctx, username)
	s.audit.LogAction(AuditEntry{
		UserID:       &user.ID,
		Action:       ActionLogin,
		ResourceType: "user",
		ResourceID:   user.PublicID,
		Client:       client,
	})
	return user, nil
}

// ChangePassword replaces the caller's password and clears the temporary
// password flag.
func (s *AuthService) ChangePassword(ctx context.Context, userID, current, next string, client ClientInfo) (*models.User, error) {
	user, err := s.users.FindByPublicID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, &repository.NotFoundError{Entity: "user", ID: userID}
	}
	if user.IsOidc() {
		return nil, &repository.ValidationError{Msg: "password is managed by the identity provider"}
	}
	if !utils.CheckPasswordHash(current, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	if err := validatePassword(next); err != nil {
		return nil, err
	}
	if next == current {
		return nil, &repository.ValidationError{Msg: "new password must differ from the current one"}
	}

	hash, err := utils.HashPassword(next)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	temp := false
	updated, err := s.users.UpdateUser(ctx, userID, repository.UserPatch{PasswordHash: &hash, TempPassword: &temp})
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, &repository.NotFoundError{Entity: "user", ID: userID}
	}

	s.audit.LogAction(AuditEntry{
		UserID:       &updated.ID,
		Action:       ActionPasswordChanged,
		ResourceType: "user",
		ResourceID:   updated.PublicID,
		Client:       client,
	})
	return updated, nil
}

// ResolveOidcUser returns the account linked to the identity's subject,
// provisioning a managed user on first sign-in.
func (s *AuthService) ResolveOidcUser(ctx context.Context, identity OIDCIdentity, client ClientInfo) (*models.User, error) {
	user, err := s.users.FindByOidcSubject(ctx, identity.Subject)
	if err != nil {
		return nil, err
	}

	if user == nil {
		username, err := s.availableUsername(ctx, identity)
		if err != nil {
			return nil, err
		}
		data := repository.CreateOidcUserData{
			Username:    username,
			Role:        models.RoleManagedUser,
			OidcSubject: identity.Subject,
		}
		if identity.DisplayName != "" {
			name := identity.DisplayName
			data.DisplayName = &name
		}
		user, err = s.users.CreateOidcUser(ctx, data)
		if err != nil {
			return nil, err
		}
		s.logger.Info("Provisioned OIDC user", "username", user.Username)
		s.audit.LogAction(AuditEntry{
			UserID:       &user.ID,
			Action:       ActionUserCreated,
			ResourceType: "user",
			ResourceID:   user.PublicID,
			Details:      map[string]string{"provider": "oidc"},
			Client:       client,
		})
	}

	s.audit.LogAction(AuditEntry{
		UserID:       &user.ID,
		Action:       ActionLogin,
		ResourceType: "user",
		ResourceID:   user.PublicID,
		Details:      map[string]string{"provider": "oidc"},
		Client:       client,
	})
	return user, nil
}

// availableUsername avoids clashing with an existing local account.
func (s *AuthService) availableUsername(ctx context.Context, identity OIDCIdentity) (string, error) {
	existing, err := s.users.FindByUsername(ctx, identity.Username)
	if err != nil {
		return "", err
	}
	if existing == nil {
		return identity.Username, nil
	}
	suffix := identity.Subject
	if len(suffix) > 8 {
		suffix = suffix[:8]
	}
	return identity.Username + "-" + suffix, nil
}

func validatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return &repository.ValidationError{Msg: fmt.Sprintf("password must be at least %d characters", MinPasswordLength)}
	}
	if len(password) > 72 {
		return &repository.ValidationError{Msg: "password must be at most 72 bytes"}
	}
	return nil
}

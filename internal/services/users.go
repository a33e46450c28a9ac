package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"urldash/internal/models"
	"urldash/internal/repository"
	"urldash/pkg/utils"
)

const tempPasswordLength = 16

type CreateUserInput struct {
	Username    string
	DisplayName *string
	Role        models.Role
}

// EditUserInput lists the fields an admin may change; nil fields are left
// untouched.
type EditUserInput struct {
	DisplayName *string
	Role        *models.Role
}

// UserService implements account administration on top of the users and
// servers repositories. Every operation takes the acting admin.
type UserService struct {
	users   *repository.UsersRepository
	servers *repository.ServersRepository
	audit   *AuditService
	logger  *slog.Logger
}

func NewUserService(users *repository.UsersRepository, servers *repository.ServersRepository, audit *AuditService, logger *slog.Logger) *UserService {
	return &UserService{
		users:   users,
		servers: servers,
		audit:   audit,
		logger:  logger,
	}
}

func (s *UserService) ListUsers(ctx context.Context, opts repository.ListOptions) ([]models.User, int64, error) {
	return s.users.FindAndCountUsers(ctx, opts)
}

// CreateUser creates a local account with a generated temporary password,
// which is returned once and never stored in clear.
func (s *UserService) CreateUser(ctx context.Context, actor *models.User, in CreateUserInput, client ClientInfo) (*models.User, string, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" {
		return nil, "", &repository.ValidationError{Msg: "username is required"}
	}
	if _, err := models.ParseRole(string(in.Role)); err != nil {
		return nil, "", &repository.ValidationError{Msg: err.Error()}
	}
	existing, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, "", err
	}
	if existing != nil {
		return nil, "", &repository.ValidationError{Msg: fmt.Sprintf("username %q is already taken", username)}
	}

	password, hash, err := newTempPassword()
	if err != nil {
		return nil, "", err
	}
	user, err := s.users.CreateUser(ctx, repository.CreateUserData{
		Username:     username,
		DisplayName:  normalizeDisplayName(in.DisplayName),
		Role:         in.Role,
		PasswordHash: hash,
		TempPassword: true,
	})
	if err != nil {
		return nil, "", err
	}

	s.logAdminAction(actor, ActionUserCreated, user.PublicID, map[string]string{"username": user.Username, "role": string(user.Role)}, client)
	return user, password, nil
}

// ResetPassword issues a new temporary password for a local account.
func (s *UserService) ResetPassword(ctx context.Context, actor *models.User, userID string, client ClientInfo) (string, error) {
	user, err := s.requireUser(ctx, userID)
	if err != nil {
		return "", err
	}
	if user.IsOidc() {
		return "", &repository.ValidationError{Msg: "password is managed by the identity provider"}
	}

	password, hash, err := newTempPassword()
	if err != nil {
		return "", err
	}
	temp := true
	if _, err := s.users.UpdateUser(ctx, userID, repository.UserPatch{PasswordHash: &hash, TempPassword: &temp}); err != nil {
		return "", err
	}

	s.logAdminAction(actor, ActionPasswordReset, userID, nil, client)
	return password, nil
}

func (s *UserService) EditUser(ctx context.Context, actor *models.User, userID string, in EditUserInput, client ClientInfo) (*models.User, error) {
	user, err := s.requireUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if in.Role != nil {
		if _, err := models.ParseRole(string(*in.Role)); err != nil {
			return nil, &repository.ValidationError{Msg: err.Error()}
		}
		if *in.Role != user.Role && actor.PublicID == userID {
			return nil, &repository.ValidationError{Msg: "you cannot change your own role"}
		}
	}

	updated, err := s.users.UpdateUser(ctx, userID, repository.UserPatch{
		DisplayName: trimmed(in.DisplayName),
		Role:        in.Role,
	})
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, &repository.NotFoundError{Entity: "user", ID: userID}
	}

	s.logAdminAction(actor, ActionUserUpdated, userID, nil, client)
	return updated, nil
}

func (s *UserService) DeleteUser(ctx context.Context, actor *models.User, userID string, client ClientInfo) error {
	if actor.PublicID == userID {
		return &repository.ValidationError{Msg: "you cannot delete your own account"}
	}
	deleted, err := s.users.DeleteUser(ctx, userID)
	if err != nil {
		return err
	}
	if !deleted {
		return &repository.NotFoundError{Entity: "user", ID: userID}
	}

	s.logAdminAction(actor, ActionUserDeleted, userID, nil, client)
	return nil
}

// SetServers replaces the servers assigned to a managed user.
func (s *UserService) SetServers(ctx context.Context, actor *models.User, userID string, serverIDs []string, client ClientInfo) error {
	if err := s.servers.SetServersForUser(ctx, userID, serverIDs); err != nil {
		return err
	}
	s.logAdminAction(actor, ActionServersAssigned, userID, map[string]any{"servers": serverIDs}, client)
	return nil
}

func (s *UserService) requireUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.users.FindByPublicID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, &repository.NotFoundError{Entity: "user", ID: userID}
	}
	return user, nil
}

func (s *UserService) logAdminAction(actor *models.User, action, userID string, details any, client ClientInfo) {
	s.audit.LogAction(AuditEntry{
		UserID:       &actor.ID,
		Action:       action,
		ResourceType: "user",
		ResourceID:   userID,
		Details:      details,
		Client:       client,
	})
}

func newTempPassword() (password, hash string, err error) {
	password, err = utils.GenerateTempPassword(tempPasswordLength)
	if err != nil {
		return "", "", fmt.Errorf("failed to generate password: %w", err)
	}
	hash, err = utils.HashPassword(password)
	if err != nil {
		return "", "", fmt.Errorf("failed to hash password: %w", err)
	}
	return password, hash, nil
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	return &t
}

func normalizeDisplayName(s *string) *string {
	t := trimmed(s)
	if t == nil || *t == "" {
		return nil
	}
	return t
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"urldash/internal/models"
	"urldash/pkg/utils"
)

var userOrderColumns = map[string]string{
	"username":    "users.username",
	"displayName": "users.display_name",
	"role":        "users.role",
	"createdAt":   "users.created_at",
}

type CreateUserData struct {
	Username     string
	DisplayName  *string
	Role         models.Role
	PasswordHash string
	TempPassword bool
}

type CreateOidcUserData struct {
	Username    string
	DisplayName *string
	Role        models.Role
	OidcSubject string
}

// UserPatch lists the fields to change; nil fields are left untouched. An
// empty DisplayName clears it.
type UserPatch struct {
	DisplayName  *string
	Role         *models.Role
	PasswordHash *string
	TempPassword *bool
}

type UsersRepository struct {
	store DataStore
	newID func() string
	now   func() time.Time
}

func NewUsersRepository(store DataStore) *UsersRepository {
	return &UsersRepository{
		store: store,
		newID: utils.GeneratePublicID,
		now:   time.Now,
	}
}

// FindAndCountUsers returns a page of users and the number of users matching
// the search, regardless of paging.
func (r *UsersRepository) FindAndCountUsers(ctx context.Context, opts ListOptions) ([]models.User, int64, error) {
	q := Query{
		AnyOf:  searchConds(opts.SearchTerm, "users.username", "users.display_name"),
		Order:  resolveOrder(opts.OrderBy, userOrderColumns, Order{Column: "users.created_at", Desc: true}),
		Limit:  opts.Limit,
		Offset: opts.Offset,
	}

	var users []models.User
	if err := r.store.Find(ctx, &users, q); err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	total, err := r.store.Count(ctx, &models.User{}, q)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}
	return users, total, nil
}

func (r *UsersRepository) CreateUser(ctx context.Context, data CreateUserData) (*models.User, error) {
	user := &models.User{
		PublicID:     r.newID(),
		Username:     data.Username,
		DisplayName:  data.DisplayName,
		Role:         data.Role,
		PasswordHash: data.PasswordHash,
		TempPassword: data.TempPassword,
		CreatedAt:    r.now(),
	}
	if err := r.persist(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// CreateOidcUser provisions an account for an identity provider subject.
// These accounts have no local password.
func (r *UsersRepository) CreateOidcUser(ctx context.Context, data CreateOidcUserData) (*models.User, error) {
	subject := data.OidcSubject
	user := &models.User{
		PublicID:     r.newID(),
		Username:     data.Username,
		DisplayName:  data.DisplayName,
		Role:         data.Role,
		TempPassword: false,
		OidcSubject:  &subject,
		CreatedAt:    r.now(),
	}
	if err := r.persist(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (r *UsersRepository) persist(ctx context.Context, user *models.User) error {
	err := r.store.Transaction(ctx, func(tx DataStore) error {
		return tx.Create(ctx, user)
	})
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *UsersRepository) FindByPublicID(ctx context.Context, publicID string) (*models.User, error) {
	return findUser(ctx, r.store, Where("users.public_id = ?", publicID))
}

func (r *UsersRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return findUser(ctx, r.store, Where("users.username = ?", username))
}

func (r *UsersRepository) FindByOidcSubject(ctx context.Context, subject string) (*models.User, error) {
	return findUser(ctx, r.store, Where("users.oidc_subject = ?", subject))
}

// UpdateUser applies a partial update. It returns nil when the user does not
// exist. A role that cannot hold servers drops the user's assignments in the
// same transaction.
func (r *UsersRepository) UpdateUser(ctx context.Context, publicID string, patch UserPatch) (*models.User, error) {
	var updated *models.User
	err := r.store.Transaction(ctx, func(tx DataStore) error {
		user, err := findUser(ctx, tx, Where("users.public_id = ?", publicID))
		if err != nil || user == nil {
			return err
		}

		if patch.DisplayName != nil {
			if *patch.DisplayName == "" {
				user.DisplayName = nil
			} else {
				name := *patch.DisplayName
				user.DisplayName = &name
			}
		}
		if patch.Role != nil {
			if user.Role.CanHaveServersAssigned() && !patch.Role.CanHaveServersAssigned() {
				if err := tx.ClearAssociation(ctx, user, "Servers"); err != nil {
					return fmt.Errorf("failed to clear servers: %w", err)
				}
			}
			user.Role = *patch.Role
		}
		if patch.PasswordHash != nil {
			user.PasswordHash = *patch.PasswordHash
		}
		if patch.TempPassword != nil {
			user.TempPassword = *patch.TempPassword
		}

		if err := tx.Save(ctx, user); err != nil {
			return fmt.Errorf("failed to update user: %w", err)
		}
		updated = user
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteUser removes a user and its server assignments. Owned records
// cascade in the database.
func (r *UsersRepository) DeleteUser(ctx context.Context, publicID string) (bool, error) {
	deleted := false
	err := r.store.Transaction(ctx, func(tx DataStore) error {
		user, err := findUser(ctx, tx, Where("users.public_id = ?", publicID))
		if err != nil || user == nil {
			return err
		}
		if err := tx.ClearAssociation(ctx, user, "Servers"); err != nil {
			return fmt.Errorf("failed to clear servers: %w", err)
		}
		if err := tx.Delete(ctx, user); err != nil {
			return fmt.Errorf("failed to delete user: %w", err)
		}
		deleted = true
		return nil
	})
	return deleted, err
}

func findUser(ctx context.Context, store DataStore, cond Cond) (*models.User, error) {
	var user models.User
	err := store.First(ctx, &user, Query{Where: []Cond{cond}})
	if errors.Is(err, ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &user, nil
}

package repository

import (
	"context"
	"errors"
	"fmt"

	"urldash/internal/models"
	"urldash/pkg/utils"
)

// ownedByUser restricts a servers query to those assigned to a user.
const ownedByUser = "servers.id IN (SELECT su.server_id FROM servers_users su JOIN users u ON u.id = su.user_id WHERE u.public_id = ?)"

var serverOrderColumns = map[string]string{
	"name":    "servers.name",
	"baseUrl": "servers.base_url",
}

type ServerListOptions struct {
	ListOptions
	PopulateUsers bool
}

type CreateServerData struct {
	Name    string
	BaseURL string
	APIKey  string
}

// ServerPatch lists the fields to change; nil fields are left untouched.
type ServerPatch struct {
	Name    *string
	BaseURL *string
	APIKey  *string
}

type ServersRepository struct {
	store DataStore
	newID func() string
}

func NewServersRepository(store DataStore) *ServersRepository {
	return &ServersRepository{
		store: store,
		newID: utils.GeneratePublicID,
	}
}

// FindByPublicIDAndUserID returns the server only when it is assigned to the
// user. A server owned by someone else is reported the same as a missing one.
func (r *ServersRepository) FindByPublicIDAndUserID(ctx context.Context, serverID, userID string) (*models.Server, error) {
	return findOwnedServer(ctx, r.store, serverID, userID)
}

func (r *ServersRepository) FindByUserID(ctx context.Context, userID string, opts ServerListOptions) ([]models.Server, error) {
	q := Query{
		Where:  []Cond{Where(ownedByUser, userID)},
		AnyOf:  searchConds(opts.SearchTerm, "servers.name", "servers.base_url"),
		Order:  resolveOrder(opts.OrderBy, serverOrderColumns, Order{Column: "servers.name"}),
		Limit:  opts.Limit,
		Offset: opts.Offset,
	}
	if opts.PopulateUsers {
		q.Preload = []string{"Users"}
	}

	servers := []models.Server{}
	if err := r.store.Find(ctx, &servers, q); err != nil {
		return nil, fmt.Errorf("failed to list servers: %w", err)
	}
	return servers, nil
}

// CreateServer creates a server assigned to the given user. The user must
// exist.
func (r *ServersRepository) CreateServer(ctx context.Context, userID string, data CreateServerData) (*models.Server, error) {
	var server *models.Server
	err := r.store.Transaction(ctx, func(tx DataStore) error {
		user, err := findUser(ctx, tx, Where("users.public_id = ?", userID))
		if err != nil {
			return err
		}
		if user == nil {
			return &NotFoundError{Entity: "user", ID: userID}
		}

		server = &models.Server{
			PublicID: r.newID(),
			Name:     data.Name,
			BaseURL:  data.BaseURL,
			APIKey:   data.APIKey,
			Users:    []models.User{*user},
		}
		if err := tx.Create(ctx, server); err != nil {
			return fmt.Errorf("failed to create server: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return server, nil
}

// UpdateServer applies a partial update to a server owned by the user. It
// returns nil when there is no such server for this user.
func (r *ServersRepository) UpdateServer(ctx context.Context, serverID, userID string, patch ServerPatch) (*models.Server, error) {
	var updated *models.Server
	err := r.store.Transaction(ctx, func(tx DataStore) error {
		server, err := findOwnedServer(ctx, tx, serverID, userID)
		if err != nil || server == nil {
			return err
		}

		if patch.Name != nil {
			server.Name = *patch.Name
		}
		if patch.BaseURL != nil {
			server.BaseURL = *patch.BaseURL
		}
		if patch.APIKey != nil {
			server.APIKey = *patch.APIKey
		}

		if err := tx.Save(ctx, server); err != nil {
			return fmt.Errorf("failed to update server: %w", err)
		}
		updated = server
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteServer removes a server owned by the user. Records scoped to the
// server cascade in the database.
func (r *ServersRepository) DeleteServer(ctx context.Context, serverID, userID string) (bool, error) {
	deleted := false
	err := r.store.Transaction(ctx, func(tx DataStore) error {
		server, err := findOwnedServer(ctx, tx, serverID, userID)
		if err != nil || server == nil {
			return err
		}
		if err := tx.ClearAssociation(ctx, server, "Users"); err != nil {
			return fmt.Errorf("failed to clear users: %w", err)
		}
		if err := tx.Delete(ctx, server); err != nil {
			return fmt.Errorf("failed to delete server: %w", err)
		}
		deleted = true
		return nil
	})
	return deleted, err
}

// SetServersForUser replaces the whole server set of a managed user.
func (r *ServersRepository) SetServersForUser(ctx context.Context, userID string, serverIDs []string) error {
	return r.store.Transaction(ctx, func(tx DataStore) error {
		user, err := findUser(ctx, tx, Where("users.public_id = ?", userID))
		if err != nil {
			return err
		}
		if user == nil {
			return &NotFoundError{Entity: "user", ID: userID}
		}
		if !user.Role.CanHaveServersAssigned() {
			return &ValidationError{Msg: fmt.Sprintf("servers cannot be assigned to a user with role %q", user.Role)}
		}

		if err := tx.ClearAssociation(ctx, user, "Servers"); err != nil {
			return fmt.Errorf("failed to clear servers: %w", err)
		}
		if len(serverIDs) == 0 {
			return nil
		}

		var servers []models.Server
		if err := tx.Find(ctx, &servers, Query{Where: []Cond{Where("servers.public_id IN ?", serverIDs)}}); err != nil {
			return fmt.Errorf("failed to find servers: %w", err)
		}
		if len(servers) == 0 {
			return nil
		}
		if err := tx.AppendAssociation(ctx, user, "Servers", servers); err != nil {
			return fmt.Errorf("failed to assign servers: %w", err)
		}
		return nil
	})
}

func findOwnedServer(ctx context.Context, store DataStore, serverID, userID string) (*models.Server, error) {
	var server models.Server
	err := store.First(ctx, &server, Query{
		Where: []Cond{
			Where("servers.public_id = ?", serverID),
			Where(ownedByUser, userID),
		},
	})
	if errors.Is(err, ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find server: %w", err)
	}
	return &server, nil
}

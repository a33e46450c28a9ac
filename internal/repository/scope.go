package repository

import (
	"context"

	"urldash/internal/models"
)

// scope is the (user, server) pair an owned record belongs to.
type scope struct {
	User   *models.User
	Server *models.Server
}

// resolveScope returns nil when the user does not exist or the server is not
// assigned to them.
func resolveScope(ctx context.Context, store DataStore, userID, serverID string) (*scope, error) {
	user, err := findUser(ctx, store, Where("users.public_id = ?", userID))
	if err != nil || user == nil {
		return nil, err
	}
	server, err := findOwnedServer(ctx, store, serverID, userID)
	if err != nil || server == nil {
		return nil, err
	}
	return &scope{User: user, Server: server}, nil
}

func (s *scope) where() []Cond {
	return []Cond{
		Where("user_id = ?", s.User.ID),
		Where("server_id = ?", s.Server.ID),
	}
}

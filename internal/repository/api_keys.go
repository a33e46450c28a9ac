package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"urldash/internal/models"
	"urldash/pkg/utils"
)

type ApiKeyData struct {
	Name      string
	Key       string // only the hint is kept
	Service   string
	Tags      []string
	ExpiresAt *time.Time
}

type ApiKeyRegistryRepository struct {
	store DataStore
	newID func() string
	now   func() time.Time
}

func NewApiKeyRegistryRepository(store DataStore) *ApiKeyRegistryRepository {
	return &ApiKeyRegistryRepository{store: store, newID: utils.GeneratePublicID, now: time.Now}
}

func (r *ApiKeyRegistryRepository) ListApiKeys(ctx context.Context, userID, serverID string) ([]models.ApiKeyRegistry, error) {
	sc, err := resolveScope(ctx, r.store, userID, serverID)
	if err != nil || sc == nil {
		return nil, err
	}

	keys := []models.ApiKeyRegistry{}
	q := Query{Where: sc.where(), Order: []Order{{Column: "created_at", Desc: true}}}
	if err := r.store.Find(ctx, &keys, q); err != nil {
		return nil, fmt.Errorf("failed to list api keys: %w", err)
	}
	return keys, nil
}

func (r *ApiKeyRegistryRepository) RegisterApiKey(ctx context.Context, userID, serverID string, data ApiKeyData) (*models.ApiKeyRegistry, error) {
	if strings.TrimSpace(data.Name) == "" {
		return nil, &ValidationError{Msg: "api key name cannot be empty"}
	}
	tags := data.Tags
	if tags == nil {
		tags = []string{}
	}

	var key *models.ApiKeyRegistry
	err := r.store.Transaction(ctx, func(tx DataStore) error {
		sc, err := resolveScope(ctx, tx, userID, serverID)
		if err != nil || sc == nil {
			return err
		}
		key = &models.ApiKeyRegistry{
			PublicID:  r.newID(),
			UserID:    sc.User.ID,
			ServerID:  sc.Server.ID,
			Name:      strings.TrimSpace(data.Name),
			KeyHint:   utils.KeyHint(data.Key),
			Service:   data.Service,
			Tags:      tags,
			ExpiresAt: data.ExpiresAt,
			CreatedAt: r.now(),
		}
		if err := tx.Create(ctx, key); err != nil {
			return fmt.Errorf("failed to register api key: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return key, nil
}

// RecordApiKeyUsage bumps the usage counter. Expired keys are rejected.
func (r *ApiKeyRegistryRepository) RecordApiKeyUsage(ctx context.Context, userID, serverID, keyID string) (*models.ApiKeyRegistry, error) {
	var key *models.ApiKeyRegistry
	err := r.store.Transaction(ctx, func(tx DataStore) error {
		sc, err := resolveScope(ctx, tx, userID, serverID)
		if err != nil || sc == nil {
			return err
		}
		found, err := findApiKey(ctx, tx, sc, keyID)
		if err != nil || found == nil {
			return err
		}

		now := r.now()
		if found.Expired(now) {
			return &ValidationError{Msg: "api key has expired"}
		}
		found.UsageCount++
		found.LastUsedAt = &now
		if err := tx.Save(ctx, found); err != nil {
			return fmt.Errorf("failed to record api key usage: %w", err)
		}
		key = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return key, nil
}

func (r *ApiKeyRegistryRepository) DeleteApiKey(ctx context.Context, userID, serverID, keyID string) (bool, error) {
	deleted := false
	err := r.store.Transaction(ctx, func(tx DataStore) error {
		sc, err := resolveScope(ctx, tx, userID, serverID)
		if err != nil || sc == nil {
			return err
		}
		key, err := findApiKey(ctx, tx, sc, keyID)
		if err != nil || key == nil {
			return err
		}
		if err := tx.Delete(ctx, key); err != nil {
			return fmt.Errorf("failed to delete api key: %w", err)
		}
		deleted = true
		return nil
	})
	return deleted, err
}

func findApiKey(ctx context.Context, store DataStore, sc *scope, keyID string) (*models.ApiKeyRegistry, error) {
	var key models.ApiKeyRegistry
	err := store.First(ctx, &key, Query{Where: append(sc.where(), Where("public_id = ?", keyID))})
	if errors.Is(err, ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find api key: %w", err)
	}
	return &key, nil
}

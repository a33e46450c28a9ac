package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"urldash/internal/models"
)

type FavoriteData struct {
	ShortURLID string
	ShortURL   string
	LongURL    string
	Title      *string
}

type FavoritesRepository struct {
	store DataStore
	now   func() time.Time
}

func NewFavoritesRepository(store DataStore) *FavoritesRepository {
	return &FavoritesRepository{store: store, now: time.Now}
}

// ListFavorites returns nil when the server is not assigned to the user.
func (r *FavoritesRepository) ListFavorites(ctx context.Context, userID, serverID string) ([]models.Favorite, error) {
	sc, err := resolveScope(ctx, r.store, userID, serverID)
	if err != nil || sc == nil {
		return nil, err
	}

	favorites := []models.Favorite{}
	q := Query{Where: sc.where(), Order: []Order{{Column: "created_at", Desc: true}}}
	if err := r.store.Find(ctx, &favorites, q); err != nil {
		return nil, fmt.Errorf("failed to list favorites: %w", err)
	}
	return favorites, nil
}

func (r *FavoritesRepository) FindFavorite(ctx context.Context, userID, serverID, shortURLID string) (*models.Favorite, error) {
	sc, err := resolveScope(ctx, r.store, userID, serverID)
	if err != nil || sc == nil {
		return nil, err
	}
	return findFavorite(ctx, r.store, sc, shortURLID)
}

// AddFavorite bookmarks a short URL. Adding an existing favorite returns the
// stored one.
func (r *FavoritesRepository) AddFavorite(ctx context.Context, userID, serverID string, data FavoriteData) (*models.Favorite, error) {
	var favorite *models.Favorite
	err := r.store.Transaction(ctx, func(tx DataStore) error {
		sc, err := resolveScope(ctx, tx, userID, serverID)
		if err != nil || sc == nil {
			return err
		}

		existing, err := findFavorite(ctx, tx, sc, data.ShortURLID)
		if err != nil {
			return err
		}
		if existing != nil {
			favorite = existing
			return nil
		}

		favorite = &models.Favorite{
			UserID:     sc.User.ID,
			ServerID:   sc.Server.ID,
			ShortURLID: data.ShortURLID,
			ShortURL:   data.ShortURL,
			LongURL:    data.LongURL,
			Title:      data.Title,
			CreatedAt:  r.now(),
		}
		if err := tx.Create(ctx, favorite); err != nil {
			return fmt.Errorf("failed to create favorite: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return favorite, nil
}

func (r *FavoritesRepository) RemoveFavorite(ctx context.Context, userID, serverID, shortURLID string) (bool, error) {
	removed := false
	err := r.store.Transaction(ctx, func(tx DataStore) error {
		sc, err := resolveScope(ctx, tx, userID, serverID)
		if err != nil || sc == nil {
			return err
		}
		favorite, err := findFavorite(ctx, tx, sc, shortURLID)
		if err != nil || favorite == nil {
			return err
		}
		if err := tx.Delete(ctx, favorite); err != nil {
			return fmt.Errorf("failed to delete favorite: %w", err)
		}
		removed = true
		return nil
	})
	return removed, err
}

func findFavorite(ctx context.Context, store DataStore, sc *scope, shortURLID string) (*models.Favorite, error) {
	var favorite models.Favorite
	q := Query{Where: append(sc.where(), Where("short_url_id = ?", shortURLID))}
	err := store.First(ctx, &favorite, q)
	if errors.Is(err, ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find favorite: %w", err)
	}
	return &favorite, nil
}

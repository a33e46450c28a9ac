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

type FoldersRepository struct {
	store DataStore
	newID func() string
	now   func() time.Time
}

func NewFoldersRepository(store DataStore) *FoldersRepository {
	return &FoldersRepository{store: store, newID: utils.GeneratePublicID, now: time.Now}
}

func (r *FoldersRepository) ListFolders(ctx context.Context, userID, serverID string) ([]models.Folder, error) {
	sc, err := resolveScope(ctx, r.store, userID, serverID)
	if err != nil || sc == nil {
		return nil, err
	}

	folders := []models.Folder{}
	q := Query{Where: sc.where(), Preload: []string{"Items"}, Order: []Order{{Column: "name"}}}
	if err := r.store.Find(ctx, &folders, q); err != nil {
		return nil, fmt.Errorf("failed to list folders: %w", err)
	}
	return folders, nil
}

// CreateFolder fails with a validation error when the name is blank or
// already used for this user and server.
func (r *FoldersRepository) CreateFolder(ctx context.Context, userID, serverID, name string) (*models.Folder, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &ValidationError{Msg: "folder name cannot be empty"}
	}

	var folder *models.Folder
	err := r.store.Transaction(ctx, func(tx DataStore) error {
		sc, err := resolveScope(ctx, tx, userID, serverID)
		if err != nil || sc == nil {
			return err
		}
		if err := r.ensureNameAvailable(ctx, tx, sc, name); err != nil {
			return err
		}

		folder = &models.Folder{
			PublicID:  r.newID(),
			UserID:    sc.User.ID,
			ServerID:  sc.Server.ID,
			Name:      name,
			CreatedAt: r.now(),
			Items:     []models.FolderItem{},
		}
		if err := tx.Create(ctx, folder); err != nil {
			return fmt.Errorf("failed to create folder: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return folder, nil
}

func (r *FoldersRepository) RenameFolder(ctx context.Context, userID, serverID, folderID, name string) (*models.Folder, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &ValidationError{Msg: "folder name cannot be empty"}
	}

	var renamed *models.Folder
	err := r.store.Transaction(ctx, func(tx DataStore) error {
		sc, err := resolveScope(ctx, tx, userID, serverID)
		if err != nil || sc == nil {
			return err
		}
		folder, err := findFolder(ctx, tx, sc, folderID)
		if err != nil || folder == nil {
			return err
		}
		if folder.Name == name {
			renamed = folder
			return nil
		}
		if err := r.ensureNameAvailable(ctx, tx, sc, name); err != nil {
			return err
		}

		folder.Name = name
		if err := tx.Save(ctx, folder); err != nil {
			return fmt.Errorf("failed to rename folder: %w", err)
		}
		renamed = folder
		return nil
	})
	if err != nil {
		return nil, err
	}
	return renamed, nil
}

// DeleteFolder removes a folder; its items cascade.
func (r *FoldersRepository) DeleteFolder(ctx context.Context, userID, serverID, folderID string) (bool, error) {
	deleted := false
	err := r.store.Transaction(ctx, func(tx DataStore) error {
		sc, err := resolveScope(ctx, tx, userID, serverID)
		if err != nil || sc == nil {
			return err
		}
		folder, err := findFolder(ctx, tx, sc, folderID)
		if err != nil || folder == nil {
			return err
		}
		if err := tx.Delete(ctx, folder); err != nil {
			return fmt.Errorf("failed to delete folder: %w", err)
		}
		deleted = true
		return nil
	})
	return deleted, err
}

// AddFolderItem adds a short URL to a folder. Adding it twice is a no-op.
func (r *FoldersRepository) AddFolderItem(ctx context.Context, userID, serverID, folderID, shortURLID string) (*models.FolderItem, error) {
	var item *models.FolderItem
	err := r.store.Transaction(ctx, func(tx DataStore) error {
		sc, err := resolveScope(ctx, tx, userID, serverID)
		if err != nil || sc == nil {
			return err
		}
		folder, err := findFolder(ctx, tx, sc, folderID)
		if err != nil || folder == nil {
			return err
		}

		existing, err := findFolderItem(ctx, tx, folder, shortURLID)
		if err != nil {
			return err
		}
		if existing != nil {
			item = existing
			return nil
		}

		item = &models.FolderItem{FolderID: folder.ID, ShortURLID: shortURLID, CreatedAt: r.now()}
		if err := tx.Create(ctx, item); err != nil {
			return fmt.Errorf("failed to add folder item: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (r *FoldersRepository) RemoveFolderItem(ctx context.Context, userID, serverID, folderID, shortURLID string) (bool, error) {
	removed := false
	err := r.store.Transaction(ctx, func(tx DataStore) error {
		sc, err := resolveScope(ctx, tx, userID, serverID)
		if err != nil || sc == nil {
			return err
		}
		folder, err := findFolder(ctx, tx, sc, folderID)
		if err != nil || folder == nil {
			return err
		}
		item, err := findFolderItem(ctx, tx, folder, shortURLID)
		if err != nil || item == nil {
			return err
		}
		if err := tx.Delete(ctx, item); err != nil {
			return fmt.Errorf("failed to remove folder item: %w", err)
		}
		removed = true
		return nil
	})
	return removed, err
}

func (r *FoldersRepository) ensureNameAvailable(ctx context.Context, store DataStore, sc *scope, name string) error {
	n, err := store.Count(ctx, &models.Folder{}, Query{Where: append(sc.where(), Where("name = ?", name))})
	if err != nil {
		return fmt.Errorf("failed to check folder name: %w", err)
	}
	if n > 0 {
		return &ValidationError{Msg: fmt.Sprintf("a folder named %q already exists", name)}
	}
	return nil
}

func findFolder(ctx context.Context, store DataStore, sc *scope, folderID string) (*models.Folder, error) {
	var folder models.Folder
	q := Query{Where: append(sc.where(), Where("public_id = ?", folderID)), Preload: []string{"Items"}}
	err := store.First(ctx, &folder, q)
	if errors.Is(err, ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find folder: %w", err)
	}
	return &folder, nil
}

func findFolderItem(ctx context.Context, store DataStore, folder *models.Folder, shortURLID string) (*models.FolderItem, error) {
	var item models.FolderItem
	q := Query{Where: []Cond{Where("folder_id = ?", folder.ID), Where("short_url_id = ?", shortURLID)}}
	err := store.First(ctx, &item, q)
	if errors.Is(err, ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find folder item: %w", err)
	}
	return &item, nil
}

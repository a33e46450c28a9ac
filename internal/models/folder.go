package models

import (
	"time"
)

type Folder struct {
	ID        uint         `gorm:"primaryKey" json:"-"`
	PublicID  string       `gorm:"uniqueIndex;not null;size:36" json:"publicId"`
	UserID    uint         `gorm:"not null;uniqueIndex:folders_user_server_name_unique,priority:1" json:"-"`
	User      *User        `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	ServerID  uint         `gorm:"not null;uniqueIndex:folders_user_server_name_unique,priority:2" json:"-"`
	Server    *Server      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Name      string       `gorm:"not null;size:255;uniqueIndex:folders_user_server_name_unique,priority:3" json:"name"`
	CreatedAt time.Time    `json:"createdAt"`
	Items     []FolderItem `gorm:"foreignKey:FolderID;constraint:OnDelete:CASCADE" json:"items"`
}

type FolderItem struct {
	ID         uint      `gorm:"primaryKey" json:"-"`
	FolderID   uint      `gorm:"not null;uniqueIndex:folder_items_folder_short_url_unique,priority:1" json:"-"`
	ShortURLID string    `gorm:"column:short_url_id;not null;size:255;uniqueIndex:folder_items_folder_short_url_unique,priority:2" json:"shortUrlId"`
	CreatedAt  time.Time `json:"createdAt"`
}

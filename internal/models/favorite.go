package models

import (
	"time"
)

type Favorite struct {
	ID         uint      `gorm:"primaryKey" json:"-"`
	UserID     uint      `gorm:"not null;uniqueIndex:favorites_user_server_short_url_unique,priority:1" json:"-"`
	User       *User     `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	ServerID   uint      `gorm:"not null;uniqueIndex:favorites_user_server_short_url_unique,priority:2" json:"-"`
	Server     *Server   `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	ShortURLID string    `gorm:"column:short_url_id;not null;size:255;uniqueIndex:favorites_user_server_short_url_unique,priority:3" json:"shortUrlId"`
	ShortURL   string    `gorm:"column:short_url;not null;size:2048" json:"shortUrl"`
	LongURL    string    `gorm:"column:long_url;type:text" json:"longUrl"`
	Title      *string   `gorm:"size:512" json:"title"`
	CreatedAt  time.Time `json:"createdAt"`
}

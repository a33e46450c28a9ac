package models

import (
	"time"
)

// ApiKeyRegistry tracks metadata about an API key a user handed out for a
// server. The key itself is never stored, only a hint.
type ApiKeyRegistry struct {
	ID         uint       `gorm:"primaryKey" json:"-"`
	PublicID   string     `gorm:"uniqueIndex;not null;size:36" json:"publicId"`
	UserID     uint       `gorm:"not null;index" json:"-"`
	User       *User      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	ServerID   uint       `gorm:"not null;index" json:"-"`
	Server     *Server    `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Name       string     `gorm:"not null;size:255" json:"name"`
	KeyHint    string     `gorm:"not null;size:32" json:"keyHint"`
	Service    string     `gorm:"size:255" json:"service"`
	Tags       []string   `gorm:"serializer:json;type:text" json:"tags"`
	UsageCount int        `gorm:"not null;default:0" json:"usageCount"`
	LastUsedAt *time.Time `json:"lastUsedAt"`
	ExpiresAt  *time.Time `json:"expiresAt"`
	CreatedAt  time.Time  `json:"createdAt"`
}

func (ApiKeyRegistry) TableName() string {
	return "api_key_registry"
}

// Expired reports whether the key is past its expiry at the given instant.
func (k ApiKeyRegistry) Expired(now time.Time) bool {
	return k.ExpiresAt != nil && now.After(*k.ExpiresAt)
}

package models

import (
	"time"
)

type User struct {
	ID           uint      `gorm:"primaryKey" json:"-"`
	PublicID     string    `gorm:"uniqueIndex;not null;size:36" json:"publicId"`
	Username     string    `gorm:"uniqueIndex;not null;size:255" json:"username"`
	DisplayName  *string   `gorm:"size:255" json:"displayName"`
	Role         Role      `gorm:"not null;size:32" json:"role"`
	PasswordHash string    `gorm:"not null;size:255" json:"-"`
	TempPassword bool      `gorm:"not null" json:"tempPassword"`
	OidcSubject  *string   `gorm:"uniqueIndex;size:255" json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	Servers      []Server  `gorm:"many2many:servers_users;constraint:OnDelete:CASCADE" json:"servers,omitempty"`
}

// IsOidc reports whether the account is provisioned by the identity provider.
func (u User) IsOidc() bool {
	return u.OidcSubject != nil
}

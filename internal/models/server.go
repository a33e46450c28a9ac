package models

// Server is a remote URL-shortener instance the dashboard talks to.
type Server struct {
	ID       uint   `gorm:"primaryKey" json:"-"`
	PublicID string `gorm:"uniqueIndex;not null;size:36" json:"publicId"`
	Name     string `gorm:"not null;size:255" json:"name"`
	BaseURL  string `gorm:"column:base_url;not null;size:2048" json:"baseUrl"`
	APIKey   string `gorm:"column:api_key;not null;size:255" json:"apiKey"`
	Users    []User `gorm:"many2many:servers_users;constraint:OnDelete:CASCADE" json:"users,omitempty"`
}

package models

import (
	"time"

	"github.com/mssola/user_agent"
)

type AuditLog struct {
	ID           uint      `gorm:"primaryKey" json:"-"`
	Action       string    `gorm:"size:64;not null;index" json:"action"` // e.g. "LOGIN", "SERVER_CREATED"
	ResourceType *string   `gorm:"size:64" json:"resourceType"`
	ResourceID   *string   `gorm:"size:64" json:"resourceId"`
	UserID       *uint     `gorm:"index" json:"-"` // Nulled when the actor is deleted
	User         *User     `gorm:"constraint:OnDelete:SET NULL" json:"user,omitempty"`
	ServerID     *uint     `gorm:"index" json:"-"`
	Server       *Server   `gorm:"constraint:OnDelete:SET NULL" json:"server,omitempty"`
	Details      string    `gorm:"type:text" json:"details"` // JSON
	IPAddress    string    `gorm:"size:45" json:"ipAddress"`
	UserAgent    string    `gorm:"size:512" json:"userAgent"`
	Country      string    `gorm:"size:100" json:"country"`
	Timestamp    time.Time `gorm:"not null;index" json:"timestamp"`
}

// ClientSummary renders the user agent as "<browser> on <os>".
func (a AuditLog) ClientSummary() string {
	if a.UserAgent == "" {
		return "Unknown"
	}
	ua := user_agent.New(a.UserAgent)
	name, version := ua.Browser()
	client := name
	if version != "" {
		client += " " + version
	}
	if ua.Bot() {
		return client + " (bot)"
	}
	if os := ua.OS(); os != "" {
		return client + " on " + os
	}
	return client
}

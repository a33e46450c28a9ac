package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"urldash/internal/models"
	"urldash/internal/repository"
)

const (
	ActionLogin           = "LOGIN"
	ActionLoginFailed     = "LOGIN_FAILED"
	ActionLoginLocked     = "LOGIN_LOCKED"
	ActionLogout          = "LOGOUT"
	ActionPasswordChanged = "PASSWORD_CHANGED"
	ActionPasswordReset   = "PASSWORD_RESET"
	ActionUserCreated     = "USER_CREATED"
	ActionUserUpdated     = "USER_UPDATED"
	ActionUserDeleted     = "USER_DELETED"
	ActionServersAssigned = "SERVERS_ASSIGNED"
	ActionServerCreated   = "SERVER_CREATED"
	ActionServerUpdated   = "SERVER_UPDATED"
	ActionServerDeleted   = "SERVER_DELETED"
	ActionFavoriteAdded   = "FAVORITE_ADDED"
	ActionFavoriteRemoved = "FAVORITE_REMOVED"
	ActionFolderCreated   = "FOLDER_CREATED"
	ActionFolderUpdated   = "FOLDER_UPDATED"
	ActionFolderDeleted   = "FOLDER_DELETED"
	ActionApiKeyAdded     = "API_KEY_REGISTERED"
	ActionApiKeyDeleted   = "API_KEY_DELETED"
)

const auditBufferSize = 100

// ClientInfo identifies where a request came from.
type ClientInfo struct {
	IPAddress string
	UserAgent string
}

type AuditEntry struct {
	UserID       *uint
	ServerID     *uint
	Action       string
	ResourceType string
	ResourceID   string
	Details      any
	Client       ClientInfo
}

type AuditService struct {
	repo    *repository.AuditLogRepository
	geoIP   *GeoIPService
	logger  *slog.Logger
	channel chan models.AuditLog
}

func NewAuditService(repo *repository.AuditLogRepository, geoIP *GeoIPService, logger *slog.Logger) *AuditService {
	return &AuditService{
		repo:    repo,
		geoIP:   geoIP,
		logger:  logger,
		channel: make(chan models.AuditLog, auditBufferSize),
	}
}

// Start persists queued entries until ctx is cancelled, then flushes what is
// still buffered.
func (s *AuditService) Start(ctx context.Context) {
	for {
		select {
		case entry := <-s.channel:
			s.write(ctx, entry)
		case <-ctx.Done():
			for {
				select {
				case entry := <-s.channel:
					s.write(context.Background(), entry)
				default:
					s.logger.Info("Audit worker stopped")
					return
				}
			}
		}
	}
}

func (s *AuditService) write(ctx context.Context, entry models.AuditLog) {
	if s.geoIP != nil && entry.IPAddress != "" {
		entry.Country = s.geoIP.GetCountry(entry.IPAddress)
	}
	if err := s.repo.Create(ctx, &entry); err != nil {
		s.logger.Error("Failed to write audit log", "action", entry.Action, "error", err)
	}
}

// LogAction queues an entry. It never blocks; entries are dropped when the
// buffer is full.
func (s *AuditService) LogAction(e AuditEntry) {
	if s == nil {
		return
	}
	entry := models.AuditLog{
		UserID:    e.UserID,
		ServerID:  e.ServerID,
		Action:    e.Action,
		IPAddress: e.Client.IPAddress,
		UserAgent: e.Client.UserAgent,
		Timestamp: time.Now(),
	}
	if e.ResourceType != "" {
		entry.ResourceType = &e.ResourceType
	}
	if e.ResourceID != "" {
		entry.ResourceID = &e.ResourceID
	}
	if e.Details != nil {
		detailBytes, err := json.Marshal(e.Details)
		if err != nil {
			s.logger.Warn("Failed to encode audit details", "action", e.Action, "error", err)
		} else {
			entry.Details = string(detailBytes)
		}
	}

	select {
	case s.channel <- entry:
	default:
		s.logger.Warn("Audit channel full, dropping log", "action", e.Action)
	}
}

func (s *AuditService) List(ctx context.Context, opts repository.AuditLogListOptions) ([]models.AuditLog, int64, error) {
	return s.repo.FindAndCountAuditLogs(ctx, opts)
}

package repository

import (
	"context"
	"fmt"

	"urldash/internal/models"
)

type AuditLogListOptions struct {
	ListOptions
	Action string
}

type AuditLogRepository struct {
	store DataStore
}

func NewAuditLogRepository(store DataStore) *AuditLogRepository {
	return &AuditLogRepository{store: store}
}

func (r *AuditLogRepository) Create(ctx context.Context, entry *models.AuditLog) error {
	if err := r.store.Create(ctx, entry); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

func (r *AuditLogRepository) FindAndCountAuditLogs(ctx context.Context, opts AuditLogListOptions) ([]models.AuditLog, int64, error) {
	q := Query{
		AnyOf:   searchConds(opts.SearchTerm, "audit_logs.action", "audit_logs.resource_type", "audit_logs.resource_id"),
		Preload: []string{"User", "Server"},
		Order: resolveOrder(opts.OrderBy, map[string]string{
			"action":    "audit_logs.action",
			"timestamp": "audit_logs.timestamp",
		}, Order{Column: "audit_logs.timestamp", Desc: true}),
		Limit:  opts.Limit,
		Offset: opts.Offset,
	}
	if opts.Action != "" {
		q.Where = []Cond{Where("audit_logs.action = ?", opts.Action)}
	}

	logs := []models.AuditLog{}
	if err := r.store.Find(ctx, &logs, q); err != nil {
		return nil, 0, fmt.Errorf("failed to list audit logs: %w", err)
	}
	total, err := r.store.Count(ctx, &models.AuditLog{}, q)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count audit logs: %w", err)
	}
	return logs, total, nil
}

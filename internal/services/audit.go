package services

import (
	"context"
	"strconv"

	"github.com/diewo77/eventdesk/internal/grid"
	"github.com/diewo77/eventdesk/internal/models"
	"gorm.io/gorm"
)

// DefaultAuditLimit bounds audit listings.
const DefaultAuditLimit = 500

type AuditService struct {
	db *gorm.DB
}

func NewAuditService(db *gorm.DB) *AuditService {
	return &AuditService{db: db}
}

// Record stores one audit entry. A nil service records nothing.
func (s *AuditService) Record(ctx context.Context, entry models.AuditLog) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(&entry).Error
}

// Recent lists the newest entries of a tenant first.
func (s *AuditService) Recent(ctx context.Context, tenantID string, limit int) ([]models.AuditLog, error) {
	if limit <= 0 {
		limit = DefaultAuditLimit
	}
	var out []models.AuditLog
	err := s.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

// ForEntity lists the history of one record, oldest first.
func (s *AuditService) ForEntity(ctx context.Context, entityType, entityID string) ([]models.AuditLog, error) {
	var out []models.AuditLog
	err := s.db.WithContext(ctx).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("created_at ASC, id ASC").
		Find(&out).Error
	return out, err
}

// AuditColumns is the column set of the audit grid.
var AuditColumns = []grid.Column{
	{ID: "createdAt", Header: "common.created", Kind: grid.KindDate, Renderer: grid.DateFormat("2006-01-02 15:04")},
	{ID: "entityType", Header: "audit.entity", Kind: grid.KindSelect},
	{ID: "entityId", Header: "audit.record"},
	{ID: "action", Header: "audit.action", Kind: grid.KindSelect,
		Options: []string{models.ActionCreate, models.ActionUpdate, models.ActionDelete, models.ActionStamp, models.ActionConvert, models.ActionUpload}},
	{ID: "outcome", Header: "audit.outcome", Kind: grid.KindSelect, Options: []string{models.OutcomeOK, models.OutcomeError}},
	{ID: "change", Header: "audit.change", HideSort: true, Derive: func(r grid.Row) any {
		oldV, newV := grid.Text(r["oldValue"]), grid.Text(r["newValue"])
		if oldV == "" && newV == "" {
			return ""
		}
		return oldV + " → " + newV
	}},
	{ID: "detail", Header: "audit.detail", HideSort: true},
}

// AuditRows turns entries into grid rows.
func AuditRows(entries []models.AuditLog) []grid.Row {
	rows := make([]grid.Row, len(entries))
	for i, e := range entries {
		rows[i] = grid.Row{
			"id":         strconv.FormatUint(uint64(e.ID), 10),
			"createdAt":  e.CreatedAt,
			"entityType": e.EntityType,
			"entityId":   e.EntityID,
			"action":     e.Action,
			"outcome":    e.Outcome,
			"oldValue":   e.OldValue,
			"newValue":   e.NewValue,
			"detail":     e.Detail,
		}
	}
	return rows
}

package models

import "time"

// Audit actions.
const (
	ActionCreate  = "create"
	ActionUpdate  = "update"
	ActionDelete  = "delete"
	ActionStamp   = "stamp"
	ActionConvert = "convert"
	ActionUpload  = "upload"
)

// Audit outcomes.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// AuditLog records one change this service pushed to the backend.
type AuditLog struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	TenantID   string `gorm:"size:64;index" json:"tenantId"`
	EntityType string `gorm:"size:64;not null;index:idx_audit_entity" json:"entityType"` // invoices, quotes, customers...
	EntityID   string `gorm:"size:64;index:idx_audit_entity" json:"entityId"`
	Action     string `gorm:"size:32;not null" json:"action"`
	Outcome    string `gorm:"size:16;not null" json:"outcome"`
	OldValue   string `gorm:"size:255" json:"oldValue,omitempty"`
	NewValue   string `gorm:"size:255" json:"newValue,omitempty"`
	// Detail holds the error text or a file URL.
	Detail    string    `gorm:"type:text" json:"detail,omitempty"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
}

package model

import (
	"time"

	"gorm.io/datatypes"
)

// AuditLog records ledger mutations (gold, inventory, quests) and other
// notable player actions.
type AuditLog struct {
	ID          int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	TraceID     string         `gorm:"index:idx_audit_trace;size:36;not null" json:"trace_id"`
	UserID      *int64         `json:"user_id"`
	CharacterID *int64         `gorm:"index:idx_audit_char" json:"character_id"`
	SessionID   *int64         `json:"session_id"`
	Action      string         `gorm:"size:64;not null" json:"action"`
	Detail      datatypes.JSON `json:"detail"`
	GoldDelta   int64          `json:"gold_delta"`
	Error       string         `gorm:"type:text" json:"error"`
	IP          string         `gorm:"size:45" json:"ip"`
	DurationMs  int            `json:"duration_ms"`
	CreatedAt   time.Time      `gorm:"index:idx_audit_created;autoCreateTime:milli" json:"created_at"`
}

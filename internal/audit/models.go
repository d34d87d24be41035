package audit

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Entry is one append-only audit record. Entries are never updated or deleted.
type Entry struct {
	ID         uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	TenantID   uuid.UUID      `json:"tenant_id" gorm:"type:uuid;not null;index"`
	ActorID    uuid.UUID      `json:"actor_id" gorm:"type:uuid;not null"`
	EntityType string         `json:"entity_type" gorm:"not null;index:idx_audit_entity"`
	EntityID   uuid.UUID      `json:"entity_id" gorm:"type:uuid;not null;index:idx_audit_entity"`
	Action     string         `json:"action" gorm:"not null"`
	Details    string         `json:"details"`
	Metadata   datatypes.JSON `json:"metadata"`
	CreatedAt  time.Time      `json:"created_at"`
}

func (Entry) TableName() string { return "audit_entries" }

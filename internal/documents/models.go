package documents

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/datatypes"
)

// DocumentStatus is the persisted lifecycle status. Effective statuses such as
// EXPIRED and PENDING_EFFECTIVE are derived at read time and never stored.
type DocumentStatus string

const (
	StatusDraft     DocumentStatus = "DRAFT"
	StatusSubmitted DocumentStatus = "SUBMITTED"
	StatusApproved  DocumentStatus = "APPROVED"
	StatusRejected  DocumentStatus = "REJECTED"
	StatusObsolete  DocumentStatus = "OBSOLETE"
)

// EffectiveStatus extends DocumentStatus with the read-time derived states.
type EffectiveStatus string

const (
	EffectiveExpired          EffectiveStatus = "EXPIRED"
	EffectivePendingEffective EffectiveStatus = "PENDING_EFFECTIVE"
)

// ContentMode selects how a version stores its content.
type ContentMode string

const (
	ContentModeFile       ContentMode = "FILE"
	ContentModeStructured ContentMode = "STRUCTURED"
)

// ReviewStatus is the state of one reviewer's assignment.
type ReviewStatus string

const (
	ReviewPending   ReviewStatus = "PENDING"
	ReviewApproved  ReviewStatus = "APPROVED"
	ReviewRejected  ReviewStatus = "REJECTED"
	ReviewCancelled ReviewStatus = "CANCELLED"
)

// ReviewDecision is a reviewer's verdict on a pending review.
type ReviewDecision string

const (
	DecisionApprove ReviewDecision = "APPROVE"
	DecisionReject  ReviewDecision = "REJECT"
)

// Document is one node in a revision lineage chain. Lineage is strictly
// linear: at most one predecessor (SupersedesID) and at most one successor
// (SupersededByID). Documents are never deleted; obsolescence is a status.
type Document struct {
	ID               uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	TenantID         uuid.UUID      `json:"tenant_id" gorm:"type:uuid;not null;index"`
	DocumentNumber   string         `json:"document_number" gorm:"not null"`
	Title            string         `json:"title" gorm:"not null"`
	Description      string         `json:"description"`
	DocumentType     string         `json:"document_type"`
	FolderID         *uuid.UUID     `json:"folder_id,omitempty" gorm:"type:uuid;index"`
	Tags             pq.StringArray `json:"tags" gorm:"type:text[]"`
	Status           DocumentStatus `json:"status" gorm:"not null;default:'DRAFT'"`
	ReviewMode       bool           `json:"review_mode" gorm:"not null;default:false"`
	CurrentVersionID *uuid.UUID     `json:"current_version_id,omitempty" gorm:"type:uuid"`
	SupersedesID     *uuid.UUID     `json:"supersedes_id,omitempty" gorm:"type:uuid;uniqueIndex"`
	SupersededByID   *uuid.UUID     `json:"superseded_by_id,omitempty" gorm:"type:uuid"`
	EffectiveDate    *time.Time     `json:"effective_date,omitempty"`
	ExpiryDate       *time.Time     `json:"expiry_date,omitempty"`
	CreatedBy        uuid.UUID      `json:"created_by" gorm:"type:uuid;not null"`
	ApprovedBy       *uuid.UUID     `json:"approved_by,omitempty" gorm:"type:uuid"`
	ApprovedAt       *time.Time     `json:"approved_at,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

func (Document) TableName() string { return "documents" }

// DocumentVersion is one content snapshot owned by exactly one document.
// Version numbers restart at 1 per document identity, not per lineage. Once
// frozen the content fields are immutable.
type DocumentVersion struct {
	ID                uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	DocumentID        uuid.UUID      `json:"document_id" gorm:"type:uuid;not null;index"`
	VersionNumber     int            `json:"version_number" gorm:"not null"`
	IsFrozen          bool           `json:"is_frozen" gorm:"not null;default:false"`
	ContentMode       ContentMode    `json:"content_mode" gorm:"not null"`
	FileKey           *string        `json:"file_key,omitempty"`
	FileName          *string        `json:"file_name,omitempty"`
	FileSize          *int64         `json:"file_size,omitempty"`
	StructuredPayload datatypes.JSON `json:"structured_payload,omitempty"`
	SnapshotKey       *string        `json:"snapshot_key,omitempty"`
	CreatedBy         uuid.UUID      `json:"created_by" gorm:"type:uuid;not null"`
	CreatedAt         time.Time      `json:"created_at"`
}

func (DocumentVersion) TableName() string { return "document_versions" }

// VersionAttachment is a supporting file attached to one version. Attachments
// are cloned along with the version when a document is revised.
type VersionAttachment struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	VersionID  uuid.UUID `json:"version_id" gorm:"type:uuid;not null;index"`
	FileName   string    `json:"file_name" gorm:"not null"`
	FileKey    string    `json:"file_key" gorm:"not null"`
	FileSize   int64     `json:"file_size"`
	UploadedBy uuid.UUID `json:"uploaded_by" gorm:"type:uuid;not null"`
	CreatedAt  time.Time `json:"created_at"`
}

func (VersionAttachment) TableName() string { return "version_attachments" }

// DocumentReview is one reviewer's assignment within one review cycle. Stage
// numbers are advisory groupings only; the engine resolves all pending reviews
// in parallel regardless of stage.
type DocumentReview struct {
	ID         uuid.UUID    `json:"id" gorm:"type:uuid;primaryKey"`
	DocumentID uuid.UUID    `json:"document_id" gorm:"type:uuid;not null;index"`
	ReviewerID uuid.UUID    `json:"reviewer_id" gorm:"type:uuid;not null"`
	Stage      int          `json:"stage" gorm:"not null;default:1"`
	Status     ReviewStatus `json:"status" gorm:"not null;default:'PENDING'"`
	Comment    string       `json:"comment"`
	DecidedAt  *time.Time   `json:"decided_at,omitempty"`
	CreatedAt  time.Time    `json:"created_at"`
}

func (DocumentReview) TableName() string { return "document_reviews" }

// WorkflowHistoryEntry is the append-only record of one status transition.
type WorkflowHistoryEntry struct {
	ID         uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	TenantID   uuid.UUID      `json:"tenant_id" gorm:"type:uuid;not null;index"`
	DocumentID uuid.UUID      `json:"document_id" gorm:"type:uuid;not null;index"`
	FromStatus DocumentStatus `json:"from_status" gorm:"not null"`
	ToStatus   DocumentStatus `json:"to_status" gorm:"not null"`
	ActorID    uuid.UUID      `json:"actor_id" gorm:"type:uuid;not null"`
	Comment    string         `json:"comment"`
	CreatedAt  time.Time      `json:"created_at"`
}

func (WorkflowHistoryEntry) TableName() string { return "workflow_history" }

// DocumentSequence backs the tenant- and year-scoped document number sequence.
type DocumentSequence struct {
	TenantID uuid.UUID `gorm:"type:uuid;primaryKey"`
	Year     int       `gorm:"primaryKey"`
	Counter  int64     `gorm:"not null;default:0"`
}

func (DocumentSequence) TableName() string { return "document_sequences" }

// ReviewerAssignment names one reviewer and their advisory stage when a review
// cycle is started.
type ReviewerAssignment struct {
	ReviewerID uuid.UUID `json:"reviewer_id"`
	Stage      int       `json:"stage"`
}

// ReviewOutcome reports the result of a single review decision.
type ReviewOutcome struct {
	Status       DocumentStatus `json:"status"`
	PendingCount int64          `json:"pending_count"`
}

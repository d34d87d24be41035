package permissions

import (
	"time"

	"github.com/google/uuid"
)

// AccessLevel is a folder-scoped grant. Levels are hierarchical: WRITE implies
// REVIEW and READ, REVIEW implies READ.
type AccessLevel string

const (
	LevelRead   AccessLevel = "READ"
	LevelReview AccessLevel = "REVIEW"
	LevelWrite  AccessLevel = "WRITE"
)

var levelRank = map[AccessLevel]int{
	LevelRead:   1,
	LevelReview: 2,
	LevelWrite:  3,
}

// Satisfies reports whether the level grants at least the required level.
func (l AccessLevel) Satisfies(required AccessLevel) bool {
	return levelRank[l] >= levelRank[required]
}

// Global permission codes used by the workflow engine. The identity service
// attaches a subset of these to each actor; folder ACLs map onto the same codes
// via EffectivePermissionSet.
const (
	PermDocumentsRead     = "documents:read"
	PermDocumentsCreate   = "documents:create"
	PermDocumentsEdit     = "documents:edit"
	PermDocumentsDelete   = "documents:delete"
	PermDocumentsApprove  = "documents:approve"
	PermDocumentsReject   = "documents:reject"
	PermDocumentsWithdraw = "documents:withdraw"
)

var permissionSetByLevel = map[AccessLevel][]string{
	LevelRead: {PermDocumentsRead},
	LevelReview: {
		PermDocumentsRead,
		PermDocumentsApprove,
		PermDocumentsReject,
	},
	LevelWrite: {
		PermDocumentsRead,
		PermDocumentsCreate,
		PermDocumentsEdit,
		PermDocumentsDelete,
		PermDocumentsApprove,
		PermDocumentsReject,
		PermDocumentsWithdraw,
	},
}

// FolderPermission grants a role an access level on one folder.
type FolderPermission struct {
	ID        uuid.UUID   `json:"id" gorm:"type:uuid;primaryKey"`
	TenantID  uuid.UUID   `json:"tenant_id" gorm:"type:uuid;not null;index:idx_folder_perm_lookup"`
	FolderID  uuid.UUID   `json:"folder_id" gorm:"type:uuid;not null;index:idx_folder_perm_lookup"`
	Role      string      `json:"role" gorm:"not null;index:idx_folder_perm_lookup"`
	Level     AccessLevel `json:"level" gorm:"not null"`
	CreatedAt time.Time   `json:"created_at"`
}

func (FolderPermission) TableName() string { return "folder_permissions" }

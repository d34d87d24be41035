package documents

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"docuvault/document-portal/document-portal-backend/internal/audit"
	"docuvault/document-portal/document-portal-backend/internal/auth"
	"docuvault/document-portal/document-portal-backend/pkg/snapshot"
)

// ApprovalFinalizer runs the side effects of a document becoming APPROVED.
// It is invoked exactly once per approval, inside the same transaction as the
// rest of the transition; a failing snapshot render aborts the whole approval.
type ApprovalFinalizer struct {
	repo     Repository
	renderer snapshot.Renderer
	clock    Clock
	logger   *zap.Logger
}

// NewApprovalFinalizer creates a finalizer bound to an open transaction's repository.
func NewApprovalFinalizer(repo Repository, renderer snapshot.Renderer, clock Clock, logger *zap.Logger) *ApprovalFinalizer {
	return &ApprovalFinalizer{repo: repo, renderer: renderer, clock: clock, logger: logger}
}

// Finalize renders a snapshot for structured content and writes the APPROVED
// status with actor and timestamp. The status write is condition-checked
// against SUBMITTED; losing that race surfaces as ErrStateMismatch.
func (f *ApprovalFinalizer) Finalize(ctx context.Context, doc *Document, actor auth.Actor, comment string) error {
	if doc.CurrentVersionID == nil {
		return fmt.Errorf("document %s has no current version", doc.ID)
	}
	version, err := f.repo.GetVersion(ctx, *doc.CurrentVersionID)
	if err != nil {
		return err
	}

	snapshotProduced := false
	if version.ContentMode == ContentModeStructured {
		if len(version.StructuredPayload) == 0 {
			return fmt.Errorf("structured version %s has no payload", version.ID)
		}
		key, err := f.renderer.Render(ctx, doc.TenantID, doc.ID, version.ID, version.StructuredPayload)
		if err != nil {
			return fmt.Errorf("snapshot rendering failed: %w", err)
		}
		if err := f.repo.SetVersionSnapshotKey(ctx, version.ID, key); err != nil {
			return err
		}
		snapshotProduced = true
	}

	now := f.clock.Now()
	rows, err := f.repo.UpdateDocumentStatusWhere(ctx, doc.ID, doc.TenantID, StatusSubmitted, StatusApproved, map[string]interface{}{
		"approved_by": actor.ID,
		"approved_at": now,
		"review_mode": false,
	})
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrStateMismatch
	}

	metadata, _ := newAuditMetadata(map[string]interface{}{
		"content_mode":      version.ContentMode,
		"snapshot_produced": snapshotProduced,
		"comment":           comment,
	})
	return f.repo.Record(ctx, audit.Entry{
		TenantID:   doc.TenantID,
		ActorID:    actor.ID,
		EntityType: "document",
		EntityID:   doc.ID,
		Action:     "document.approved",
		Details:    fmt.Sprintf("approved %s content, snapshot=%t", version.ContentMode, snapshotProduced),
		Metadata:   metadata,
	})
}

func newAuditMetadata(fields map[string]interface{}) (datatypes.JSON, error) {
	b, err := json.Marshal(fields)
	return datatypes.JSON(b), err
}

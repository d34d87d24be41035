package documents

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"docuvault/document-portal/document-portal-backend/internal/audit"
	"docuvault/document-portal/document-portal-backend/internal/auth"
)

// RevisionManager creates successor documents for approved ones, cloning the
// current version and its attachments and linking the lineage chain. The whole
// operation runs in the caller's transaction: a failed clone never leaves a
// dangling successor pointer.
type RevisionManager struct {
	repo      Repository
	ancestors AncestorResolver
	clock     Clock
	logger    *zap.Logger
}

// NewRevisionManager creates a manager bound to an open transaction's repository.
func NewRevisionManager(repo Repository, ancestors AncestorResolver, clock Clock, logger *zap.Logger) *RevisionManager {
	return &RevisionManager{repo: repo, ancestors: ancestors, clock: clock, logger: logger}
}

// Revise creates a new DRAFT document superseding the given approved one.
// Only an APPROVED document without a successor may be revised.
func (m *RevisionManager) Revise(ctx context.Context, tenantID, documentID uuid.UUID, actor auth.Actor) (*Document, error) {
	source, err := m.repo.GetDocument(ctx, tenantID, documentID)
	if err != nil {
		return nil, err
	}
	if source.Status != StatusApproved {
		return nil, newDomainViolation(ViolationOnlyApproved,
			"only APPROVED documents can be revised, %s is %s", source.DocumentNumber, source.Status)
	}
	if source.SupersededByID != nil {
		return nil, newDomainViolation(ViolationAlreadySuperseded,
			"document %s is already superseded", source.DocumentNumber)
	}

	number, err := m.nextNumber(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	successor := &Document{
		ID:             uuid.New(),
		TenantID:       tenantID,
		DocumentNumber: number,
		Title:          source.Title,
		Description:    source.Description,
		DocumentType:   source.DocumentType,
		FolderID:       source.FolderID,
		Tags:           source.Tags,
		Status:         StatusDraft,
		SupersedesID:   &source.ID,
		CreatedBy:      actor.ID,
	}
	if err := m.repo.CreateDocument(ctx, successor); err != nil {
		return nil, err
	}

	attachmentCount := 0
	if source.CurrentVersionID != nil {
		sourceVersion, err := m.repo.GetVersion(ctx, *source.CurrentVersionID)
		if err != nil {
			return nil, err
		}

		// The clone restarts at version 1, unfrozen: version numbers are
		// per document identity, not per lineage.
		clone := &DocumentVersion{
			ID:                uuid.New(),
			DocumentID:        successor.ID,
			VersionNumber:     1,
			IsFrozen:          false,
			ContentMode:       sourceVersion.ContentMode,
			FileKey:           sourceVersion.FileKey,
			FileName:          sourceVersion.FileName,
			FileSize:          sourceVersion.FileSize,
			StructuredPayload: sourceVersion.StructuredPayload,
			CreatedBy:         actor.ID,
		}
		if err := m.repo.CreateVersion(ctx, clone); err != nil {
			return nil, err
		}

		attachments, err := m.repo.ListAttachments(ctx, sourceVersion.ID)
		if err != nil {
			return nil, err
		}
		for _, a := range attachments {
			if err := m.repo.CreateAttachment(ctx, &VersionAttachment{
				ID:         uuid.New(),
				VersionID:  clone.ID,
				FileName:   a.FileName,
				FileKey:    a.FileKey,
				FileSize:   a.FileSize,
				UploadedBy: a.UploadedBy,
			}); err != nil {
				return nil, err
			}
		}
		attachmentCount = len(attachments)

		if err := m.repo.SetCurrentVersion(ctx, successor.ID, clone.ID); err != nil {
			return nil, err
		}
		successor.CurrentVersionID = &clone.ID
	}

	rows, err := m.repo.MarkSuperseded(ctx, source.ID, tenantID, successor.ID)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		// A concurrent revision linked its successor first.
		return nil, ErrStateMismatch
	}

	metadata, _ := newAuditMetadata(map[string]interface{}{
		"source_document_number":    source.DocumentNumber,
		"successor_document_number": successor.DocumentNumber,
		"cloned_attachments":        attachmentCount,
	})
	if err := m.repo.Record(ctx, audit.Entry{
		TenantID:   tenantID,
		ActorID:    actor.ID,
		EntityType: "document",
		EntityID:   successor.ID,
		Action:     "document.revised",
		Details: fmt.Sprintf("revision %s created from %s, %d attachments cloned",
			successor.DocumentNumber, source.DocumentNumber, attachmentCount),
		Metadata: metadata,
	}); err != nil {
		return nil, err
	}

	m.logger.Info("Revision created",
		zap.String("source_id", source.ID.String()),
		zap.String("successor_id", successor.ID.String()),
		zap.String("document_number", successor.DocumentNumber))
	return m.repo.GetDocument(ctx, tenantID, successor.ID)
}

func (m *RevisionManager) nextNumber(ctx context.Context, tenantID uuid.UUID) (string, error) {
	year := m.clock.Now().Year()
	seq, err := m.repo.NextDocumentNumber(ctx, tenantID, year)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("DOC-%d-%05d", year, seq), nil
}

// Lineage walks the supersedes chain from the given document back to its
// oldest ancestor, newest first. Chains are linear so the walk terminates.
func (m *RevisionManager) Lineage(ctx context.Context, tenantID, documentID uuid.UUID) ([]Document, error) {
	doc, err := m.repo.GetDocument(ctx, tenantID, documentID)
	if err != nil {
		return nil, err
	}
	chain := []Document{*doc}
	for doc.SupersedesID != nil {
		doc, err = m.ancestors.Predecessor(ctx, tenantID, doc.ID)
		if err != nil {
			return nil, err
		}
		if doc == nil {
			break
		}
		chain = append(chain, *doc)
	}
	return chain, nil
}

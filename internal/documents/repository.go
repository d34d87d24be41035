package documents

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"docuvault/document-portal/document-portal-backend/internal/audit"
	"docuvault/document-portal/document-portal-backend/internal/permissions"
)

// AncestorResolver walks one step back along the revision lineage. It is the
// narrow seam shared by the orchestrator's cascade logic and the revision
// manager, so neither needs the full repository of the other.
type AncestorResolver interface {
	Predecessor(ctx context.Context, tenantID, documentID uuid.UUID) (*Document, error)
}

// Repository is the transactional store for the workflow engine. Transaction
// is the unit-of-work boundary: it yields a repository bound to one open
// transaction, and every engine component always receives that tx-bound
// repository — components never open transactions themselves. Audit writes and
// folder ACL reads go through the same handle so authorization and mutation
// observe one consistent snapshot.
type Repository interface {
	audit.Sink
	permissions.Store
	AncestorResolver

	Transaction(ctx context.Context, fn func(Repository) error) error

	GetDocument(ctx context.Context, tenantID, id uuid.UUID) (*Document, error)
	CreateDocument(ctx context.Context, doc *Document) error
	// UpdateDocumentStatusWhere performs the optimistic, condition-checked
	// status write: rows are updated only while the persisted status still
	// equals from. The returned count is 0 when a concurrent actor won.
	UpdateDocumentStatusWhere(ctx context.Context, id, tenantID uuid.UUID, from, to DocumentStatus, set map[string]interface{}) (int64, error)
	SetCurrentVersion(ctx context.Context, id, versionID uuid.UUID) error
	// MarkSuperseded links the successor onto the source document, guarded on
	// the successor pointer still being unset.
	MarkSuperseded(ctx context.Context, id, tenantID, successorID uuid.UUID) (int64, error)
	ListNewlyExpired(ctx context.Context, since, until time.Time) ([]Document, error)

	GetVersion(ctx context.Context, id uuid.UUID) (*DocumentVersion, error)
	CreateVersion(ctx context.Context, version *DocumentVersion) error
	FreezeVersion(ctx context.Context, id uuid.UUID) error
	SetVersionSnapshotKey(ctx context.Context, id uuid.UUID, key string) error
	ListAttachments(ctx context.Context, versionID uuid.UUID) ([]VersionAttachment, error)
	CreateAttachment(ctx context.Context, attachment *VersionAttachment) error

	CreateReviews(ctx context.Context, reviews []DocumentReview) error
	GetPendingReview(ctx context.Context, documentID, reviewerID uuid.UUID) (*DocumentReview, error)
	UpdateReviewStatus(ctx context.Context, id uuid.UUID, from, to ReviewStatus, comment string, decidedAt time.Time) (int64, error)
	CancelPendingReviews(ctx context.Context, documentID uuid.UUID, except *uuid.UUID) (int64, error)
	CountPendingReviews(ctx context.Context, documentID uuid.UUID) (int64, error)

	AppendHistory(ctx context.Context, entry *WorkflowHistoryEntry) error
	NextDocumentNumber(ctx context.Context, tenantID uuid.UUID, year int) (int64, error)
}

type gormRepository struct {
	db   *gorm.DB
	sink audit.Sink
}

// NewRepository returns the gorm-backed repository.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db, sink: audit.NewSink(db)}
}

func (r *gormRepository) Transaction(ctx context.Context, fn func(Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormRepository{db: tx, sink: audit.NewSink(tx)})
	})
}

func (r *gormRepository) Record(ctx context.Context, entry audit.Entry) error {
	return r.sink.Record(ctx, entry)
}

func (r *gormRepository) ListFolderPermissions(ctx context.Context, tenantID, folderID uuid.UUID, roles []string) ([]permissions.FolderPermission, error) {
	if len(roles) == 0 {
		return nil, nil
	}
	var perms []permissions.FolderPermission
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND folder_id = ? AND role IN ?", tenantID, folderID, roles).
		Find(&perms).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load folder permissions: %w", err)
	}
	return perms, nil
}

func (r *gormRepository) GetDocument(ctx context.Context, tenantID, id uuid.UUID) (*Document, error) {
	var doc Document
	err := r.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		First(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load document: %w", err)
	}
	return &doc, nil
}

func (r *gormRepository) CreateDocument(ctx context.Context, doc *Document) error {
	if err := r.db.WithContext(ctx).Create(doc).Error; err != nil {
		return fmt.Errorf("failed to create document: %w", err)
	}
	return nil
}

func (r *gormRepository) UpdateDocumentStatusWhere(ctx context.Context, id, tenantID uuid.UUID, from, to DocumentStatus, set map[string]interface{}) (int64, error) {
	updates := map[string]interface{}{"status": to}
	for k, v := range set {
		updates[k] = v
	}
	res := r.db.WithContext(ctx).
		Model(&Document{}).
		Where("id = ? AND tenant_id = ? AND status = ?", id, tenantID, from).
		Updates(updates)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to update document status: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (r *gormRepository) SetCurrentVersion(ctx context.Context, id, versionID uuid.UUID) error {
	err := r.db.WithContext(ctx).
		Model(&Document{}).
		Where("id = ?", id).
		Update("current_version_id", versionID).Error
	if err != nil {
		return fmt.Errorf("failed to set current version: %w", err)
	}
	return nil
}

func (r *gormRepository) MarkSuperseded(ctx context.Context, id, tenantID, successorID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&Document{}).
		Where("id = ? AND tenant_id = ? AND superseded_by_id IS NULL", id, tenantID).
		Update("superseded_by_id", successorID)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to mark document superseded: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (r *gormRepository) Predecessor(ctx context.Context, tenantID, documentID uuid.UUID) (*Document, error) {
	doc, err := r.GetDocument(ctx, tenantID, documentID)
	if err != nil {
		return nil, err
	}
	if doc.SupersedesID == nil {
		return nil, nil
	}
	return r.GetDocument(ctx, tenantID, *doc.SupersedesID)
}

func (r *gormRepository) ListNewlyExpired(ctx context.Context, since, until time.Time) ([]Document, error) {
	var docs []Document
	err := r.db.WithContext(ctx).
		Where("status = ? AND expiry_date > ? AND expiry_date <= ?", StatusApproved, since, until).
		Find(&docs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list expired documents: %w", err)
	}
	return docs, nil
}

func (r *gormRepository) GetVersion(ctx context.Context, id uuid.UUID) (*DocumentVersion, error) {
	var version DocumentVersion
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&version).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("document version %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load document version: %w", err)
	}
	return &version, nil
}

func (r *gormRepository) CreateVersion(ctx context.Context, version *DocumentVersion) error {
	if err := r.db.WithContext(ctx).Create(version).Error; err != nil {
		return fmt.Errorf("failed to create document version: %w", err)
	}
	return nil
}

func (r *gormRepository) FreezeVersion(ctx context.Context, id uuid.UUID) error {
	err := r.db.WithContext(ctx).
		Model(&DocumentVersion{}).
		Where("id = ?", id).
		Update("is_frozen", true).Error
	if err != nil {
		return fmt.Errorf("failed to freeze version: %w", err)
	}
	return nil
}

func (r *gormRepository) SetVersionSnapshotKey(ctx context.Context, id uuid.UUID, key string) error {
	err := r.db.WithContext(ctx).
		Model(&DocumentVersion{}).
		Where("id = ?", id).
		Update("snapshot_key", key).Error
	if err != nil {
		return fmt.Errorf("failed to store snapshot key: %w", err)
	}
	return nil
}

func (r *gormRepository) ListAttachments(ctx context.Context, versionID uuid.UUID) ([]VersionAttachment, error) {
	var attachments []VersionAttachment
	err := r.db.WithContext(ctx).
		Where("version_id = ?", versionID).
		Find(&attachments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list attachments: %w", err)
	}
	return attachments, nil
}

func (r *gormRepository) CreateAttachment(ctx context.Context, attachment *VersionAttachment) error {
	if err := r.db.WithContext(ctx).Create(attachment).Error; err != nil {
		return fmt.Errorf("failed to create attachment: %w", err)
	}
	return nil
}

func (r *gormRepository) CreateReviews(ctx context.Context, reviews []DocumentReview) error {
	if err := r.db.WithContext(ctx).Create(&reviews).Error; err != nil {
		return fmt.Errorf("failed to create reviews: %w", err)
	}
	return nil
}

func (r *gormRepository) GetPendingReview(ctx context.Context, documentID, reviewerID uuid.UUID) (*DocumentReview, error) {
	var review DocumentReview
	err := r.db.WithContext(ctx).
		Where("document_id = ? AND reviewer_id = ? AND status = ?", documentID, reviewerID, ReviewPending).
		First(&review).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load pending review: %w", err)
	}
	return &review, nil
}

func (r *gormRepository) UpdateReviewStatus(ctx context.Context, id uuid.UUID, from, to ReviewStatus, comment string, decidedAt time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&DocumentReview{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{
			"status":     to,
			"comment":    comment,
			"decided_at": decidedAt,
		})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to update review: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (r *gormRepository) CancelPendingReviews(ctx context.Context, documentID uuid.UUID, except *uuid.UUID) (int64, error) {
	q := r.db.WithContext(ctx).
		Model(&DocumentReview{}).
		Where("document_id = ? AND status = ?", documentID, ReviewPending)
	if except != nil {
		q = q.Where("id <> ?", *except)
	}
	res := q.Update("status", ReviewCancelled)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to cancel pending reviews: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (r *gormRepository) CountPendingReviews(ctx context.Context, documentID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&DocumentReview{}).
		Where("document_id = ? AND status = ?", documentID, ReviewPending).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count pending reviews: %w", err)
	}
	return count, nil
}

func (r *gormRepository) AppendHistory(ctx context.Context, entry *WorkflowHistoryEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to append workflow history: %w", err)
	}
	return nil
}

func (r *gormRepository) NextDocumentNumber(ctx context.Context, tenantID uuid.UUID, year int) (int64, error) {
	var counter int64
	err := r.db.WithContext(ctx).Raw(`
		INSERT INTO document_sequences (tenant_id, year, counter)
		VALUES (?, ?, 1)
		ON CONFLICT (tenant_id, year)
		DO UPDATE SET counter = document_sequences.counter + 1
		RETURNING counter`, tenantID, year).Scan(&counter).Error
	if err != nil {
		return 0, fmt.Errorf("failed to advance document sequence: %w", err)
	}
	return counter, nil
}

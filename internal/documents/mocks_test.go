package documents

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"docuvault/document-portal/document-portal-backend/internal/audit"
	"docuvault/document-portal/document-portal-backend/internal/permissions"
)

// MockRepository is a mock implementation of the Repository interface
type MockRepository struct {
	mock.Mock
}

// Transaction is a passthrough: tests exercise components against the same
// mock they configured, mirroring a tx-bound repository.
func (m *MockRepository) Transaction(ctx context.Context, fn func(Repository) error) error {
	return fn(m)
}

func (m *MockRepository) Record(ctx context.Context, entry audit.Entry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockRepository) ListFolderPermissions(ctx context.Context, tenantID, folderID uuid.UUID, roles []string) ([]permissions.FolderPermission, error) {
	args := m.Called(ctx, tenantID, folderID, roles)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]permissions.FolderPermission), args.Error(1)
}

func (m *MockRepository) Predecessor(ctx context.Context, tenantID, documentID uuid.UUID) (*Document, error) {
	args := m.Called(ctx, tenantID, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Document), args.Error(1)
}

func (m *MockRepository) GetDocument(ctx context.Context, tenantID, id uuid.UUID) (*Document, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Document), args.Error(1)
}

func (m *MockRepository) CreateDocument(ctx context.Context, doc *Document) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}

func (m *MockRepository) UpdateDocumentStatusWhere(ctx context.Context, id, tenantID uuid.UUID, from, to DocumentStatus, set map[string]interface{}) (int64, error) {
	args := m.Called(ctx, id, tenantID, from, to, set)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRepository) SetCurrentVersion(ctx context.Context, id, versionID uuid.UUID) error {
	args := m.Called(ctx, id, versionID)
	return args.Error(0)
}

func (m *MockRepository) MarkSuperseded(ctx context.Context, id, tenantID, successorID uuid.UUID) (int64, error) {
	args := m.Called(ctx, id, tenantID, successorID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRepository) ListNewlyExpired(ctx context.Context, since, until time.Time) ([]Document, error) {
	args := m.Called(ctx, since, until)
	return args.Get(0).([]Document), args.Error(1)
}

func (m *MockRepository) GetVersion(ctx context.Context, id uuid.UUID) (*DocumentVersion, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*DocumentVersion), args.Error(1)
}

func (m *MockRepository) CreateVersion(ctx context.Context, version *DocumentVersion) error {
	args := m.Called(ctx, version)
	return args.Error(0)
}

func (m *MockRepository) FreezeVersion(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRepository) SetVersionSnapshotKey(ctx context.Context, id uuid.UUID, key string) error {
	args := m.Called(ctx, id, key)
	return args.Error(0)
}

func (m *MockRepository) ListAttachments(ctx context.Context, versionID uuid.UUID) ([]VersionAttachment, error) {
	args := m.Called(ctx, versionID)
	return args.Get(0).([]VersionAttachment), args.Error(1)
}

func (m *MockRepository) CreateAttachment(ctx context.Context, attachment *VersionAttachment) error {
	args := m.Called(ctx, attachment)
	return args.Error(0)
}

func (m *MockRepository) CreateReviews(ctx context.Context, reviews []DocumentReview) error {
	args := m.Called(ctx, reviews)
	return args.Error(0)
}

func (m *MockRepository) GetPendingReview(ctx context.Context, documentID, reviewerID uuid.UUID) (*DocumentReview, error) {
	args := m.Called(ctx, documentID, reviewerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*DocumentReview), args.Error(1)
}

func (m *MockRepository) UpdateReviewStatus(ctx context.Context, id uuid.UUID, from, to ReviewStatus, comment string, decidedAt time.Time) (int64, error) {
	args := m.Called(ctx, id, from, to, comment, decidedAt)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRepository) CancelPendingReviews(ctx context.Context, documentID uuid.UUID, except *uuid.UUID) (int64, error) {
	args := m.Called(ctx, documentID, except)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRepository) CountPendingReviews(ctx context.Context, documentID uuid.UUID) (int64, error) {
	args := m.Called(ctx, documentID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRepository) AppendHistory(ctx context.Context, entry *WorkflowHistoryEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockRepository) NextDocumentNumber(ctx context.Context, tenantID uuid.UUID, year int) (int64, error) {
	args := m.Called(ctx, tenantID, year)
	return args.Get(0).(int64), args.Error(1)
}

// MockRenderer is a mock snapshot renderer
type MockRenderer struct {
	mock.Mock
}

func (m *MockRenderer) Render(ctx context.Context, tenantID, documentID, versionID uuid.UUID, payload []byte) (string, error) {
	args := m.Called(ctx, tenantID, documentID, versionID, payload)
	return args.String(0), args.Error(1)
}

func (m *MockRenderer) SnapshotURL(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

// stubPermStore serves canned ACL rows for resolver construction in tests
type stubPermStore struct {
	perms []permissions.FolderPermission
}

func (s *stubPermStore) ListFolderPermissions(ctx context.Context, tenantID, folderID uuid.UUID, roles []string) ([]permissions.FolderPermission, error) {
	return s.perms, nil
}

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

package documents

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"docuvault/document-portal/document-portal-backend/internal/auth"
)

func newTestRevisionManager(repo *MockRepository) *RevisionManager {
	return NewRevisionManager(repo, repo, fixedClock{now: testNow}, zap.NewNop())
}

func TestReviseRequiresApprovedSource(t *testing.T) {
	repo := new(MockRepository)
	m := newTestRevisionManager(repo)

	tenantID := uuid.New()
	doc := &Document{ID: uuid.New(), TenantID: tenantID, Status: StatusDraft}
	repo.On("GetDocument", mock.Anything, tenantID, doc.ID).Return(doc, nil)

	_, err := m.Revise(context.Background(), tenantID, doc.ID, auth.Actor{ID: uuid.New()})
	assert.True(t, IsDomainViolation(err, ViolationOnlyApproved))
}

func TestReviseRejectsSupersededSource(t *testing.T) {
	repo := new(MockRepository)
	m := newTestRevisionManager(repo)

	tenantID := uuid.New()
	successorID := uuid.New()
	doc := &Document{ID: uuid.New(), TenantID: tenantID, Status: StatusApproved, SupersededByID: &successorID}
	repo.On("GetDocument", mock.Anything, tenantID, doc.ID).Return(doc, nil)

	_, err := m.Revise(context.Background(), tenantID, doc.ID, auth.Actor{ID: uuid.New()})
	assert.True(t, IsDomainViolation(err, ViolationAlreadySuperseded))
}

func TestReviseClonesVersionAndAttachments(t *testing.T) {
	repo := new(MockRepository)
	m := newTestRevisionManager(repo)

	tenantID := uuid.New()
	versionID := uuid.New()
	actor := auth.Actor{ID: uuid.New(), TenantID: tenantID}
	source := &Document{
		ID:               uuid.New(),
		TenantID:         tenantID,
		DocumentNumber:   "DOC-2025-00041",
		Title:            "Calibration SOP",
		Status:           StatusApproved,
		CurrentVersionID: &versionID,
	}
	fileKey := "files/calibration-v3.pdf"
	fileName := "calibration-v3.pdf"
	sourceVersion := &DocumentVersion{
		ID:            versionID,
		DocumentID:    source.ID,
		VersionNumber: 3,
		IsFrozen:      true,
		ContentMode:   ContentModeFile,
		FileKey:       &fileKey,
		FileName:      &fileName,
	}
	attachments := []VersionAttachment{
		{ID: uuid.New(), VersionID: versionID, FileName: "annex-a.xlsx", FileKey: "files/annex-a.xlsx"},
	}

	var successorID uuid.UUID
	repo.On("GetDocument", mock.Anything, tenantID, source.ID).Return(source, nil)
	repo.On("NextDocumentNumber", mock.Anything, tenantID, testNow.Year()).Return(int64(7), nil)
	repo.On("CreateDocument", mock.Anything, mock.MatchedBy(func(d *Document) bool {
		successorID = d.ID
		return d.Status == StatusDraft &&
			d.DocumentNumber == "DOC-2026-00007" &&
			d.Title == source.Title &&
			d.SupersedesID != nil && *d.SupersedesID == source.ID &&
			d.CreatedBy == actor.ID
	})).Return(nil)
	repo.On("GetVersion", mock.Anything, versionID).Return(sourceVersion, nil)
	repo.On("CreateVersion", mock.Anything, mock.MatchedBy(func(v *DocumentVersion) bool {
		// Clones restart the version sequence and are editable again.
		return v.VersionNumber == 1 && !v.IsFrozen &&
			v.FileKey == sourceVersion.FileKey && v.CreatedBy == actor.ID
	})).Return(nil)
	repo.On("ListAttachments", mock.Anything, versionID).Return(attachments, nil)
	repo.On("CreateAttachment", mock.Anything, mock.MatchedBy(func(a *VersionAttachment) bool {
		return a.FileKey == attachments[0].FileKey && a.VersionID != versionID
	})).Return(nil)
	repo.On("SetCurrentVersion", mock.Anything, mock.AnythingOfType("uuid.UUID"), mock.AnythingOfType("uuid.UUID")).Return(nil)
	repo.On("MarkSuperseded", mock.Anything, source.ID, tenantID, mock.AnythingOfType("uuid.UUID")).Return(int64(1), nil)
	repo.On("Record", mock.Anything, auditAction("document.revised")).Return(nil)
	repo.On("GetDocument", mock.Anything, tenantID, mock.MatchedBy(func(id uuid.UUID) bool {
		return id == successorID
	})).Return(&Document{ID: successorID, TenantID: tenantID, Status: StatusDraft}, nil)

	out, err := m.Revise(context.Background(), tenantID, source.ID, actor)
	assert.NoError(t, err)
	assert.NotNil(t, out)
	assert.Equal(t, StatusDraft, out.Status)
	repo.AssertExpectations(t)
}

func TestReviseLostLinkRace(t *testing.T) {
	repo := new(MockRepository)
	m := newTestRevisionManager(repo)

	tenantID := uuid.New()
	actor := auth.Actor{ID: uuid.New(), TenantID: tenantID}
	source := &Document{ID: uuid.New(), TenantID: tenantID, DocumentNumber: "DOC-2025-00041", Status: StatusApproved}

	repo.On("GetDocument", mock.Anything, tenantID, source.ID).Return(source, nil)
	repo.On("NextDocumentNumber", mock.Anything, tenantID, testNow.Year()).Return(int64(8), nil)
	repo.On("CreateDocument", mock.Anything, mock.AnythingOfType("*documents.Document")).Return(nil)
	// A concurrent revision linked its successor first.
	repo.On("MarkSuperseded", mock.Anything, source.ID, tenantID, mock.AnythingOfType("uuid.UUID")).Return(int64(0), nil)

	_, err := m.Revise(context.Background(), tenantID, source.ID, actor)
	assert.True(t, errors.Is(err, ErrStateMismatch))
	repo.AssertNotCalled(t, "Record", mock.Anything, mock.Anything)
}

func TestLineageWalksSupersedesChain(t *testing.T) {
	repo := new(MockRepository)
	m := newTestRevisionManager(repo)

	tenantID := uuid.New()
	oldestID := uuid.New()
	middleID := uuid.New()
	newestID := uuid.New()

	oldest := &Document{ID: oldestID, TenantID: tenantID, DocumentNumber: "DOC-2024-00001", Status: StatusObsolete, SupersededByID: &middleID}
	middle := &Document{ID: middleID, TenantID: tenantID, DocumentNumber: "DOC-2025-00003", Status: StatusObsolete, SupersedesID: &oldestID, SupersededByID: &newestID}
	newest := &Document{ID: newestID, TenantID: tenantID, DocumentNumber: "DOC-2026-00007", Status: StatusApproved, SupersedesID: &middleID}

	repo.On("GetDocument", mock.Anything, tenantID, newestID).Return(newest, nil)
	repo.On("Predecessor", mock.Anything, tenantID, newestID).Return(middle, nil)
	repo.On("Predecessor", mock.Anything, tenantID, middleID).Return(oldest, nil)

	chain, err := m.Lineage(context.Background(), tenantID, newestID)
	assert.NoError(t, err)
	if assert.Len(t, chain, 3) {
		assert.Equal(t, newestID, chain[0].ID)
		assert.Equal(t, middleID, chain[1].ID)
		assert.Equal(t, oldestID, chain[2].ID)
	}
}

package documents

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"docuvault/document-portal/document-portal-backend/internal/audit"
	"docuvault/document-portal/document-portal-backend/internal/auth"
)

// ReviewCycleManager runs the multi-reviewer approval sub-process nested
// inside the top-level SUBMITTED status. The cycle resolves when no PENDING
// reviews remain; a single rejection resolves it immediately.
type ReviewCycleManager struct {
	repo      Repository
	finalizer *ApprovalFinalizer
	clock     Clock
	logger    *zap.Logger
}

// NewReviewCycleManager creates a manager bound to an open transaction's repository.
func NewReviewCycleManager(repo Repository, finalizer *ApprovalFinalizer, clock Clock, logger *zap.Logger) *ReviewCycleManager {
	return &ReviewCycleManager{repo: repo, finalizer: finalizer, clock: clock, logger: logger}
}

// Start opens a review cycle: one PENDING review per assignment, document to
// SUBMITTED with review mode on, current version frozen.
func (m *ReviewCycleManager) Start(ctx context.Context, tenantID, documentID uuid.UUID, actor auth.Actor, assignments []ReviewerAssignment) (*Document, error) {
	if len(assignments) == 0 {
		return nil, newDomainViolation(ViolationEmptyReviewerList, "a review cycle needs at least one reviewer")
	}

	doc, err := m.repo.GetDocument(ctx, tenantID, documentID)
	if err != nil {
		return nil, err
	}
	if doc.Status != StatusDraft && doc.Status != StatusRejected {
		return nil, fmt.Errorf("%w: cannot start review from %s", ErrInvalidTransition, doc.Status)
	}

	reviews := make([]DocumentReview, 0, len(assignments))
	for _, a := range assignments {
		stage := a.Stage
		if stage < 1 {
			stage = 1
		}
		reviews = append(reviews, DocumentReview{
			ID:         uuid.New(),
			DocumentID: doc.ID,
			ReviewerID: a.ReviewerID,
			Stage:      stage,
			Status:     ReviewPending,
		})
	}
	if err := m.repo.CreateReviews(ctx, reviews); err != nil {
		return nil, err
	}

	rows, err := m.repo.UpdateDocumentStatusWhere(ctx, doc.ID, tenantID, doc.Status, StatusSubmitted, map[string]interface{}{
		"review_mode": true,
	})
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, ErrStateMismatch
	}

	if doc.CurrentVersionID != nil {
		if err := m.repo.FreezeVersion(ctx, *doc.CurrentVersionID); err != nil {
			return nil, err
		}
	}

	if err := m.repo.AppendHistory(ctx, &WorkflowHistoryEntry{
		TenantID:   tenantID,
		DocumentID: doc.ID,
		FromStatus: doc.Status,
		ToStatus:   StatusSubmitted,
		ActorID:    actor.ID,
	}); err != nil {
		return nil, err
	}

	metadata, _ := newAuditMetadata(map[string]interface{}{"reviewer_count": len(reviews)})
	if err := m.repo.Record(ctx, audit.Entry{
		TenantID:   tenantID,
		ActorID:    actor.ID,
		EntityType: "document",
		EntityID:   doc.ID,
		Action:     "document.review_started",
		Details:    fmt.Sprintf("review cycle started with %d reviewers", len(reviews)),
		Metadata:   metadata,
	}); err != nil {
		return nil, err
	}

	m.logger.Info("Review cycle started",
		zap.String("document_id", doc.ID.String()),
		zap.Int("reviewers", len(reviews)))
	return m.repo.GetDocument(ctx, tenantID, doc.ID)
}

// Decide records one reviewer's verdict. A rejection cancels every other
// pending review and moves the document to REJECTED; an approval moves the
// document to APPROVED only once no pending reviews remain.
func (m *ReviewCycleManager) Decide(ctx context.Context, tenantID, documentID, reviewerID uuid.UUID, decision ReviewDecision, comment string) (*ReviewOutcome, error) {
	doc, err := m.repo.GetDocument(ctx, tenantID, documentID)
	if err != nil {
		return nil, err
	}
	if doc.Status != StatusSubmitted {
		return nil, fmt.Errorf("%w: cannot decide a review while document is %s", ErrInvalidTransition, doc.Status)
	}

	review, err := m.repo.GetPendingReview(ctx, doc.ID, reviewerID)
	if err != nil {
		return nil, err
	}
	if review == nil {
		return nil, newDomainViolation(ViolationReviewNotPending,
			"reviewer %s has no pending review for this document", reviewerID)
	}

	actor := auth.Actor{ID: reviewerID, TenantID: tenantID}
	now := m.clock.Now()

	switch decision {
	case DecisionReject:
		rows, err := m.repo.UpdateReviewStatus(ctx, review.ID, ReviewPending, ReviewRejected, comment, now)
		if err != nil {
			return nil, err
		}
		if rows == 0 {
			return nil, ErrStateMismatch
		}
		cancelled, err := m.repo.CancelPendingReviews(ctx, doc.ID, &review.ID)
		if err != nil {
			return nil, err
		}
		rows, err = m.repo.UpdateDocumentStatusWhere(ctx, doc.ID, tenantID, StatusSubmitted, StatusRejected, map[string]interface{}{
			"review_mode": false,
		})
		if err != nil {
			return nil, err
		}
		if rows == 0 {
			return nil, ErrStateMismatch
		}

		if err := m.repo.AppendHistory(ctx, &WorkflowHistoryEntry{
			TenantID:   tenantID,
			DocumentID: doc.ID,
			FromStatus: StatusSubmitted,
			ToStatus:   StatusRejected,
			ActorID:    reviewerID,
			Comment:    comment,
		}); err != nil {
			return nil, err
		}
		metadata, _ := newAuditMetadata(map[string]interface{}{
			"cancelled_reviews": cancelled,
			"comment":           comment,
		})
		if err := m.repo.Record(ctx, audit.Entry{
			TenantID:   tenantID,
			ActorID:    reviewerID,
			EntityType: "document",
			EntityID:   doc.ID,
			Action:     "document.review_rejected",
			Details:    fmt.Sprintf("review rejected, %d pending reviews cancelled", cancelled),
			Metadata:   metadata,
		}); err != nil {
			return nil, err
		}
		return &ReviewOutcome{Status: StatusRejected}, nil

	case DecisionApprove:
		rows, err := m.repo.UpdateReviewStatus(ctx, review.ID, ReviewPending, ReviewApproved, comment, now)
		if err != nil {
			return nil, err
		}
		if rows == 0 {
			return nil, ErrStateMismatch
		}
		pending, err := m.repo.CountPendingReviews(ctx, doc.ID)
		if err != nil {
			return nil, err
		}
		if pending > 0 {
			if err := m.repo.Record(ctx, audit.Entry{
				TenantID:   tenantID,
				ActorID:    reviewerID,
				EntityType: "document",
				EntityID:   doc.ID,
				Action:     "document.review_approved",
				Details:    fmt.Sprintf("review approved, %d reviews still pending", pending),
			}); err != nil {
				return nil, err
			}
			return &ReviewOutcome{Status: StatusSubmitted, PendingCount: pending}, nil
		}

		// Last pending review cleared: the cycle resolves to approval.
		if err := m.finalizer.Finalize(ctx, doc, actor, comment); err != nil {
			return nil, err
		}
		if err := cascadeAutoObsolete(ctx, m.repo, doc, actor, m.logger); err != nil {
			return nil, err
		}
		if err := m.repo.AppendHistory(ctx, &WorkflowHistoryEntry{
			TenantID:   tenantID,
			DocumentID: doc.ID,
			FromStatus: StatusSubmitted,
			ToStatus:   StatusApproved,
			ActorID:    reviewerID,
			Comment:    comment,
		}); err != nil {
			return nil, err
		}
		return &ReviewOutcome{Status: StatusApproved}, nil

	default:
		return nil, fmt.Errorf("%w: unknown review decision %q", ErrInvalidWorkflowAction, decision)
	}
}

// Withdraw returns a SUBMITTED document to DRAFT, cancelling any pending
// reviews. It is also the generic withdraw path for documents submitted
// without reviewers; cancelling zero reviews is a no-op. The frozen version
// stays frozen: editing after withdraw requires a new version.
func (m *ReviewCycleManager) Withdraw(ctx context.Context, doc *Document, actor auth.Actor) (*Document, error) {
	if doc.Status != StatusSubmitted {
		return nil, fmt.Errorf("%w: cannot withdraw from %s", ErrInvalidTransition, doc.Status)
	}

	cancelled, err := m.repo.CancelPendingReviews(ctx, doc.ID, nil)
	if err != nil {
		return nil, err
	}
	rows, err := m.repo.UpdateDocumentStatusWhere(ctx, doc.ID, doc.TenantID, StatusSubmitted, StatusDraft, map[string]interface{}{
		"review_mode": false,
	})
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, ErrStateMismatch
	}

	if err := m.repo.AppendHistory(ctx, &WorkflowHistoryEntry{
		TenantID:   doc.TenantID,
		DocumentID: doc.ID,
		FromStatus: StatusSubmitted,
		ToStatus:   StatusDraft,
		ActorID:    actor.ID,
	}); err != nil {
		return nil, err
	}
	metadata, _ := newAuditMetadata(map[string]interface{}{"cancelled_reviews": cancelled})
	if err := m.repo.Record(ctx, audit.Entry{
		TenantID:   doc.TenantID,
		ActorID:    actor.ID,
		EntityType: "document",
		EntityID:   doc.ID,
		Action:     "document.withdrawn",
		Details:    fmt.Sprintf("withdrawn to draft, %d pending reviews cancelled", cancelled),
		Metadata:   metadata,
	}); err != nil {
		return nil, err
	}

	return m.repo.GetDocument(ctx, doc.TenantID, doc.ID)
}

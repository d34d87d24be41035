package documents

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"docuvault/document-portal/document-portal-backend/internal/auth"
	"docuvault/document-portal/document-portal-backend/internal/permissions"
	"docuvault/document-portal/document-portal-backend/pkg/snapshot"
)

// Service is the transactional facade over the workflow engine. Each entry
// point opens exactly one unit of work; the orchestrator, review cycle
// manager, revision manager and finalizer all run inside it on the tx-bound
// repository, and the permission resolver reads ACLs through the same handle.
type Service struct {
	repo     Repository
	renderer snapshot.Renderer
	clock    Clock
	logger   *zap.Logger
}

// NewService creates the workflow service. A nil clock defaults to the wall clock.
func NewService(repo Repository, renderer snapshot.Renderer, clock Clock, logger *zap.Logger) *Service {
	if clock == nil {
		clock = SystemClock()
	}
	return &Service{repo: repo, renderer: renderer, clock: clock, logger: logger}
}

func (s *Service) orchestrator(tx Repository) *Orchestrator {
	resolver := permissions.NewResolver(tx, s.logger)
	finalizer := NewApprovalFinalizer(tx, s.renderer, s.clock, s.logger)
	reviews := NewReviewCycleManager(tx, finalizer, s.clock, s.logger)
	return NewOrchestrator(tx, resolver, reviews, finalizer, s.clock, s.logger)
}

// Transition applies one workflow action atomically and returns the updated document.
func (s *Service) Transition(ctx context.Context, tenantID, documentID uuid.UUID, action Action, actor auth.Actor, comment string) (*Document, error) {
	var out *Document
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		doc, err := s.orchestrator(tx).Transition(ctx, tenantID, documentID, action, actor, comment)
		if err != nil {
			return err
		}
		out = doc
		return nil
	})
	return out, err
}

// StartReview submits a document into a review cycle with the given reviewer
// assignments. Authorized like submit: folder WRITE or the global edit permission.
func (s *Service) StartReview(ctx context.Context, tenantID, documentID uuid.UUID, actor auth.Actor, assignments []ReviewerAssignment) (*Document, error) {
	var out *Document
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		doc, err := tx.GetDocument(ctx, tenantID, documentID)
		if err != nil {
			return err
		}
		resolver := permissions.NewResolver(tx, s.logger)
		allowed, err := resolver.ResolveAccess(ctx, actor, doc.FolderID, permissions.LevelWrite, permissions.PermDocumentsEdit)
		if err != nil {
			return err
		}
		if !allowed {
			return fmt.Errorf("%w: starting a review requires folder write access", ErrUnauthorizedWorkflowAction)
		}

		finalizer := NewApprovalFinalizer(tx, s.renderer, s.clock, s.logger)
		reviews := NewReviewCycleManager(tx, finalizer, s.clock, s.logger)
		doc, err = reviews.Start(ctx, tenantID, documentID, actor, assignments)
		if err != nil {
			return err
		}
		out = doc
		return nil
	})
	return out, err
}

// DecideReview records one reviewer's decision on their pending review.
func (s *Service) DecideReview(ctx context.Context, tenantID, documentID, reviewerID uuid.UUID, decision ReviewDecision, comment string) (*ReviewOutcome, error) {
	var out *ReviewOutcome
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		finalizer := NewApprovalFinalizer(tx, s.renderer, s.clock, s.logger)
		reviews := NewReviewCycleManager(tx, finalizer, s.clock, s.logger)
		outcome, err := reviews.Decide(ctx, tenantID, documentID, reviewerID, decision, comment)
		if err != nil {
			return err
		}
		out = outcome
		return nil
	})
	return out, err
}

// Revise creates a new DRAFT successor for an approved document.
func (s *Service) Revise(ctx context.Context, tenantID, documentID uuid.UUID, actor auth.Actor) (*Document, error) {
	var out *Document
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		doc, err := tx.GetDocument(ctx, tenantID, documentID)
		if err != nil {
			return err
		}
		resolver := permissions.NewResolver(tx, s.logger)
		allowed, err := resolver.ResolveAccess(ctx, actor, doc.FolderID, permissions.LevelWrite, permissions.PermDocumentsEdit)
		if err != nil {
			return err
		}
		if !allowed {
			return fmt.Errorf("%w: revising requires folder write access", ErrUnauthorizedWorkflowAction)
		}

		revisions := NewRevisionManager(tx, tx, s.clock, s.logger)
		successor, err := revisions.Revise(ctx, tenantID, documentID, actor)
		if err != nil {
			return err
		}
		out = successor
		return nil
	})
	return out, err
}

// Lineage returns the revision chain for a document, newest first.
func (s *Service) Lineage(ctx context.Context, tenantID, documentID uuid.UUID) ([]Document, error) {
	revisions := NewRevisionManager(s.repo, s.repo, s.clock, s.logger)
	return revisions.Lineage(ctx, tenantID, documentID)
}

// SnapshotLink returns a short-lived download URL for the approval snapshot of
// the document's current version.
func (s *Service) SnapshotLink(ctx context.Context, tenantID, documentID uuid.UUID, actor auth.Actor) (string, error) {
	doc, err := s.repo.GetDocument(ctx, tenantID, documentID)
	if err != nil {
		return "", err
	}
	resolver := permissions.NewResolver(s.repo, s.logger)
	allowed, err := resolver.ResolveAccess(ctx, actor, doc.FolderID, permissions.LevelRead, permissions.PermDocumentsRead)
	if err != nil {
		return "", err
	}
	if !allowed {
		return "", fmt.Errorf("%w: reading a snapshot requires folder read access", ErrUnauthorizedWorkflowAction)
	}
	if doc.CurrentVersionID == nil {
		return "", newDomainViolation(ViolationNoSnapshot, "document %s has no current version", doc.DocumentNumber)
	}
	version, err := s.repo.GetVersion(ctx, *doc.CurrentVersionID)
	if err != nil {
		return "", err
	}
	if version.SnapshotKey == nil {
		return "", newDomainViolation(ViolationNoSnapshot, "document %s has no rendered snapshot", doc.DocumentNumber)
	}
	return s.renderer.SnapshotURL(ctx, *version.SnapshotKey)
}

// EffectivePermissions exposes the folder-overlaid permission set for UI consumers.
func (s *Service) EffectivePermissions(ctx context.Context, actor auth.Actor, folderID *uuid.UUID) ([]string, error) {
	return permissions.NewResolver(s.repo, s.logger).EffectivePermissionSet(ctx, actor, folderID)
}

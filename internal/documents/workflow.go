package documents

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"docuvault/document-portal/document-portal-backend/internal/audit"
	"docuvault/document-portal/document-portal-backend/internal/auth"
	"docuvault/document-portal/document-portal-backend/internal/permissions"
)

// Orchestrator is the single entry point for workflow transitions. It
// validates, authorizes and executes one transition inside the transaction it
// was constructed with; no step is observable half-applied.
type Orchestrator struct {
	repo      Repository
	perms     *permissions.Resolver
	reviews   *ReviewCycleManager
	finalizer *ApprovalFinalizer
	clock     Clock
	logger    *zap.Logger
}

// NewOrchestrator creates an orchestrator bound to an open transaction's repository.
func NewOrchestrator(repo Repository, perms *permissions.Resolver, reviews *ReviewCycleManager, finalizer *ApprovalFinalizer, clock Clock, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		repo:      repo,
		perms:     perms,
		reviews:   reviews,
		finalizer: finalizer,
		clock:     clock,
		logger:    logger,
	}
}

// Transition applies one workflow action to a document and returns the
// reloaded document. Errors follow the package taxonomy; the caller owns the
// transaction and rolls everything back on error.
func (o *Orchestrator) Transition(ctx context.Context, tenantID, documentID uuid.UUID, action Action, actor auth.Actor, comment string) (*Document, error) {
	doc, err := o.repo.GetDocument(ctx, tenantID, documentID)
	if err != nil {
		return nil, err
	}

	if err := o.authorize(ctx, doc, action, actor); err != nil {
		return nil, err
	}

	if DeriveEffectiveStatus(doc, o.clock.Now()) == EffectiveExpired {
		return nil, newDomainViolation(ViolationExpired, "document %s has expired", doc.DocumentNumber)
	}

	// Withdraw and review-mode documents belong to the review cycle manager:
	// it owns the nested state machine and must cancel in-flight reviews.
	if action == ActionWithdraw {
		return o.reviews.Withdraw(ctx, doc, actor)
	}

	rule, err := RuleFor(action)
	if err != nil {
		return nil, err
	}
	if doc.Status != rule.From {
		return nil, fmt.Errorf("%w: %s requires %s but document is %s",
			ErrInvalidTransition, action, rule.From, doc.Status)
	}
	if action == ActionReject && strings.TrimSpace(comment) == "" {
		return nil, newDomainViolation(ViolationCommentRequired, "rejecting a document requires a comment")
	}
	if action == ActionObsolete && doc.SupersededByID != nil {
		return nil, newDomainViolation(ViolationAlreadySuperseded,
			"document %s is already superseded; obsolescence cascades from its successor", doc.DocumentNumber)
	}

	if doc.ReviewMode {
		outcome, err := o.reviews.Decide(ctx, tenantID, doc.ID, actor.ID, decisionFor(action), comment)
		if err != nil {
			return nil, err
		}
		o.logger.Info("Transition delegated to review cycle",
			zap.String("document_id", doc.ID.String()),
			zap.String("action", string(action)),
			zap.String("status", string(outcome.Status)))
		return o.repo.GetDocument(ctx, tenantID, doc.ID)
	}

	if err := o.executeDirect(ctx, doc, rule, actor, comment); err != nil {
		return nil, err
	}

	if err := o.repo.AppendHistory(ctx, &WorkflowHistoryEntry{
		TenantID:   tenantID,
		DocumentID: doc.ID,
		FromStatus: rule.From,
		ToStatus:   rule.To,
		ActorID:    actor.ID,
		Comment:    comment,
	}); err != nil {
		return nil, err
	}
	metadata, _ := newAuditMetadata(map[string]interface{}{
		"action":  action,
		"from":    rule.From,
		"to":      rule.To,
		"comment": comment,
	})
	if err := o.repo.Record(ctx, audit.Entry{
		TenantID:   tenantID,
		ActorID:    actor.ID,
		EntityType: "document",
		EntityID:   doc.ID,
		Action:     "document.workflow_transition",
		Details:    fmt.Sprintf("%s: %s -> %s", action, rule.From, rule.To),
		Metadata:   metadata,
	}); err != nil {
		return nil, err
	}

	o.logger.Info("Workflow transition applied",
		zap.String("document_id", doc.ID.String()),
		zap.String("action", string(action)),
		zap.String("from", string(rule.From)),
		zap.String("to", string(rule.To)),
		zap.String("actor_id", actor.ID.String()))
	return o.repo.GetDocument(ctx, tenantID, doc.ID)
}

func (o *Orchestrator) authorize(ctx context.Context, doc *Document, action Action, actor auth.Actor) error {
	if action == ActionWithdraw {
		if doc.CreatedBy == actor.ID {
			return nil
		}
		allowed, err := o.perms.ResolveAccess(ctx, actor, doc.FolderID, permissions.LevelWrite, permissions.PermDocumentsWithdraw)
		if err != nil {
			return err
		}
		if !allowed {
			return fmt.Errorf("%w: withdraw needs creator identity or folder write access", ErrUnauthorizedWorkflowAction)
		}
		return nil
	}

	rule, err := RuleFor(action)
	if err != nil {
		return err
	}
	allowed, err := o.perms.ResolveAccess(ctx, actor, doc.FolderID, rule.FolderLevel, rule.GlobalPermission)
	if err != nil {
		return err
	}
	if !allowed {
		return fmt.Errorf("%w: %s requires folder %s or %s",
			ErrUnauthorizedWorkflowAction, action, rule.FolderLevel, rule.GlobalPermission)
	}
	return nil
}

// executeDirect applies a table transition without a review cycle. Approval
// routes through the finalizer; every write is condition-checked so a
// concurrent transition surfaces as ErrStateMismatch instead of a silent
// overwrite.
func (o *Orchestrator) executeDirect(ctx context.Context, doc *Document, rule TransitionRule, actor auth.Actor, comment string) error {
	switch rule.Action {
	case ActionApprove:
		if err := o.finalizer.Finalize(ctx, doc, actor, comment); err != nil {
			return err
		}
		return cascadeAutoObsolete(ctx, o.repo, doc, actor, o.logger)

	case ActionSubmit:
		rows, err := o.repo.UpdateDocumentStatusWhere(ctx, doc.ID, doc.TenantID, rule.From, rule.To, nil)
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrStateMismatch
		}
		if doc.CurrentVersionID != nil {
			return o.repo.FreezeVersion(ctx, *doc.CurrentVersionID)
		}
		return nil

	default:
		rows, err := o.repo.UpdateDocumentStatusWhere(ctx, doc.ID, doc.TenantID, rule.From, rule.To, nil)
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrStateMismatch
		}
		return nil
	}
}

// decisionFor maps a delegated table action onto a review decision.
func decisionFor(action Action) ReviewDecision {
	if action == ActionReject {
		return DecisionReject
	}
	return DecisionApprove
}

// cascadeAutoObsolete retires the predecessor of a newly approved revision.
// The write is condition-checked on the predecessor still being APPROVED; a
// predecessor already moved by a concurrent actor is an expected benign race
// and the cascade is silently skipped.
func cascadeAutoObsolete(ctx context.Context, repo Repository, doc *Document, actor auth.Actor, logger *zap.Logger) error {
	if doc.SupersedesID == nil {
		return nil
	}
	predecessorID := *doc.SupersedesID

	rows, err := repo.UpdateDocumentStatusWhere(ctx, predecessorID, doc.TenantID, StatusApproved, StatusObsolete, nil)
	if err != nil {
		return err
	}
	if rows == 0 {
		logger.Debug("Auto-obsolete cascade skipped, predecessor already moved",
			zap.String("predecessor_id", predecessorID.String()),
			zap.String("successor_id", doc.ID.String()))
		return nil
	}

	if err := repo.AppendHistory(ctx, &WorkflowHistoryEntry{
		TenantID:   doc.TenantID,
		DocumentID: predecessorID,
		FromStatus: StatusApproved,
		ToStatus:   StatusObsolete,
		ActorID:    actor.ID,
		Comment:    fmt.Sprintf("superseded by %s", doc.DocumentNumber),
	}); err != nil {
		return err
	}
	metadata, _ := newAuditMetadata(map[string]interface{}{"successor_id": doc.ID})
	return repo.Record(ctx, audit.Entry{
		TenantID:   doc.TenantID,
		ActorID:    actor.ID,
		EntityType: "document",
		EntityID:   predecessorID,
		Action:     "document.auto_obsoleted",
		Details:    fmt.Sprintf("obsoleted by approval of successor %s", doc.DocumentNumber),
		Metadata:   metadata,
	})
}

package documents

import (
	"fmt"

	"docuvault/document-portal/document-portal-backend/internal/permissions"
)

// Action is a named workflow operation on a document.
type Action string

const (
	ActionSubmit   Action = "submit"
	ActionApprove  Action = "approve"
	ActionReject   Action = "reject"
	ActionRevise   Action = "revise"
	ActionObsolete Action = "obsolete"

	// ActionWithdraw returns SUBMITTED to DRAFT. It is not a transition table
	// row: it is authorized by creator identity or folder WRITE access and must
	// also cancel in-flight reviews, so the review cycle manager owns it.
	ActionWithdraw Action = "withdraw"
)

// TransitionRule declares one legal transition: the required source status,
// the resulting status, the folder access level the action needs, and the
// global permission code used when the folder carries no ACL.
type TransitionRule struct {
	Action           Action
	From             DocumentStatus
	To               DocumentStatus
	FolderLevel      permissions.AccessLevel
	GlobalPermission string
}

var transitionTable = map[Action]TransitionRule{
	ActionSubmit: {
		Action:           ActionSubmit,
		From:             StatusDraft,
		To:               StatusSubmitted,
		FolderLevel:      permissions.LevelWrite,
		GlobalPermission: permissions.PermDocumentsEdit,
	},
	ActionApprove: {
		Action:           ActionApprove,
		From:             StatusSubmitted,
		To:               StatusApproved,
		FolderLevel:      permissions.LevelReview,
		GlobalPermission: permissions.PermDocumentsApprove,
	},
	ActionReject: {
		Action:           ActionReject,
		From:             StatusSubmitted,
		To:               StatusRejected,
		FolderLevel:      permissions.LevelReview,
		GlobalPermission: permissions.PermDocumentsReject,
	},
	ActionRevise: {
		Action:           ActionRevise,
		From:             StatusRejected,
		To:               StatusDraft,
		FolderLevel:      permissions.LevelWrite,
		GlobalPermission: permissions.PermDocumentsEdit,
	},
	ActionObsolete: {
		Action:           ActionObsolete,
		From:             StatusApproved,
		To:               StatusObsolete,
		FolderLevel:      permissions.LevelWrite,
		GlobalPermission: permissions.PermDocumentsDelete,
	},
}

// RuleFor returns the transition rule for an action, or
// ErrInvalidWorkflowAction for names outside the table. Withdraw is
// deliberately not a table row; see ActionWithdraw.
func RuleFor(action Action) (TransitionRule, error) {
	rule, ok := transitionTable[action]
	if !ok {
		return TransitionRule{}, fmt.Errorf("%w: %q", ErrInvalidWorkflowAction, action)
	}
	return rule, nil
}

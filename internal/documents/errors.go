package documents

import (
	"errors"
	"fmt"
)

// Workflow error taxonomy. Every error rejects the whole attempted transition;
// no transition is ever partially applied.
var (
	// ErrDocumentNotFound is returned when the id does not exist under the tenant.
	ErrDocumentNotFound = errors.New("document not found")

	// ErrInvalidWorkflowAction is returned for action names outside the transition table.
	ErrInvalidWorkflowAction = errors.New("invalid workflow action")

	// ErrInvalidTransition is returned when the persisted status does not match
	// the action's required source status.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrUnauthorizedWorkflowAction is returned when the actor lacks both the
	// folder-level and the global permission for the action.
	ErrUnauthorizedWorkflowAction = errors.New("not authorized for workflow action")

	// ErrStateMismatch is returned when an optimistic status update affected no
	// rows because a concurrent actor moved the document first. Callers should
	// reload and may retry.
	ErrStateMismatch = errors.New("document state changed concurrently")
)

// Domain violation codes.
const (
	ViolationExpired            = "EXPIRED"
	ViolationCommentRequired    = "COMMENT_REQUIRED"
	ViolationAlreadySuperseded  = "ALREADY_SUPERSEDED"
	ViolationOnlyApproved       = "ONLY_APPROVED"
	ViolationEmptyReviewerList  = "EMPTY_REVIEWER_LIST"
	ViolationReviewNotPending   = "REVIEW_NOT_PENDING"
	ViolationReviewNotStartable = "REVIEW_NOT_STARTABLE"
	ViolationNoSnapshot         = "NO_SNAPSHOT"
)

// DomainViolationError reports a business rule failure with a stable code the
// caller can map to a user-facing message.
type DomainViolationError struct {
	Code    string
	Message string
}

func (e *DomainViolationError) Error() string {
	return fmt.Sprintf("domain violation %s: %s", e.Code, e.Message)
}

func newDomainViolation(code, format string, args ...interface{}) error {
	return &DomainViolationError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// IsDomainViolation reports whether err is a DomainViolationError, optionally
// matching a specific code.
func IsDomainViolation(err error, code string) bool {
	var dv *DomainViolationError
	if !errors.As(err, &dv) {
		return false
	}
	return code == "" || dv.Code == code
}

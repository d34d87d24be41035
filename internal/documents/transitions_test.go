package documents

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"docuvault/document-portal/document-portal-backend/internal/permissions"
)

func TestRuleForCanonicalActions(t *testing.T) {
	cases := []struct {
		action Action
		from   DocumentStatus
		to     DocumentStatus
		level  permissions.AccessLevel
	}{
		{ActionSubmit, StatusDraft, StatusSubmitted, permissions.LevelWrite},
		{ActionApprove, StatusSubmitted, StatusApproved, permissions.LevelReview},
		{ActionReject, StatusSubmitted, StatusRejected, permissions.LevelReview},
		{ActionRevise, StatusRejected, StatusDraft, permissions.LevelWrite},
		{ActionObsolete, StatusApproved, StatusObsolete, permissions.LevelWrite},
	}

	for _, tc := range cases {
		rule, err := RuleFor(tc.action)
		assert.NoError(t, err, string(tc.action))
		assert.Equal(t, tc.from, rule.From, string(tc.action))
		assert.Equal(t, tc.to, rule.To, string(tc.action))
		assert.Equal(t, tc.level, rule.FolderLevel, string(tc.action))
		assert.NotEmpty(t, rule.GlobalPermission, string(tc.action))
	}
}

func TestRuleForUnknownAction(t *testing.T) {
	_, err := RuleFor(Action("publish"))
	assert.True(t, errors.Is(err, ErrInvalidWorkflowAction))
}

func TestRuleForWithdrawIsNotTabular(t *testing.T) {
	// Withdraw is owned by the review cycle manager, not the table.
	_, err := RuleFor(ActionWithdraw)
	assert.True(t, errors.Is(err, ErrInvalidWorkflowAction))
}

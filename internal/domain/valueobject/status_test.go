package valueobject_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/appraisal/internal/domain/valueobject"
)

func TestNewApplicationStatus_RoundTripsEveryStatus(t *testing.T) {
	for _, s := range valueobject.AllApplicationStatuses() {
		got, err := valueobject.NewApplicationStatus(s.String())
		require.NoError(t, err)
		assert.True(t, s.Equal(got))
	}

	_, err := valueobject.NewApplicationStatus("DISBURSED")
	assert.Error(t, err)
}

func TestApplicationStatus_TerminalAndInProgress(t *testing.T) {
	terminal := map[valueobject.ApplicationStatus]bool{
		valueobject.ApplicationStatusApproved:  true,
		valueobject.ApplicationStatusRejected:  true,
		valueobject.ApplicationStatusCancelled: true,
	}
	for _, s := range valueobject.AllApplicationStatuses() {
		assert.Equal(t, terminal[s], s.IsTerminal(), s.String())
	}

	assert.True(t, valueobject.ApplicationStatusInCommittee.IsInProgress())
	assert.False(t, valueobject.ApplicationStatusDraft.IsInProgress())
	assert.False(t, valueobject.ApplicationStatusPostponed.IsInProgress())
}

func TestNewDecisionStage(t *testing.T) {
	t.Run("accepts canonical and url forms", func(t *testing.T) {
		for _, raw := range []string{"COMMITTEE", "committee", "risk-officer", "Branch Manager"} {
			_, err := valueobject.NewDecisionStage(raw)
			assert.NoError(t, err, raw)
		}
	})

	t.Run("slug round-trips", func(t *testing.T) {
		for _, s := range valueobject.AllDecisionStages() {
			got, err := valueobject.NewDecisionStage(s.Slug())
			require.NoError(t, err)
			assert.True(t, s.Equal(got))
		}
	})

	t.Run("unknown stage is a validation error", func(t *testing.T) {
		_, err := valueobject.NewDecisionStage("board")
		require.Error(t, err)

		var vErr *valueobject.ValidationError
		require.True(t, errors.As(err, &vErr))
		assert.Equal(t, "stage", vErr.Field)
		assert.ErrorIs(t, err, valueobject.ErrValidation)
	})
}

func TestNewDecision(t *testing.T) {
	tests := []struct {
		raw  string
		want valueobject.Decision
	}{
		{"", valueobject.DecisionPending},
		{"accord", valueobject.DecisionAccord},
		{"REFUSAL", valueobject.DecisionRefusal},
		{"refus", valueobject.DecisionRefusal},
		{"Ajournement", valueobject.DecisionPostponement},
		{"en attente", valueobject.DecisionPending},
	}
	for _, tt := range tests {
		got, err := valueobject.NewDecision(tt.raw)
		require.NoError(t, err, tt.raw)
		assert.True(t, tt.want.Equal(got), "%q -> %s", tt.raw, got)
	}

	_, err := valueobject.NewDecision("maybe")
	assert.ErrorIs(t, err, valueobject.ErrValidation)
}

func TestInvalidTransitionError(t *testing.T) {
	err := valueobject.NewInvalidTransitionError(valueobject.ApplicationStatusApproved, "record COMMITTEE decision")

	assert.ErrorIs(t, err, valueobject.ErrInvalidStatusTransition)
	assert.NotErrorIs(t, err, valueobject.ErrValidation)
	assert.Contains(t, err.Error(), "APPROVED")
}

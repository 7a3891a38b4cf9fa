package nomination

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestNomination() *Nomination {
	return New(uuid.New(), uuid.New(), "group-1", "subcat-1")
}

func TestTransitions(t *testing.T) {
	n := newTestNomination()
	assert.Equal(t, StateSubmitted, n.State)

	assert.True(t, n.CanTransitionTo(StateApproved))
	assert.True(t, n.CanTransitionTo(StateRejected))

	require.NoError(t, n.Approve("https://awards.example.com/nominees/jane-doe", ""))
	assert.Equal(t, StateApproved, n.State)
	require.NotNil(t, n.ApprovedAt)

	// approved is terminal except for an idempotent re-approve
	assert.False(t, n.CanTransitionTo(StateRejected))
	assert.Error(t, n.Reject("changed our mind", ""))
	assert.Equal(t, StateApproved, n.State)
}

func TestReapproveIsIdempotent(t *testing.T) {
	n := newTestNomination()
	require.NoError(t, n.Approve("https://awards.example.com/nominees/jane-doe", ""))
	first := *n.ApprovedAt

	require.NoError(t, n.Approve("https://awards.example.com/nominees/jane-doe", ""))
	assert.Equal(t, StateApproved, n.State)
	assert.Equal(t, "https://awards.example.com/nominees/jane-doe", n.LiveURL)
	// only the timestamp refreshes
	assert.False(t, n.ApprovedAt.Before(first))
}

func TestRejectTerminal(t *testing.T) {
	n := newTestNomination()
	require.NoError(t, n.Reject("incomplete", "notes"))
	assert.Equal(t, StateRejected, n.State)
	assert.Equal(t, "incomplete", n.RejectionReason)

	assert.Error(t, n.Approve("https://example.com/x", ""))
	assert.Equal(t, StateRejected, n.State)
}

func TestTotalVotes(t *testing.T) {
	n := newTestNomination()
	n.Votes = 10
	n.ManualAdjustment = -3
	assert.Equal(t, 7, n.TotalVotes())

	// fields stay separate
	assert.Equal(t, 10, n.Votes)
	assert.Equal(t, -3, n.ManualAdjustment)
}

func TestValidate(t *testing.T) {
	n := newTestNomination()
	assert.NoError(t, n.Validate())

	n.SubcategoryID = ""
	assert.Error(t, n.Validate())
}

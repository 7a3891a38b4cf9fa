package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gravadigital/nominations-api/internal/domain/outbox"
	"github.com/gravadigital/nominations-api/internal/storage/postgres"
)

func approvedNomination(t *testing.T, env *testEnv) *SubmissionResult {
	t.Helper()
	submitted := submitOne(t, env, "nominator@x.com")
	_, err := env.approvalService(testBaseURL).Decide(context.Background(), submitted.NominationID.String(), DecideNominationRequest{})
	require.NoError(t, err)
	return submitted
}

func voteRequest(nominationID, email string) CastVoteRequest {
	return CastVoteRequest{
		NominationID:  nominationID,
		SubcategoryID: "subcat-1",
		Voter: ContactInput{
			Email:     email,
			FirstName: "Vera",
			LastName:  "Voter",
		},
	}
}

func TestCastVoteIncrementsCounterAndEnqueues(t *testing.T) {
	env := newTestEnv(t)
	submitted := approvedNomination(t, env)
	svc := env.voteService()

	result, err := svc.Cast(context.Background(), voteRequest(submitted.NominationID.String(), "v@x.com"))
	require.NoError(t, err)

	assert.Equal(t, 1, result.TotalVotes)
	assert.True(t, result.SyncFlags["hubspot"])
	assert.True(t, result.SyncFlags["loops"])

	nom, err := env.nominations.GetByID(submitted.NominationID.String())
	require.NoError(t, err)
	assert.Equal(t, 1, nom.Votes)

	for _, repo := range []postgres.OutboxRepository{env.hubspotOutbox, env.loopsOutbox} {
		rows, err := repo.ListByStatus(outbox.StatusPending, 0)
		require.NoError(t, err)

		var casts int
		for _, ev := range rows {
			if ev.EventType == outbox.EventVoteCast {
				casts++
			}
		}
		assert.Equal(t, 1, casts, "%s should hold one vote_cast row", repo.System())
	}
}

func TestCastVoteRejectsDuplicatePerSubcategory(t *testing.T) {
	env := newTestEnv(t)
	submitted := approvedNomination(t, env)
	svc := env.voteService()

	_, err := svc.Cast(context.Background(), voteRequest(submitted.NominationID.String(), "v@x.com"))
	require.NoError(t, err)

	_, err = svc.Cast(context.Background(), voteRequest(submitted.NominationID.String(), "v@x.com"))
	assert.ErrorIs(t, err, ErrAlreadyVoted)

	// counter is untouched by the rejected attempt
	nom, err := env.nominations.GetByID(submitted.NominationID.String())
	require.NoError(t, err)
	assert.Equal(t, 1, nom.Votes)
}

func TestCastVoteDistinctVotersCount(t *testing.T) {
	env := newTestEnv(t)
	submitted := approvedNomination(t, env)
	svc := env.voteService()

	for _, email := range []string{"one@x.com", "two@x.com", "three@x.com"} {
		_, err := svc.Cast(context.Background(), voteRequest(submitted.NominationID.String(), email))
		require.NoError(t, err)
	}

	nom, err := env.nominations.GetByID(submitted.NominationID.String())
	require.NoError(t, err)
	assert.Equal(t, 3, nom.Votes)

	count, err := env.votes.CountBySubcategory("subcat-1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestCastVoteRequiresApprovedNomination(t *testing.T) {
	env := newTestEnv(t)
	submitted := submitOne(t, env, "nominator@x.com")
	svc := env.voteService()

	_, err := svc.Cast(context.Background(), voteRequest(submitted.NominationID.String(), "v@x.com"))
	assert.ErrorIs(t, err, ErrNotVotable)

	nom, err := env.nominations.GetByID(submitted.NominationID.String())
	require.NoError(t, err)
	assert.Equal(t, 0, nom.Votes)
}

func TestCastVoteSucceedsWhenExternalSystemsDown(t *testing.T) {
	env := newTestEnv(t)
	submitted := approvedNomination(t, env)
	env.hubspotAPI.alwaysFail = true
	env.loopsAPI.alwaysFail = true
	svc := env.voteService()

	result, err := svc.Cast(context.Background(), voteRequest(submitted.NominationID.String(), "v@x.com"))
	require.NoError(t, err)

	assert.False(t, result.SyncFlags["hubspot"])
	assert.False(t, result.SyncFlags["loops"])
	assert.Equal(t, 1, result.TotalVotes)
}

func TestManualAdjustmentShowsInTotalOnly(t *testing.T) {
	env := newTestEnv(t)
	submitted := approvedNomination(t, env)
	svc := env.voteService()

	_, err := svc.Cast(context.Background(), voteRequest(submitted.NominationID.String(), "v@x.com"))
	require.NoError(t, err)

	require.NoError(t, env.nominations.SetManualAdjustment(submitted.NominationID, 10))

	nom, err := env.nominations.GetByID(submitted.NominationID.String())
	require.NoError(t, err)
	assert.Equal(t, 1, nom.Votes)
	assert.Equal(t, 11, nom.TotalVotes())
}

package postgres

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gravadigital/nominations-api/internal/domain/vote"
)

func TestVoteUniquenessPerSubcategory(t *testing.T) {
	repo := NewPostgresVoteRepository(newTestDB(t))

	voterID := uuid.New()
	nominationID := uuid.New()

	require.NoError(t, repo.Create(vote.New(nominationID, voterID, "subcat-1")))

	has, err := repo.HasVoted(voterID, "subcat-1")
	require.NoError(t, err)
	assert.True(t, has)

	// same voter, same subcategory: rejected by the unique index
	err = repo.Create(vote.New(uuid.New(), voterID, "subcat-1"))
	assert.ErrorIs(t, err, ErrDuplicateVote)

	// same voter, different subcategory: allowed
	require.NoError(t, repo.Create(vote.New(nominationID, voterID, "subcat-2")))

	count, err := repo.CountBySubcategory("subcat-1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestHasVotedFalseInitially(t *testing.T) {
	repo := NewPostgresVoteRepository(newTestDB(t))

	has, err := repo.HasVoted(uuid.New(), "subcat-1")
	require.NoError(t, err)
	assert.False(t, has)
}

package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gravadigital/nominations-api/internal/domain/contact"
)

func TestUpsertByEmailCreatesThenUpdates(t *testing.T) {
	repo := NewPostgresContactRepository(newTestDB(t))

	first := contact.New("A@X.com", "Jane", "Doe")
	first.Company = "Acme"
	created, err := repo.UpsertByEmail(first)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", created.Email)

	// same email again: row count stays 1, attributes updated in place
	second := contact.New("a@x.com", "Janet", "Doe")
	second.Title = "CTO"
	updated, err := repo.UpsertByEmail(second)
	require.NoError(t, err)

	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "Janet", updated.FirstName)
	assert.Equal(t, "CTO", updated.Title)
	// attribute absent from the second submission is left untouched
	assert.Equal(t, "Acme", updated.Company)

	count, err := repo.CountByEmail("a@x.com")
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestUpsertByEmailRequiresEmail(t *testing.T) {
	repo := NewPostgresContactRepository(newTestDB(t))

	_, err := repo.UpsertByEmail(&contact.Contact{FirstName: "Jane"})
	assert.Error(t, err)
}

func TestGetByEmailNotFound(t *testing.T) {
	repo := NewPostgresContactRepository(newTestDB(t))

	_, err := repo.GetByEmail("nobody@x.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gravadigital/nominations-api/internal/domain/nomination"
	"github.com/gravadigital/nominations-api/internal/domain/outbox"
	"github.com/gravadigital/nominations-api/internal/validation"
)

func TestSubmitCreatesEntitiesAndOutboxRows(t *testing.T) {
	env := newTestEnv(t)
	svc := env.submissionService()

	result, err := svc.Submit(context.Background(), personSubmission("a@x.com"))
	require.NoError(t, err)

	assert.Equal(t, nomination.StateSubmitted, result.State)
	assert.True(t, result.SyncFlags["hubspot"])
	assert.True(t, result.SyncFlags["loops"])

	nom, err := env.nominations.GetByID(result.NominationID.String())
	require.NoError(t, err)
	assert.Equal(t, nomination.StateSubmitted, nom.State)
	assert.Zero(t, nom.Votes)

	// exactly one pending row per external system
	for _, repo := range []interface {
		ListByStatus(outbox.Status, int) ([]outbox.Event, error)
	}{env.hubspotOutbox, env.loopsOutbox} {
		rows, err := repo.ListByStatus(outbox.StatusPending, 0)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, outbox.EventNominationSubmitted, rows[0].EventType)
	}
}

func TestSubmitSucceedsWhenExternalSystemsDown(t *testing.T) {
	env := newTestEnv(t)
	env.hubspotAPI.alwaysFail = true
	env.loopsAPI.alwaysFail = true
	svc := env.submissionService()

	result, err := svc.Submit(context.Background(), personSubmission("a@x.com"))
	require.NoError(t, err)

	// the sync flags are informational only; durability comes from the outbox
	assert.False(t, result.SyncFlags["hubspot"])
	assert.False(t, result.SyncFlags["loops"])

	rows, err := env.hubspotOutbox.ListByStatus(outbox.StatusPending, 0)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestSubmitUpsertsNominatorByEmail(t *testing.T) {
	env := newTestEnv(t)
	svc := env.submissionService()

	first, err := svc.Submit(context.Background(), personSubmission("a@x.com"))
	require.NoError(t, err)

	second := personSubmission("A@X.com")
	second.Nominator.FirstName = "Nora"
	second.Nominee.FirstName = "John"
	result, err := svc.Submit(context.Background(), second)
	require.NoError(t, err)

	// one nominator row, updated to the second submission's values
	assert.Equal(t, first.NominatorID, result.NominatorID)
	count, err := env.contacts.CountByEmail("a@x.com")
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	nominator, err := env.contacts.GetByEmail("a@x.com")
	require.NoError(t, err)
	assert.Equal(t, "Nora", nominator.FirstName)

	// but a fresh nominee row each time
	assert.NotEqual(t, first.NomineeID, result.NomineeID)
}

func TestSubmitValidationEnumeratesEveryField(t *testing.T) {
	env := newTestEnv(t)
	svc := env.submissionService()

	req := SubmitNominationRequest{
		Type:      "robot",
		Nominator: ContactInput{Email: "not-an-email"},
	}

	_, err := svc.Submit(context.Background(), req)
	require.Error(t, err)

	var verr *validation.Errors
	require.ErrorAs(t, err, &verr)
	// type, categoryGroupId, subcategoryId, nominator.email, nominator name
	assert.GreaterOrEqual(t, len(verr.Fields), 5)

	// nothing was persisted
	rows, listErr := env.hubspotOutbox.ListByStatus(outbox.StatusPending, 0)
	require.NoError(t, listErr)
	assert.Empty(t, rows)
}

func TestSubmitCompanyNominee(t *testing.T) {
	env := newTestEnv(t)
	svc := env.submissionService()

	req := personSubmission("a@x.com")
	req.Type = "company"
	req.Nominee = NomineeInput{
		CompanyName: "Acme Labs",
		Domain:      "acme.example",
		Bio:         "They build things",
	}

	result, err := svc.Submit(context.Background(), req)
	require.NoError(t, err)

	n, err := env.nominees.GetByID(result.NomineeID.String())
	require.NoError(t, err)
	assert.Equal(t, "Acme Labs", n.DisplayName())
}

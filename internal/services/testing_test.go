package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/gravadigital/nominations-api/internal/crm"
	"github.com/gravadigital/nominations-api/internal/storage/postgres"
)

// newTestDB opens an in-memory sqlite database with the full schema.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, postgres.AutoMigrate(db))
	return db
}

// fakeAPI is an in-memory crm.ContactAPI with a scriptable failure budget.
type fakeAPI struct {
	name       string
	mu         sync.Mutex
	contacts   map[string]*crm.Contact
	failures   int
	alwaysFail bool
}

func newFakeAPI(name string) *fakeAPI {
	return &fakeAPI{name: name, contacts: map[string]*crm.Contact{}}
}

func (f *fakeAPI) Name() string { return f.name }

func (f *fakeAPI) fail() bool {
	if f.alwaysFail {
		return true
	}
	if f.failures > 0 {
		f.failures--
		return true
	}
	return false
}

func (f *fakeAPI) SearchByEmail(ctx context.Context, email string) (*crm.Contact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail() {
		return nil, errors.New(f.name + " unavailable")
	}
	if c, ok := f.contacts[email]; ok {
		return c, nil
	}
	return nil, nil
}

func (f *fakeAPI) Create(ctx context.Context, email string, attributes map[string]string) (*crm.Contact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail() {
		return nil, errors.New(f.name + " unavailable")
	}
	c := &crm.Contact{ID: uuid.NewString(), Email: email, Attributes: map[string]string{}}
	for k, v := range attributes {
		c.Attributes[k] = v
	}
	f.contacts[email] = c
	return c, nil
}

func (f *fakeAPI) Update(ctx context.Context, id string, attributes map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail() {
		return errors.New(f.name + " unavailable")
	}
	for _, c := range f.contacts {
		if c.ID == id {
			for k, v := range attributes {
				c.Attributes[k] = v
			}
			return nil
		}
	}
	return errors.New("contact not found")
}

// testEnv wires sqlite-backed repositories and fake CRM apis into the
// services under test.
type testEnv struct {
	db            *gorm.DB
	contacts      postgres.ContactRepository
	nominees      postgres.NomineeRepository
	nominations   postgres.NominationRepository
	votes         postgres.VoteRepository
	hubspotOutbox postgres.OutboxRepository
	loopsOutbox   postgres.OutboxRepository
	hubspotAPI    *fakeAPI
	loopsAPI      *fakeAPI
	targets       []SyncTarget
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := newTestDB(t)
	env := &testEnv{
		db:            db,
		contacts:      postgres.NewPostgresContactRepository(db),
		nominees:      postgres.NewPostgresNomineeRepository(db),
		nominations:   postgres.NewPostgresNominationRepository(db),
		votes:         postgres.NewPostgresVoteRepository(db),
		hubspotOutbox: postgres.NewHubSpotOutboxRepository(db),
		loopsOutbox:   postgres.NewLoopsOutboxRepository(db),
		hubspotAPI:    newFakeAPI("hubspot"),
		loopsAPI:      newFakeAPI("loops"),
	}
	env.targets = []SyncTarget{
		{Outbox: env.hubspotOutbox, Syncer: crm.NewSyncer(env.hubspotAPI, true)},
		{Outbox: env.loopsOutbox, Syncer: crm.NewSyncer(env.loopsAPI, true)},
	}
	return env
}

func (e *testEnv) submissionService() *SubmissionService {
	return NewSubmissionService(e.db, e.contacts, e.nominees, e.nominations, e.targets)
}

func (e *testEnv) approvalService(baseURL string) *ApprovalService {
	return NewApprovalService(e.db, e.contacts, e.nominees, e.nominations, e.targets, baseURL)
}

func (e *testEnv) voteService() *VoteService {
	return NewVoteService(e.db, e.contacts, e.nominees, e.nominations, e.votes, e.targets)
}

func (e *testEnv) processor(maxAttempts, batchSize int) *OutboxProcessor {
	return NewOutboxProcessor(e.targets, maxAttempts, batchSize)
}

// personSubmission is a valid baseline request used across tests.
func personSubmission(nominatorEmail string) SubmitNominationRequest {
	return SubmitNominationRequest{
		Type:            "person",
		CategoryGroupID: "group-1",
		SubcategoryID:   "subcat-1",
		Nominator: ContactInput{
			Email:     nominatorEmail,
			FirstName: "Norah",
			LastName:  "Nominator",
			Company:   "Acme",
		},
		Nominee: NomineeInput{
			FirstName: "Jane",
			LastName:  "Doe",
			Title:     "CTO",
			Bio:       "Builds things",
			WhyVote:   "Because",
		},
	}
}

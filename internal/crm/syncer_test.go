package crm

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAPI is an in-memory ContactAPI used to test the syncer contract.
type fakeAPI struct {
	mu         sync.Mutex
	contacts   map[string]*Contact
	failures   int
	alwaysFail bool
	calls      int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{contacts: map[string]*Contact{}}
}

func (f *fakeAPI) Name() string { return "fake" }

func (f *fakeAPI) fail() bool {
	f.calls++
	if f.alwaysFail {
		return true
	}
	if f.failures > 0 {
		f.failures--
		return true
	}
	return false
}

func (f *fakeAPI) SearchByEmail(ctx context.Context, email string) (*Contact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail() {
		return nil, errors.New("fake api unavailable")
	}
	if c, ok := f.contacts[email]; ok {
		return c, nil
	}
	return nil, nil
}

func (f *fakeAPI) Create(ctx context.Context, email string, attributes map[string]string) (*Contact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail() {
		return nil, errors.New("fake api unavailable")
	}
	c := &Contact{ID: uuid.NewString(), Email: email, Attributes: map[string]string{}}
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
		return errors.New("fake api unavailable")
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

func TestEnsureContactIdempotent(t *testing.T) {
	api := newFakeAPI()
	syncer := NewSyncer(api, true)

	attrs := map[string]string{"first_name": "Jane", "company": "Acme"}

	res := syncer.EnsureContact(context.Background(), "jane@x.com", attrs)
	require.True(t, res.Success)

	res = syncer.EnsureContact(context.Background(), "jane@x.com", attrs)
	require.True(t, res.Success)

	// exactly one contact, attributes equal to the last call's input
	assert.Len(t, api.contacts, 1)
	assert.Equal(t, "Jane", api.contacts["jane@x.com"].Attributes["first_name"])
	assert.Equal(t, "Acme", api.contacts["jane@x.com"].Attributes["company"])
}

func TestEnsureContactMergesAttributes(t *testing.T) {
	api := newFakeAPI()
	syncer := NewSyncer(api, true)

	res := syncer.EnsureContact(context.Background(), "jane@x.com", map[string]string{"first_name": "Jane", "country": "AR"})
	require.True(t, res.Success)

	// second call overlaps on first_name and adds title; country must survive
	res = syncer.EnsureContact(context.Background(), "jane@x.com", map[string]string{"first_name": "Janet", "title": "CTO"})
	require.True(t, res.Success)

	got := api.contacts["jane@x.com"].Attributes
	assert.Equal(t, "Janet", got["first_name"])
	assert.Equal(t, "CTO", got["title"])
	assert.Equal(t, "AR", got["country"])
}

func TestEnsureContactNormalizesEmail(t *testing.T) {
	api := newFakeAPI()
	syncer := NewSyncer(api, true)

	require.True(t, syncer.EnsureContact(context.Background(), "Jane@X.com", nil).Success)
	require.True(t, syncer.EnsureContact(context.Background(), "jane@x.com ", nil).Success)

	assert.Len(t, api.contacts, 1)
}

func TestEnsureContactFailureIsAValue(t *testing.T) {
	api := newFakeAPI()
	api.alwaysFail = true
	syncer := NewSyncer(api, true)

	res := syncer.EnsureContact(context.Background(), "jane@x.com", nil)
	assert.False(t, res.Success)
	assert.NotEmpty(t, res.Error)
}

func TestDisabledSyncerSkips(t *testing.T) {
	api := newFakeAPI()
	api.alwaysFail = true
	syncer := NewSyncer(api, false)

	res := syncer.EnsureContact(context.Background(), "jane@x.com", nil)
	assert.True(t, res.Success)
	assert.True(t, res.Skipped)
	assert.Zero(t, api.calls)
}

func TestEmptyEmailFails(t *testing.T) {
	syncer := NewSyncer(newFakeAPI(), true)
	res := syncer.EnsureContact(context.Background(), "   ", nil)
	assert.False(t, res.Success)
}

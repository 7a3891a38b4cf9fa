package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorsAccumulateEveryField(t *testing.T) {
	v := &Errors{}
	v.Required("email", "")
	v.Email("social", "not-an-email")
	v.URL("website", "not a url")
	v.OneOf("type", "robot", "person", "company")

	require.Error(t, v.Err())
	assert.Len(t, v.Fields, 4)

	fields := make([]string, len(v.Fields))
	for i, f := range v.Fields {
		fields[i] = f.Field
	}
	assert.ElementsMatch(t, []string{"email", "social", "website", "type"}, fields)
}

func TestErrNilWhenValid(t *testing.T) {
	v := &Errors{}
	v.Required("email", "a@x.com")
	v.Email("email", "a@x.com")
	v.URL("website", "https://example.com/page")
	v.OneOf("type", "person", "person", "company")

	assert.NoError(t, v.Err())
}

func TestEmailOptionalWhenEmpty(t *testing.T) {
	v := &Errors{}
	v.Email("email", "")
	v.URL("website", "")
	assert.NoError(t, v.Err())
}

func TestURLRejectsRelativeAndBadScheme(t *testing.T) {
	v := &Errors{}
	v.URL("a", "/relative/path")
	v.URL("b", "ftp://example.com/x")
	assert.Len(t, v.Fields, 2)
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "a@x.com", NormalizeEmail("  A@X.COM "))
}

func TestValidateUUID(t *testing.T) {
	assert.Error(t, ValidateUUID("nope", "id"))
	assert.NoError(t, ValidateUUID("7b2a2c3e-62a9-4c14-8a1d-1f3c9f2b0f11", "id"))
}

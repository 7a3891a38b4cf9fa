package nominee

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"simple name", "Jane Doe", "jane-doe"},
		{"punctuation stripped", "O'Brien & Sons, Inc.", "obrien-sons-inc"},
		{"extra spaces collapsed", "  Acme   Labs  ", "acme-labs"},
		{"digits kept", "Studio 54", "studio-54"},
		{"already lowercase", "plainname", "plainname"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Slugify(tt.input))
		})
	}
}

func TestEnsureSlugFreezes(t *testing.T) {
	n := NewPerson("Jane", "Doe", "CTO")

	assert.Equal(t, "jane-doe", n.EnsureSlug())

	// a later name edit must not change the frozen slug
	n.LastName = "Smith"
	assert.Equal(t, "jane-doe", n.EnsureSlug())
}

func TestDisplayName(t *testing.T) {
	person := NewPerson("Jane", "Doe", "")
	assert.Equal(t, "Jane Doe", person.DisplayName())

	company := NewCompany("Acme Labs", "acme.example")
	assert.Equal(t, "Acme Labs", company.DisplayName())
}

func TestValidateVariants(t *testing.T) {
	person := NewPerson("Jane", "Doe", "CTO")
	assert.NoError(t, person.Validate())

	company := NewCompany("Acme Labs", "acme.example")
	assert.NoError(t, company.Validate())

	// person carrying company fields is invalid
	mixed := NewPerson("Jane", "Doe", "")
	mixed.CompanyName = "Acme Labs"
	assert.Error(t, mixed.Validate())

	// company carrying person fields is invalid
	mixed2 := NewCompany("Acme Labs", "")
	mixed2.FirstName = "Jane"
	assert.Error(t, mixed2.Validate())

	nameless := &Nominee{Type: TypePerson}
	assert.Error(t, nameless.Validate())

	unknown := &Nominee{Type: Type("robot")}
	assert.Error(t, unknown.Validate())
}

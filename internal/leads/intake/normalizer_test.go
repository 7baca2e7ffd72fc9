package intake

import (
	"testing"

	"property_portal_backend/internal/leads/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func requireFieldError(t *testing.T, err error, field string) {
	t.Helper()
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, field, verr.Field)
}

func TestNormalizeRejectsShortName(t *testing.T) {
	n := NewNormalizer(nil, "NL")

	_, err := n.Normalize(Raw{Name: "Al", Email: "a@b.com", Phone: "12345678"})
	requireFieldError(t, err, "name")

	c, err := n.Normalize(Raw{Name: "Ali", Email: "a@b.com", Phone: "12345678"})
	require.NoError(t, err)
	assert.Equal(t, "Ali", c.Name)
	assert.Equal(t, domain.SourceGeneral, c.Source)
	assert.Nil(t, c.ProjectID)
	assert.Nil(t, c.Message)
}

func TestNormalizeFieldRules(t *testing.T) {
	valid := Raw{Name: "Ana de Vries", Email: "ana@example.com", Phone: "+31 6 1234 5678"}
	projectID := uuid.New()

	cases := []struct {
		name   string
		mutate func(r *Raw)
		field  string
	}{
		{"blank name", func(r *Raw) { r.Name = "   " }, "name"},
		{"one char after trim", func(r *Raw) { r.Name = " A " }, "name"},
		{"missing email", func(r *Raw) { r.Email = "" }, "email"},
		{"bad email", func(r *Raw) { r.Email = "ana@" }, "email"},
		{"letters in phone", func(r *Raw) { r.Phone = "06-12ab5678" }, "phone"},
		{"dots in phone", func(r *Raw) { r.Phone = "06.12.34.56.78" }, "phone"},
		{"too few digits", func(r *Raw) { r.Phone = "+31 (0) 12-34" }, "phone"},
		{"short message", func(r *Raw) { r.Message = strPtr("hi there") }, "message"},
		{"message of markup", func(r *Raw) { r.Message = strPtr("<b>hey</b>") }, "message"},
		{"project source without project", func(r *Raw) { r.Source = domain.SourceProject }, "project_id"},
		{"unknown source", func(r *Raw) { r.Source = "newsletter"; r.ProjectID = &projectID }, "source"},
	}

	n := NewNormalizer(nil, "NL")
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			raw := valid
			tc.mutate(&raw)
			_, err := n.Normalize(raw)
			requireFieldError(t, err, tc.field)
		})
	}
}

func TestNormalizeCanonicalizes(t *testing.T) {
	projectID := uuid.New()
	n := NewNormalizer(nil, "NL")

	c, err := n.Normalize(Raw{
		Name:      "  Ana \n de  Vries ",
		Email:     "  Ana@Example.COM ",
		Phone:     " 06  1234 5678 ",
		Message:   strPtr("  I'd like a <b>viewing</b>   this week  "),
		ProjectID: &projectID,
	})
	require.NoError(t, err)

	assert.Equal(t, "Ana de Vries", c.Name)
	assert.Equal(t, "ana@example.com", c.Email)
	assert.Equal(t, "06 1234 5678", c.Phone)
	assert.Equal(t, "0612345678", c.PhoneDigits)
	assert.Equal(t, "+31612345678", c.PhoneE164)
	require.NotNil(t, c.Message)
	assert.Equal(t, "I'd like a viewing this week", *c.Message)
	assert.Equal(t, domain.SourceProject, c.Source)
	require.NotNil(t, c.ProjectID)
	assert.Equal(t, projectID, *c.ProjectID)
}

func TestNormalizeBlankMessageIsAbsent(t *testing.T) {
	c, err := NewNormalizer(nil, "NL").Normalize(Raw{
		Name: "Ana", Email: "ana@example.com", Phone: "0612345678", Message: strPtr("   "),
	})
	require.NoError(t, err)
	assert.Nil(t, c.Message)
}

// nestedAmp hides a tag under six levels of &amp; encoding.
const nestedAmp = "Please call me back &amp;amp;amp;amp;amp;amp;lt;b&amp;amp;amp;amp;amp;amp;gt;about the villa"

func TestNormalizeDecodesNestedEntities(t *testing.T) {
	c, err := NewNormalizer(nil, "NL").Normalize(Raw{Name: "Noor", Email: "noor@x.io", Phone: "0612345678", Message: strPtr(nestedAmp)})
	require.NoError(t, err)
	require.NotNil(t, c.Message)
	assert.Equal(t, "Please call me back about the villa", *c.Message)
}

func TestNormalizeIsIdempotent(t *testing.T) {
	projectID := uuid.New()
	inputs := []Raw{
		{Name: "Ali", Email: "a@b.com", Phone: "12345678"},
		{Name: " Zoë  Müller", Email: "ZOE@Example.org", Phone: "+49 (30) 1234-5678", Message: strPtr("Looking for a 3-bed apartment.")},
		{Name: "Sam", Email: "sam@x.io", Phone: "06 1234 5678", ProjectID: &projectID, Source: domain.SourceProject},
		{Name: "Noor", Email: "noor@x.io", Phone: "0612345678", Message: strPtr(nestedAmp)},
	}

	n := NewNormalizer(nil, "NL")
	for _, in := range inputs {
		first, err := n.Normalize(in)
		require.NoError(t, err)
		second, err := n.Normalize(first.Raw())
		require.NoError(t, err)
		assert.Equal(t, first, second)
	}
}

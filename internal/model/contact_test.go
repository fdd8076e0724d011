package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentityKeyRoundTrip(t *testing.T) {
	t.Parallel()

	k := IdentityKey{FirstName: "jane", LastName: "doe", Employer: "acme"}
	assert.Equal(t, "jane|doe|acme", k.String())

	got, err := ParseIdentityKey(k.String())
	require.NoError(t, err)
	assert.Equal(t, k, got)

	_, err = ParseIdentityKey("jane|doe")
	assert.Error(t, err)
}

func TestKeySet(t *testing.T) {
	t.Parallel()

	a := IdentityKey{FirstName: "a", LastName: "b", Employer: "c"}
	b := IdentityKey{FirstName: "x", LastName: "y", Employer: "z"}

	var empty KeySet
	assert.False(t, empty.Has(a))

	s := NewKeySet(a)
	assert.True(t, s.Has(a))
	assert.False(t, s.Has(b))
	s.Add(b)
	assert.ElementsMatch(t, []IdentityKey{a, b}, s.Keys())
}

func TestRawCandidateRecordNames(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		rec       RawCandidateRecord
		wantFirst string
		wantLast  string
	}{
		{"structured", RawCandidateRecord{FirstName: "Jane", LastName: "Doe"}, "Jane", "Doe"},
		{"full name only", RawCandidateRecord{FullName: "Jane Q Doe"}, "Jane", "Doe"},
		{"partial", RawCandidateRecord{FirstName: "Janet", FullName: "Jane Doe"}, "Janet", "Doe"},
		{"single token", RawCandidateRecord{FullName: "Cher"}, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			first, last := tt.rec.Names()
			assert.Equal(t, tt.wantFirst, first)
			assert.Equal(t, tt.wantLast, last)
		})
	}
}

func TestRawCandidateRecordValidate(t *testing.T) {
	t.Parallel()

	assert.NoError(t, RawCandidateRecord{FirstName: "Jane", LastName: "Doe", Employer: "Acme"}.Validate())
	assert.Error(t, RawCandidateRecord{FirstName: "Jane", Employer: "Acme"}.Validate())
	assert.Error(t, RawCandidateRecord{FirstName: "Jane", LastName: "Doe", Employer: "  "}.Validate())
}

func TestPreferredEmail(t *testing.T) {
	t.Parallel()

	rec := RawCandidateRecord{Emails: []RawEmail{
		{Address: "jane@gmail.com", Type: EmailTypePersonal},
		{Address: "not-an-email", Type: EmailTypeCurrentProfessional},
		{Address: "Jane.Doe@Acme.com", Type: EmailTypeProfessional},
		{Address: "jd@old.example", Type: EmailTypeUnknown},
	}}
	assert.Equal(t, "jane.doe@acme.com", rec.PreferredEmail())

	rec.Emails = append(rec.Emails, RawEmail{Address: "jane@acme.com", Type: EmailTypeCurrentProfessional})
	assert.Equal(t, "jane@acme.com", rec.PreferredEmail())

	assert.Empty(t, RawCandidateRecord{}.PreferredEmail())
}

func TestContactWithEmail(t *testing.T) {
	t.Parallel()

	c := Contact{FirstName: "Jane"}
	assert.False(t, c.HasEmail())

	withEmail := c.WithEmail(&ResolvedEmail{Address: "jane@acme.com", Source: SourceFinder, Verified: true})
	assert.True(t, withEmail.HasEmail())
	assert.False(t, c.HasEmail(), "original contact is not modified")
}

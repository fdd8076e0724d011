package model

import (
	"strings"

	"github.com/rotisserie/eris"
)

// IdentityKey is the canonical (first, last, employer) tuple used to
// deduplicate people. Values are already normalized; build them with
// identity.KeyOf rather than by hand.
type IdentityKey struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Employer  string `json:"employer"`
}

// String renders the key as a single pipe-delimited token, suitable for
// storage columns and log fields.
func (k IdentityKey) String() string {
	return k.FirstName + "|" + k.LastName + "|" + k.Employer
}

// IsZero reports whether every component is empty.
func (k IdentityKey) IsZero() bool {
	return k.FirstName == "" && k.LastName == "" && k.Employer == ""
}

// ParseIdentityKey reverses String.
func ParseIdentityKey(s string) (IdentityKey, error) {
	parts := strings.Split(s, "|")
	if len(parts) != 3 {
		return IdentityKey{}, eris.Errorf("model: malformed identity key %q", s)
	}
	return IdentityKey{FirstName: parts[0], LastName: parts[1], Employer: parts[2]}, nil
}

// KeySet is a set of identity keys.
type KeySet map[IdentityKey]struct{}

// NewKeySet builds a set from keys.
func NewKeySet(keys ...IdentityKey) KeySet {
	s := make(KeySet, len(keys))
	for _, k := range keys {
		s[k] = struct{}{}
	}
	return s
}

// Has reports membership. A nil set contains nothing.
func (s KeySet) Has(k IdentityKey) bool {
	_, ok := s[k]
	return ok
}

// Add inserts k.
func (s KeySet) Add(k IdentityKey) {
	s[k] = struct{}{}
}

// Keys returns the members in no particular order.
func (s KeySet) Keys() []IdentityKey {
	out := make([]IdentityKey, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	return out
}

// EmailType tags a raw upstream address.
type EmailType string

const (
	EmailTypeCurrentProfessional EmailType = "current_professional"
	EmailTypeProfessional        EmailType = "professional"
	EmailTypePersonal            EmailType = "personal"
	EmailTypeUnknown             EmailType = "unknown"
)

// RawEmail is an address as reported by the search provider.
type RawEmail struct {
	Address string    `json:"address"`
	Type    EmailType `json:"type"`
}

// RawCandidateRecord is the strict shape of one search provider hit.
// Records are validated once when they enter the pipeline.
type RawCandidateRecord struct {
	FirstName      string     `json:"first_name"`
	LastName       string     `json:"last_name"`
	FullName       string     `json:"full_name,omitempty"`
	Employer       string     `json:"employer"`
	EmployerDomain string     `json:"employer_domain,omitempty"` // provider hint, may be empty
	Title          string     `json:"title,omitempty"`
	Location       string     `json:"location,omitempty"`
	Emails         []RawEmail `json:"emails,omitempty"`
}

// Names returns first and last name, splitting FullName when the
// structured fields are missing.
func (r RawCandidateRecord) Names() (string, string) {
	first, last := strings.TrimSpace(r.FirstName), strings.TrimSpace(r.LastName)
	if first != "" && last != "" {
		return first, last
	}
	parts := strings.Fields(r.FullName)
	if len(parts) < 2 {
		return first, last
	}
	if first == "" {
		first = parts[0]
	}
	if last == "" {
		last = parts[len(parts)-1]
	}
	return first, last
}

// Validate checks that the record carries enough to build an identity.
func (r RawCandidateRecord) Validate() error {
	first, last := r.Names()
	if first == "" || last == "" {
		return eris.New("model: record has no usable name")
	}
	if strings.TrimSpace(r.Employer) == "" {
		return eris.Errorf("model: record %s %s has no employer", first, last)
	}
	return nil
}

var emailTypeRank = map[EmailType]int{
	EmailTypeCurrentProfessional: 0,
	EmailTypeProfessional:        1,
	EmailTypePersonal:            2,
}

// PreferredEmail picks the best candidate address: current professional,
// then professional, then personal, then anything else. Empty when the
// record carries no address.
func (r RawCandidateRecord) PreferredEmail() string {
	best, bestRank := "", len(emailTypeRank)+1
	for _, e := range r.Emails {
		addr := strings.TrimSpace(e.Address)
		if !strings.Contains(addr, "@") {
			continue
		}
		rank, ok := emailTypeRank[e.Type]
		if !ok {
			rank = len(emailTypeRank)
		}
		if rank < bestRank {
			best, bestRank = addr, rank
		}
	}
	return strings.ToLower(best)
}

// EmailSource records which waterfall tier produced an address.
type EmailSource string

const (
	SourceOriginal EmailSource = "original-source"
	SourceFinder   EmailSource = "finder-lookup"
	SourcePattern  EmailSource = "pattern-generated"
)

// ResolvedEmail is the waterfall's answer for one contact.
type ResolvedEmail struct {
	Address  string      `json:"address"`
	Verified bool        `json:"verified"`
	Source   EmailSource `json:"source"`
	Score    *int        `json:"score,omitempty"`
}

// Contact is a structured, deduplicated search result.
type Contact struct {
	Key       IdentityKey    `json:"identity_key"`
	FirstName string         `json:"first_name"`
	LastName  string         `json:"last_name"`
	Employer  string         `json:"employer"`
	Title     string         `json:"title,omitempty"`
	Location  string         `json:"location,omitempty"`
	Email     *ResolvedEmail `json:"email,omitempty"`
}

// HasEmail reports whether the waterfall produced an address.
func (c Contact) HasEmail() bool {
	return c.Email != nil && c.Email.Address != ""
}

// WithEmail returns a copy of c carrying e.
func (c Contact) WithEmail(e *ResolvedEmail) Contact {
	c.Email = e
	return c
}

package model

import (
	"strings"

	"github.com/rotisserie/eris"
)

// ErrInvalidQuery marks a search request rejected before any work starts.
var ErrInvalidQuery = eris.New("invalid search query")

// MaxSimilarTitles caps title expansion per query.
const MaxSimilarTitles = 4

// LocationMode selects how a location is searched.
type LocationMode string

const (
	LocationMetroPrimary LocationMode = "metro_primary"
	LocationLocalityOnly LocationMode = "locality_only"
)

// LocationStrategy is the classified form of a user-supplied location.
type LocationStrategy struct {
	Mode            LocationMode `json:"mode"`
	City            string       `json:"city"`
	State           string       `json:"state,omitempty"`
	MetroName       string       `json:"metro_name,omitempty"`
	MetroLocalities []string     `json:"metro_localities,omitempty"`
}

// SearchQuery is one orchestration request.
type SearchQuery struct {
	PrimaryTitle  string           `json:"primary_title"`
	SimilarTitles []string         `json:"similar_titles,omitempty"`
	Company       string           `json:"company,omitempty"`
	Location      LocationStrategy `json:"location"`
	MaxContacts   int              `json:"max_contacts"`
	ExcludeKeys   KeySet           `json:"-"`
}

// Validate rejects malformed queries. limit is the configured ceiling for
// MaxContacts; zero disables the ceiling.
func (q SearchQuery) Validate(limit int) error {
	if strings.TrimSpace(q.PrimaryTitle) == "" {
		return eris.Wrap(ErrInvalidQuery, "primary title is required")
	}
	if q.MaxContacts <= 0 {
		return eris.Wrapf(ErrInvalidQuery, "max contacts must be positive, got %d", q.MaxContacts)
	}
	if limit > 0 && q.MaxContacts > limit {
		return eris.Wrapf(ErrInvalidQuery, "max contacts %d exceeds limit %d", q.MaxContacts, limit)
	}
	if len(q.SimilarTitles) > MaxSimilarTitles {
		return eris.Wrapf(ErrInvalidQuery, "at most %d similar titles, got %d", MaxSimilarTitles, len(q.SimilarTitles))
	}
	if q.Location.City == "" && q.Location.MetroName == "" {
		return eris.Wrap(ErrInvalidQuery, "location is required")
	}
	return nil
}

// Titles returns the primary title followed by the similar titles.
func (q SearchQuery) Titles() []string {
	out := make([]string, 0, 1+len(q.SimilarTitles))
	out = append(out, q.PrimaryTitle)
	for _, t := range q.SimilarTitles {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

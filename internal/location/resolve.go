// Package location classifies a user-supplied location into a search strategy.
package location

import (
	"strings"

	"github.com/sells-group/prospect-cli/internal/model"
)

type metroMatch struct {
	metro *Metro
	// state is set for locality entries, which only match when the input
	// state agrees (Pasadena CA vs Pasadena TX).
	state string
}

var index = buildIndex()

func buildIndex() map[string][]metroMatch {
	idx := make(map[string][]metroMatch)
	for i := range metros {
		m := &metros[i]
		idx[normalize(m.Name)] = append(idx[normalize(m.Name)], metroMatch{metro: m})
		for _, a := range m.Aliases {
			idx[normalize(a)] = append(idx[normalize(a)], metroMatch{metro: m})
		}
		for _, l := range m.Localities {
			idx[normalize(l)] = append(idx[normalize(l)], metroMatch{metro: m, state: m.State})
		}
	}
	return idx
}

// Resolve classifies raw ("City, ST", a metro name, or an alias). Unknown
// input yields locality_only with the parsed city and state.
func Resolve(raw string) model.LocationStrategy {
	city, state := Split(raw)
	ls := model.LocationStrategy{
		Mode:  model.LocationLocalityOnly,
		City:  city,
		State: state,
	}
	if city == "" {
		return ls
	}

	for _, mm := range index[normalize(city)] {
		if mm.state != "" && state != "" && !sameState(mm.state, state) {
			continue
		}
		ls.Mode = model.LocationMetroPrimary
		ls.MetroName = mm.metro.Name
		ls.MetroLocalities = append([]string(nil), mm.metro.Localities...)
		if ls.State == "" {
			ls.State = mm.metro.State
		}
		return ls
	}
	return ls
}

// Split parses "City, ST" into its parts. Trailing country suffixes
// ("USA", "United States") are dropped.
func Split(raw string) (string, string) {
	parts := strings.Split(raw, ",")
	cleaned := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.Join(strings.Fields(p), " ")
		if p == "" {
			continue
		}
		switch strings.ToLower(p) {
		case "usa", "us", "united states", "united states of america":
			continue
		}
		cleaned = append(cleaned, p)
	}
	switch len(cleaned) {
	case 0:
		return "", ""
	case 1:
		return cleaned[0], ""
	default:
		return cleaned[0], strings.ToUpper(cleaned[1])
	}
}

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// DC localities span DC, MD and VA.
var stateGroups = map[string][]string{
	"DC": {"DC", "MD", "VA"},
	"NY": {"NY", "NJ", "CT"},
	"PA": {"PA", "NJ", "DE"},
}

func sameState(metroState, input string) bool {
	input = strings.ToUpper(input)
	if metroState == input {
		return true
	}
	for _, s := range stateGroups[metroState] {
		if s == input {
			return true
		}
	}
	return false
}

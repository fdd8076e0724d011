package location

import "strings"

var stateNames = map[string]string{
	"AL": "alabama", "AK": "alaska", "AZ": "arizona", "AR": "arkansas", "CA": "california",
	"CO": "colorado", "CT": "connecticut", "DE": "delaware", "DC": "district of columbia",
	"FL": "florida", "GA": "georgia", "HI": "hawaii", "ID": "idaho", "IL": "illinois",
	"IN": "indiana", "IA": "iowa", "KS": "kansas", "KY": "kentucky", "LA": "louisiana",
	"ME": "maine", "MD": "maryland", "MA": "massachusetts", "MI": "michigan", "MN": "minnesota",
	"MS": "mississippi", "MO": "missouri", "MT": "montana", "NE": "nebraska", "NV": "nevada",
	"NH": "new hampshire", "NJ": "new jersey", "NM": "new mexico", "NY": "new york",
	"NC": "north carolina", "ND": "north dakota", "OH": "ohio", "OK": "oklahoma", "OR": "oregon",
	"PA": "pennsylvania", "RI": "rhode island", "SC": "south carolina", "SD": "south dakota",
	"TN": "tennessee", "TX": "texas", "UT": "utah", "VT": "vermont", "VA": "virginia",
	"WA": "washington", "WV": "west virginia", "WI": "wisconsin", "WY": "wyoming",
}

// StateName returns the lowercase full name PDL stores in location_region
// for a two-letter code. Anything else comes back normalized.
func StateName(state string) string {
	if name, ok := stateNames[strings.ToUpper(strings.TrimSpace(state))]; ok {
		return name
	}
	return normalize(state)
}

// Regions returns the region names to search for state. Metro primaries
// whose localities cross state lines expand to the whole group.
func Regions(state string) []string {
	code := strings.ToUpper(strings.TrimSpace(state))
	if code == "" {
		return nil
	}
	group, ok := stateGroups[code]
	if !ok {
		return []string{StateName(code)}
	}
	out := make([]string, len(group))
	for i, s := range group {
		out[i] = StateName(s)
	}
	return out
}

// ProviderMetro maps a metro display name or alias to the PDL
// location_metro value. Unknown names come back normalized.
func ProviderMetro(name string) string {
	for _, mm := range index[normalize(name)] {
		if mm.state == "" && mm.metro.Provider != "" {
			return mm.metro.Provider
		}
	}
	return normalize(name)
}

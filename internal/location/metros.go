package location

// Metro is a metropolitan area searched as one unit.
type Metro struct {
	Name       string
	State      string // primary state
	Provider   string // People Data Labs location_metro value
	Aliases    []string
	Localities []string
}

// metros is the built-in metro table. Aliases and localities are matched
// case-insensitively after normalization.
var metros = []Metro{
	{
		Name:     "San Francisco Bay Area",
		State:    "CA",
		Provider: "san francisco, california",
		Aliases:  []string{"bay area", "sf bay area", "sf", "sfba", "silicon valley"},
		Localities: []string{
			"San Francisco", "Oakland", "San Jose", "Berkeley", "Palo Alto", "Mountain View",
			"Sunnyvale", "Santa Clara", "Redwood City", "Menlo Park", "Fremont", "San Mateo",
		},
	},
	{
		Name:     "New York City Metropolitan Area",
		State:    "NY",
		Provider: "new york, new york",
		Aliases:  []string{"new york city", "nyc", "new york metro", "tri-state area"},
		Localities: []string{
			"New York", "Manhattan", "Brooklyn", "Queens", "Bronx", "Staten Island",
			"Jersey City", "Hoboken", "Newark", "Stamford", "White Plains",
		},
	},
	{
		Name:     "Greater Los Angeles",
		State:    "CA",
		Provider: "los angeles, california",
		Aliases:  []string{"la", "los angeles metro", "socal"},
		Localities: []string{
			"Los Angeles", "Santa Monica", "Pasadena", "Burbank", "Glendale", "Long Beach",
			"Irvine", "Culver City", "El Segundo", "Torrance",
		},
	},
	{
		Name:       "Greater Chicago Area",
		State:      "IL",
		Provider:   "chicago, illinois",
		Aliases:    []string{"chicagoland", "chicago metro"},
		Localities: []string{"Chicago", "Evanston", "Naperville", "Oak Brook", "Schaumburg", "Skokie"},
	},
	{
		Name:       "Greater Boston",
		State:      "MA",
		Provider:   "boston, massachusetts",
		Aliases:    []string{"boston metro", "boston area"},
		Localities: []string{"Boston", "Cambridge", "Somerville", "Waltham", "Burlington", "Quincy", "Newton"},
	},
	{
		Name:       "Greater Seattle Area",
		State:      "WA",
		Provider:   "seattle, washington",
		Aliases:    []string{"seattle metro", "puget sound"},
		Localities: []string{"Seattle", "Bellevue", "Redmond", "Kirkland", "Tacoma", "Everett"},
	},
	{
		Name:       "Austin Metropolitan Area",
		State:      "TX",
		Provider:   "austin, texas",
		Aliases:    []string{"austin metro", "greater austin"},
		Localities: []string{"Austin", "Round Rock", "Cedar Park", "Georgetown", "Pflugerville"},
	},
	{
		Name:       "Dallas-Fort Worth Metroplex",
		State:      "TX",
		Provider:   "dallas, texas",
		Aliases:    []string{"dfw", "dallas-fort worth", "metroplex"},
		Localities: []string{"Dallas", "Fort Worth", "Plano", "Irving", "Arlington", "Frisco", "Richardson"},
	},
	{
		Name:       "Greater Houston",
		State:      "TX",
		Provider:   "houston, texas",
		Aliases:    []string{"houston metro"},
		Localities: []string{"Houston", "The Woodlands", "Sugar Land", "Katy", "Pasadena"},
	},
	{
		Name:     "Washington DC-Baltimore Area",
		State:    "DC",
		Provider: "washington, district of columbia",
		Aliases:  []string{"dc", "dmv", "washington dc", "washington d.c.", "dc metro"},
		Localities: []string{
			"Washington", "Arlington", "Alexandria", "Bethesda", "Reston", "Tysons",
			"Silver Spring", "Baltimore",
		},
	},
	{
		Name:       "Atlanta Metropolitan Area",
		State:      "GA",
		Provider:   "atlanta, georgia",
		Aliases:    []string{"atlanta metro", "metro atlanta"},
		Localities: []string{"Atlanta", "Alpharetta", "Marietta", "Sandy Springs", "Decatur"},
	},
	{
		Name:       "Denver Metropolitan Area",
		State:      "CO",
		Provider:   "denver, colorado",
		Aliases:    []string{"denver metro", "front range"},
		Localities: []string{"Denver", "Boulder", "Aurora", "Lakewood", "Englewood", "Broomfield"},
	},
	{
		Name:       "Greater Philadelphia",
		State:      "PA",
		Provider:   "philadelphia, pennsylvania",
		Aliases:    []string{"philly", "philadelphia metro"},
		Localities: []string{"Philadelphia", "King of Prussia", "Conshohocken", "Camden", "Wilmington"},
	},
	{
		Name:       "Miami Metropolitan Area",
		State:      "FL",
		Provider:   "miami, florida",
		Aliases:    []string{"south florida", "miami metro"},
		Localities: []string{"Miami", "Fort Lauderdale", "Miami Beach", "Boca Raton", "Coral Gables"},
	},
}

// Metros returns a copy of the built-in metro table.
func Metros() []Metro {
	out := make([]Metro, len(metros))
	copy(out, metros)
	return out
}

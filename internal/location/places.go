package location

// usStates maps lowercase full state names to USPS codes.
var usStates = map[string]string{
	"alabama": "AL", "alaska": "AK", "arizona": "AZ", "arkansas": "AR",
	"california": "CA", "colorado": "CO", "connecticut": "CT", "delaware": "DE",
	"district of columbia": "DC", "florida": "FL", "georgia": "GA", "hawaii": "HI",
	"idaho": "ID", "illinois": "IL", "indiana": "IN", "iowa": "IA",
	"kansas": "KS", "kentucky": "KY", "louisiana": "LA", "maine": "ME",
	"maryland": "MD", "massachusetts": "MA", "michigan": "MI", "minnesota": "MN",
	"mississippi": "MS", "missouri": "MO", "montana": "MT", "nebraska": "NE",
	"nevada": "NV", "new hampshire": "NH", "new jersey": "NJ", "new mexico": "NM",
	"new york": "NY", "north carolina": "NC", "north dakota": "ND", "ohio": "OH",
	"oklahoma": "OK", "oregon": "OR", "pennsylvania": "PA", "rhode island": "RI",
	"south carolina": "SC", "south dakota": "SD", "tennessee": "TN", "texas": "TX",
	"utah": "UT", "vermont": "VT", "virginia": "VA", "washington": "WA",
	"west virginia": "WV", "wisconsin": "WI", "wyoming": "WY",
}

// stateCodes is the set of USPS codes, filled from usStates.
var stateCodes = func() map[string]bool {
	m := make(map[string]bool, len(usStates))
	for _, code := range usStates {
		m[code] = true
	}
	return m
}()

const unitedStates = "United States"

// usAliases are spellings of the United States seen in postings.
var usAliases = map[string]bool{
	"us": true, "usa": true, "u.s.": true, "u.s.a.": true,
	"united states": true, "united states of america": true,
}

// countries maps lowercase country spellings to the canonical name.
var countries = map[string]string{
	"us": unitedStates, "usa": unitedStates, "u.s.": unitedStates, "u.s.a.": unitedStates,
	"united states": unitedStates, "united states of america": unitedStates,
	"uk": "United Kingdom", "u.k.": "United Kingdom", "united kingdom": "United Kingdom",
	"england": "United Kingdom", "great britain": "United Kingdom",
	"canada": "Canada", "india": "India", "germany": "Germany", "france": "France",
	"ireland": "Ireland", "netherlands": "Netherlands", "spain": "Spain",
	"australia": "Australia", "singapore": "Singapore", "mexico": "Mexico",
	"brazil": "Brazil", "poland": "Poland", "portugal": "Portugal",
}

// cities expands well-known city names and short forms.
var cities = map[string]string{
	"nyc":              "New York, NY, United States",
	"new york":         "New York, NY, United States",
	"new york city":    "New York, NY, United States",
	"new york, ny":     "New York, NY, United States",
	"sf":               "San Francisco, CA, United States",
	"san francisco":    "San Francisco, CA, United States",
	"sf bay area":      "San Francisco, CA, United States",
	"bay area":         "San Francisco, CA, United States",
	"la":               "Los Angeles, CA, United States",
	"los angeles":      "Los Angeles, CA, United States",
	"chicago":          "Chicago, IL, United States",
	"boston":           "Boston, MA, United States",
	"seattle":          "Seattle, WA, United States",
	"austin":           "Austin, TX, United States",
	"denver":           "Denver, CO, United States",
	"atlanta":          "Atlanta, GA, United States",
	"dc":               "Washington, DC, United States",
	"washington dc":    "Washington, DC, United States",
	"washington, dc":   "Washington, DC, United States",
	"washington d.c.":  "Washington, DC, United States",
	"london":           "London, England, United Kingdom",
	"toronto":          "Toronto, Ontario, Canada",
	"bangalore":        "Bengaluru, India",
	"bengaluru":        "Bengaluru, India",
	"bangalore, india": "Bengaluru, India",
	"mumbai":           "Mumbai, India",
	"berlin":           "Berlin, Germany",
	"paris":            "Paris, France",
	"amsterdam":        "Amsterdam, Netherlands",
	"dublin":           "Dublin, Ireland",
	"singapore":        "Singapore",
	"sydney":           "Sydney, New South Wales, Australia",

	"bengaluru, bangalore": "Bengaluru, India",
}

// canonical is the set of every value the static maps produce. Those are
// fixed points of Normalize.
var canonical = func() map[string]bool {
	m := make(map[string]bool, len(cities)+len(countries))
	for _, v := range cities {
		m[v] = true
	}
	for _, v := range countries {
		m[v] = true
	}
	return m
}()

// internal/address/states.go
//
// State and province abbreviation expansion.
//
// Context
// -------
// Permalinks embed the *full* state name ("/dayton-ohio/provider/…"), but
// listings store the two-letter postal abbreviation.  StateName expands
// US states, territories, and Canadian provinces.  Unknown codes pass
// through unchanged so a bad abbreviation degrades to an odd slug instead
// of an error.

package address

import "strings"

var stateNames = map[string]string{
	// US states
	"AL": "Alabama", "AK": "Alaska", "AZ": "Arizona", "AR": "Arkansas",
	"CA": "California", "CO": "Colorado", "CT": "Connecticut",
	"DE": "Delaware", "FL": "Florida", "GA": "Georgia", "HI": "Hawaii",
	"ID": "Idaho", "IL": "Illinois", "IN": "Indiana", "IA": "Iowa",
	"KS": "Kansas", "KY": "Kentucky", "LA": "Louisiana", "ME": "Maine",
	"MD": "Maryland", "MA": "Massachusetts", "MI": "Michigan",
	"MN": "Minnesota", "MS": "Mississippi", "MO": "Missouri",
	"MT": "Montana", "NE": "Nebraska", "NV": "Nevada",
	"NH": "New Hampshire", "NJ": "New Jersey", "NM": "New Mexico",
	"NY": "New York", "NC": "North Carolina", "ND": "North Dakota",
	"OH": "Ohio", "OK": "Oklahoma", "OR": "Oregon", "PA": "Pennsylvania",
	"RI": "Rhode Island", "SC": "South Carolina", "SD": "South Dakota",
	"TN": "Tennessee", "TX": "Texas", "UT": "Utah", "VT": "Vermont",
	"VA": "Virginia", "WA": "Washington", "WV": "West Virginia",
	"WI": "Wisconsin", "WY": "Wyoming",

	// US territories and DC
	"DC": "District of Columbia", "PR": "Puerto Rico", "GU": "Guam",
	"VI": "Virgin Islands", "AS": "American Samoa",

	// Canadian provinces and territories
	"AB": "Alberta", "BC": "British Columbia", "MB": "Manitoba",
	"NB": "New Brunswick", "NL": "Newfoundland and Labrador",
	"NS": "Nova Scotia", "NT": "Northwest Territories", "NU": "Nunavut",
	"ON": "Ontario", "PE": "Prince Edward Island", "QC": "Quebec",
	"SK": "Saskatchewan", "YT": "Yukon",
}

// StateName expands a two-letter postal abbreviation to the full state or
// province name.  Lookup is case-insensitive; unknown codes are returned
// as given.
func StateName(abbr string) string {
	if name, ok := stateNames[strings.ToUpper(strings.TrimSpace(abbr))]; ok {
		return name
	}
	return abbr
}

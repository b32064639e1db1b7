package models

// Counties is the closed, ordered list of counties content can be filed under.
// Spelling is contractual: county strings are compared for equality and shown
// to users as-is.
var Counties = []string{
	"Carlow",
	"Cavan",
	"Clare",
	"Cork",
	"Donegal",
	"Dublin",
	"Galway",
	"Kerry",
	"Kildare",
	"Kilkenny",
	"Laois",
	"Leitrim",
	"Limerick",
	"Longford",
	"Louth",
	"Mayo",
	"Meath",
	"Monaghan",
	"Offaly",
	"Roscommon",
	"Sligo",
	"Tipperary",
	"Waterford",
	"Westmeath",
	"Wexford",
	"Wicklow",
}

var countySet = func() map[string]struct{} {
	m := make(map[string]struct{}, len(Counties))
	for _, c := range Counties {
		m[c] = struct{}{}
	}
	return m
}()

// ValidCounty reports whether s is one of the known counties (exact match).
func ValidCounty(s string) bool {
	_, ok := countySet[s]
	return ok
}

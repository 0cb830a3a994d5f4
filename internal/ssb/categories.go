package ssb

import (
	"sort"
	"strings"
)

// Spending categories in Table 10235 follow the COICOP main groups 01-12.
// The alias table maps the free-text category names a model is likely to use
// onto those codes.
var categoryAliases = map[string]string{
	"food":           "01", // Food and non-alcoholic beverages
	"alcohol":        "02", // Alcoholic beverages and tobacco
	"tobacco":        "02",
	"clothing":       "03", // Clothing and footwear
	"clothes":        "03",
	"housing":        "04", // Housing, water, electricity, gas and other fuels
	"home":           "04",
	"furnishings":    "05", // Furnishings, household equipment
	"furniture":      "05",
	"health":         "06", // Health
	"medical":        "06",
	"transport":      "07", // Transport
	"transportation": "07",
	"communication":  "08", // Communication
	"phone":          "08",
	"entertainment":  "09", // Recreation and culture
	"recreation":     "09",
	"culture":        "09",
	"education":      "10", // Education
	"school":         "10",
	"restaurants":    "11", // Restaurants and hotels
	"hotels":         "11",
	"dining":         "11",
	"other":          "12", // Miscellaneous goods and services
	"miscellaneous":  "12",
}

// mainCodes lists every top-level spending category, used when a query does
// not narrow down to specific categories.
var mainCodes = []string{"01", "02", "03", "04", "05", "06", "07", "08", "09", "10", "11", "12"}

// CodeFor resolves a free-text category name to its COICOP code,
// case-insensitively.
func CodeFor(category string) (string, bool) {
	code, ok := categoryAliases[strings.ToLower(strings.TrimSpace(category))]
	return code, ok
}

// CategoryNames returns every recognized category name in sorted order.
func CategoryNames() []string {
	names := make([]string, 0, len(categoryAliases))
	for name := range categoryAliases {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Alias pairs a recognized category name with its COICOP code.
type Alias struct {
	Name string
	Code string
}

// Aliases returns the full alias table sorted by name, for the categories
// listing exposed by the CLI and API.
func Aliases() []Alias {
	out := make([]Alias, 0, len(categoryAliases))
	for name, code := range categoryAliases {
		out = append(out, Alias{Name: name, Code: code})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

package ingest

import "strings"

// The source exports spell state and district names inconsistently. These
// canonical mappings cover the variants observed in production data; lookups
// are case-insensitive on the normalized input.

var stateAliases = map[string]string{
	"westbengal":    "West Bengal",
	"west bengal":   "West Bengal",
	"west bangal":   "West Bengal",
	"west bengli":   "West Bengal",
	"orissa":        "Odisha",
	"odisha":        "Odisha",
	"chatisgarh":    "Chhattisgarh",
	"chhattisgarhh": "Chhattisgarh",
	"chhattisgarh":  "Chhattisgarh",
	"uttaranchal":   "Uttarakhand",
	"pondicherry":   "Puducherry",

	"jammu & kashmir":   "Jammu and Kashmir",
	"jammu and kashmir": "Jammu and Kashmir",

	"andaman & nicobar islands":   "Andaman and Nicobar Islands",
	"andaman and nicobar islands": "Andaman and Nicobar Islands",

	"dadra & nagar haveli":  "Dadra and Nagar Haveli and Daman and Diu",
	"dadra and nagar haveli": "Dadra and Nagar Haveli and Daman and Diu",
	"daman & diu":            "Dadra and Nagar Haveli and Daman and Diu",
	"daman and diu":          "Dadra and Nagar Haveli and Daman and Diu",
	"the dadra and nagar haveli and daman and diu": "Dadra and Nagar Haveli and Daman and Diu",
}

// Some rows carry a city where the state belongs.
var cityToState = map[string]string{
	"jaipur":     "Rajasthan",
	"nagpur":     "Maharashtra",
	"darbhanga":  "Bihar",
	"madanapalle": "Andhra Pradesh",
}

var districtAliases = map[string]string{
	"mahabub nagar": "Mahbubnagar",
	"mahabubnagar":  "Mahbubnagar",
	"karim nagar":   "Karimnagar",
	"ananthapur":    "Anantapur",
	"ananthapuramu": "Anantapur",
	"anantpur":      "Anantapur",
	"baska":         "Baksa",
	"kamrup metro":  "Kamrup Metropolitan",
	"west champaran": "Pashchim Champaran",
}

// CleanStateName collapses whitespace and resolves known spelling variants to
// a canonical state name. Unknown names pass through trimmed.
func CleanStateName(name string) string {
	name = collapseSpaces(name)
	if name == "" {
		return ""
	}
	key := strings.ToLower(name)
	if canonical, ok := cityToState[key]; ok {
		return canonical
	}
	if canonical, ok := stateAliases[key]; ok {
		return canonical
	}
	if strings.ToLower(name) == name {
		return titleCase(name)
	}
	return name
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// CleanDistrictName strips markers and resolves known district variants.
func CleanDistrictName(name string) string {
	name = collapseSpaces(strings.ReplaceAll(name, "*", ""))
	if name == "" {
		return ""
	}
	if canonical, ok := districtAliases[strings.ToLower(name)]; ok {
		return canonical
	}
	return name
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(strings.TrimSpace(s)), " ")
}

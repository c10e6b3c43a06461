package valueobject

import (
	"regexp"
	"strings"
)

var gstinPattern = regexp.MustCompile(`^[0-9]{2}[A-Z]{5}[0-9]{4}[A-Z][1-9A-Z]Z[0-9A-Z]$`)

// GST state codes keyed by the two-digit prefix used in GSTINs
var stateCodes = map[string]string{
	"01": "Jammu and Kashmir",
	"02": "Himachal Pradesh",
	"03": "Punjab",
	"04": "Chandigarh",
	"05": "Uttarakhand",
	"06": "Haryana",
	"07": "Delhi",
	"08": "Rajasthan",
	"09": "Uttar Pradesh",
	"10": "Bihar",
	"11": "Sikkim",
	"12": "Arunachal Pradesh",
	"13": "Nagaland",
	"14": "Manipur",
	"15": "Mizoram",
	"16": "Tripura",
	"17": "Meghalaya",
	"18": "Assam",
	"19": "West Bengal",
	"20": "Jharkhand",
	"21": "Odisha",
	"22": "Chhattisgarh",
	"23": "Madhya Pradesh",
	"24": "Gujarat",
	"26": "Dadra and Nagar Haveli and Daman and Diu",
	"27": "Maharashtra",
	"29": "Karnataka",
	"30": "Goa",
	"31": "Lakshadweep",
	"32": "Kerala",
	"33": "Tamil Nadu",
	"34": "Puducherry",
	"35": "Andaman and Nicobar Islands",
	"36": "Telangana",
	"37": "Andhra Pradesh",
	"38": "Ladakh",
}

var stateAliases = map[string]string{
	"orissa":                 "21",
	"pondicherry":            "34",
	"new delhi":              "07",
	"nct of delhi":           "07",
	"j and k":                "01",
	"uttaranchal":            "05",
	"daman and diu":          "26",
	"dadra and nagar haveli": "26",
	"andaman and nicobar":    "35",
}

var stateNameIndex = func() map[string]string {
	idx := make(map[string]string, len(stateCodes)+len(stateAliases))
	for code, name := range stateCodes {
		idx[normalizeStateName(name)] = code
	}
	for alias, code := range stateAliases {
		idx[alias] = code
	}
	return idx
}()

func normalizeStateName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "&", " and ")
	return strings.Join(strings.Fields(s), " ")
}

// StateCodeFromName resolves a state name (or a two-digit code) to its GST
// state code. The second return is false when the state is unknown.
func StateCodeFromName(state string) (string, bool) {
	s := normalizeStateName(state)
	if s == "" {
		return "", false
	}
	if _, ok := stateCodes[s]; ok {
		return s, true
	}
	code, ok := stateNameIndex[s]
	return code, ok
}

// StateName returns the canonical state name for a GST state code
func StateName(code string) (string, bool) {
	name, ok := stateCodes[code]
	return name, ok
}

// NormalizeGSTIN upper-cases and trims a GSTIN
func NormalizeGSTIN(gstin string) string {
	return strings.ToUpper(strings.TrimSpace(gstin))
}

// IsValidGSTIN checks the 15-character GSTIN structure and its state prefix
func IsValidGSTIN(gstin string) bool {
	g := NormalizeGSTIN(gstin)
	if !gstinPattern.MatchString(g) {
		return false
	}
	_, ok := stateCodes[g[:2]]
	return ok
}

// StateCodeFromGSTIN extracts the state code embedded in a valid GSTIN
func StateCodeFromGSTIN(gstin string) (string, bool) {
	if !IsValidGSTIN(gstin) {
		return "", false
	}
	return NormalizeGSTIN(gstin)[:2], true
}

package util

import (
	"regexp"
	"strings"
)

var usStateAbbrevs = map[string]bool{
	"AL": true, "AK": true, "AZ": true, "AR": true, "CA": true, "CO": true,
	"CT": true, "DE": true, "FL": true, "GA": true, "HI": true, "ID": true,
	"IL": true, "IN": true, "IA": true, "KS": true, "KY": true, "LA": true,
	"ME": true, "MD": true, "MA": true, "MI": true, "MN": true, "MS": true,
	"MO": true, "MT": true, "NE": true, "NV": true, "NH": true, "NJ": true,
	"NM": true, "NY": true, "NC": true, "ND": true, "OH": true, "OK": true,
	"OR": true, "PA": true, "RI": true, "SC": true, "SD": true, "TN": true,
	"TX": true, "UT": true, "VT": true, "VA": true, "WA": true, "WV": true,
	"WI": true, "WY": true,
}

var tokenSplit = regexp.MustCompile(`[\s,]+`)

// LooksLikeUSOrCanada reports whether a free-form location string reads
// as a US or Canadian location. Matches country mentions, well-known
// Canadian city/province names, or any token equal to a US state
// abbreviation ("Toronto, ON" and "Remote, US" both pass).
func LooksLikeUSOrCanada(loc string) bool {
	loc = strings.TrimSpace(loc)
	if loc == "" {
		return false
	}

	s := strings.ToLower(loc)
	if strings.Contains(s, "usa") || strings.Contains(s, "united states") || strings.Contains(s, " us") {
		return true
	}
	if strings.Contains(s, "canada") || strings.Contains(s, "ontario") ||
		strings.Contains(s, "toronto") || strings.Contains(s, "vancouver") {
		return true
	}

	for _, tok := range tokenSplit.Split(strings.ToUpper(loc), -1) {
		if usStateAbbrevs[tok] {
			return true
		}
	}
	return false
}

// IsOpenStatus reports whether a status cell marks a listing as open.
// Sources mix plain text ("open", "Open") with the checkmark emoji.
func IsOpenStatus(status string) bool {
	s := strings.ToLower(strings.TrimSpace(status))
	if s == "" {
		return false
	}
	return strings.Contains(s, "open") || strings.Contains(s, "✅")
}

// Package gstin parses Goods and Services Tax identification numbers.
package gstin

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	pattern    = regexp.MustCompile(`^[0-9]{2}[A-Z]{5}[0-9]{4}[A-Z]{1}[0-9]{1}[Z]{1}[0-9A-Z]{1}$`)
	panPattern = regexp.MustCompile(`^[A-Z]{5}[0-9]{4}[A-Z]$`)
)

// Pattern is the accepted GSTIN shape, for messages.
const Pattern = `^[0-9]{2}[A-Z]{5}[0-9]{4}[A-Z]{1}[0-9]{1}[Z]{1}[0-9A-Z]{1}$`

// Valid reports whether s is a well-formed GSTIN.
func Valid(s string) bool {
	return pattern.MatchString(s)
}

// ValidPAN reports whether s is a well-formed PAN.
func ValidPAN(s string) bool {
	return panPattern.MatchString(s)
}

// StateCode returns the two-digit state prefix.
func StateCode(s string) string {
	if len(s) < 2 {
		return ""
	}
	return s[:2]
}

// PAN returns characters 3-12 of the GSTIN, or "" if it is too short.
func PAN(s string) string {
	if len(s) < 12 {
		return ""
	}
	return s[2:12]
}

// HasPAN reports whether the embedded PAN is present and non-zero.
func HasPAN(s string) bool {
	p := PAN(s)
	return p != "" && p != "0000000000"
}

// PANHolderIsIndividual reports whether the PAN status character marks an
// individual or HUF holder.
func PANHolderIsIndividual(pan string) bool {
	if len(pan) < 4 {
		return false
	}
	switch pan[3] {
	case 'P', 'H':
		return true
	}
	return false
}

var stateNames = map[string]string{
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

var stateAbbreviations = map[string][]string{
	"07": {"DL"},
	"09": {"UP"},
	"19": {"WB"},
	"23": {"MP"},
	"24": {"GJ"},
	"27": {"MH"},
	"29": {"KA"},
	"32": {"KL"},
	"33": {"TN"},
	"36": {"TS", "TG"},
}

// StateName returns the state for a two-digit code, or "State-XX" if unknown.
func StateName(code string) string {
	if name, ok := stateNames[code]; ok {
		return name
	}
	return fmt.Sprintf("State-%s", code)
}

// KnownState reports whether the code is in the state table.
func KnownState(code string) bool {
	_, ok := stateNames[code]
	return ok
}

// StateMatches reports whether a free-text state name or abbreviation
// refers to the given code. Addresses that contain the full state name match.
func StateMatches(code, state string) bool {
	state = strings.ToUpper(strings.TrimSpace(state))
	if state == "" {
		return false
	}
	if name, ok := stateNames[code]; ok && strings.Contains(state, strings.ToUpper(name)) {
		return true
	}
	for _, abbr := range stateAbbreviations[code] {
		if abbr == state {
			return true
		}
	}
	return state == code
}

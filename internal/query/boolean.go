package query

import "strings"

// ParseBool decodes a boolean filter value. Only explicit false tokens
// ("0", "f", "false", "n", "no", "off", case-insensitive) decode to false;
// every other string, including the empty string, decodes to true.
func ParseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "0", "f", "false", "n", "no", "off":
		return false
	}
	return true
}

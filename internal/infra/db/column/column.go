// Package column normalizes values before they are written to the history
// tables shared by the mysql, postgres and sqlite repositories.
package column

import (
	"encoding/json"
	"strings"
)

// OrDash returns "-" when s is empty or whitespace.
func OrDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

// JSONObject keeps JSON columns valid: blank becomes {}, anything that is
// not JSON is wrapped as {"raw": ...}.
func JSONObject(s string) string {
	if strings.TrimSpace(s) == "" {
		return "{}"
	}
	if !json.Valid([]byte(s)) {
		b, _ := json.Marshal(map[string]string{"raw": s})
		return string(b)
	}
	return s
}

package services

import (
	"encoding/base64"
	"strings"
	"unicode/utf8"
)

// Authorize validates the Basic credential the payment provider presents on
// every callback. The decoded credential has the form "Paycom:<secret>"; the
// part after the last colon must match one of the configured merchant keys
// (production or sandbox). Empty keys never match.
func Authorize(header string, keys ...string) bool {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Basic") {
		return false
	}

	decoded, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil || !utf8.Valid(decoded) {
		return false
	}

	credential := string(decoded)
	idx := strings.LastIndex(credential, ":")
	if idx < 0 {
		return false
	}
	secret := credential[idx+1:]

	for _, key := range keys {
		if key != "" && secret == key {
			return true
		}
	}

	return false
}

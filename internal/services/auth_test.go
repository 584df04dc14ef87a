package services

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
)

func basicHeader(credential string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(credential))
}

func TestAuthorize(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   bool
	}{
		{"production key", basicHeader("Paycom:prod-key"), true},
		{"sandbox key", basicHeader("Paycom:sandbox-key"), true},
		{"lowercase scheme", "basic " + base64.StdEncoding.EncodeToString([]byte("Paycom:prod-key")), true},
		{"wrong secret", basicHeader("Paycom:other"), false},
		{"missing header", "", false},
		{"no scheme", base64.StdEncoding.EncodeToString([]byte("Paycom:prod-key")), false},
		{"bearer scheme", "Bearer abcdef", false},
		{"invalid base64", "Basic %%%not-base64%%%", false},
		{"no colon in credential", basicHeader("prod-key"), false},
		{"invalid utf8", "Basic " + base64.StdEncoding.EncodeToString([]byte{0xff, 0xfe, ':', 'x'}), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Authorize(tt.header, "prod-key", "sandbox-key"))
		})
	}
}

func TestAuthorizeEmptyKeysNeverMatch(t *testing.T) {
	assert.False(t, Authorize(basicHeader("Paycom:"), "", ""))
	assert.False(t, Authorize(basicHeader("Paycom:prod-key"), "", ""))
}

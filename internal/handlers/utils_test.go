package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractCookieToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"single cookie", "auth_token=abc123", "abc123"},
		{"among others", "theme=dark; auth_token=abc123; lang=en", "abc123"},
		{"trailing semicolon", "auth_token=abc123;", "abc123"},
		{"missing", "theme=dark", ""},
		{"empty header", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractCookieToken(tt.header, "auth_token"))
		})
	}
}

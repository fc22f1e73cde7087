package runner

import (
	"strings"
	"testing"

	"github.com/aretw0/switchboard/pkg/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeInput_SizeLimit(t *testing.T) {
	limit := parser.DefaultMaxBytes

	tests := []struct {
		name      string
		inputSize int
		wantErr   bool
	}{
		{"Under Limit", limit - 1, false},
		{"Exact Limit", limit, false},
		{"Over Limit", limit + 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := SanitizeInput(strings.Repeat("a", tt.inputSize))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInputTooLarge)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSanitizeInput_TerminalNoise(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"Plain Intent", "copy a.txt to b.txt", "copy a.txt to b.txt"},
		{"JSON Intent", `{"action":"vault.list","parameters":{}}`, `{"action":"vault.list","parameters":{}}`},
		{"JSON Whitespace", "{\r\n\t\"action\":\"vault.list\"}", "{\r\n\t\"action\":\"vault.list\"}"},
		{"Colour Codes", "\x1b[1;32m{\"action\":\"vault.list\"}\x1b[0m", `{"action":"vault.list"}`},
		{"Window Title", "\x1b]0;shell\x07{}", "{}"},
		{"Byte Order Mark", "\ufeff{\"action\":\"open_app\"}", `{"action":"open_app"}`},
		{"Null Byte", "Null\x00Byte", "NullByte"},
		{"Bell", "ding\x07", "ding"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SanitizeInput(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestSanitizer_CustomLimit(t *testing.T) {
	s := Sanitizer{MaxBytes: 10}

	_, err := s.Clean("12345678901")
	assert.ErrorIs(t, err, ErrInputTooLarge)

	got, err := s.Clean("12345")
	require.NoError(t, err)
	assert.Equal(t, "12345", got)
}

func TestSanitizeInput_InvalidUTF8(t *testing.T) {
	_, err := SanitizeInput("\xbd\xb2\x3d\xbc\x20\xe2\x8c\x98")
	assert.ErrorIs(t, err, ErrInvalidUTF8)
}

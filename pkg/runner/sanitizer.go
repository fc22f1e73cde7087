package runner

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/aretw0/switchboard/pkg/parser"
)

var (
	ErrInputTooLarge = errors.New("intent exceeds maximum size")
	ErrInvalidUTF8   = errors.New("intent contains invalid UTF-8")
)

// escapeSequence matches CSI and OSC sequences pasted from a coloured terminal.
var escapeSequence = regexp.MustCompile(`\x1b(\[[0-9;?]*[ -/]*[@-~]|\][^\x07\x1b]*(\x07|\x1b\\))`)

// Sanitizer prepares raw intent text for the parser.
// The zero value uses parser.DefaultMaxBytes as its limit.
type Sanitizer struct {
	MaxBytes int
}

// Clean rejects text the parser could never accept and strips terminal noise from the rest:
// a leading byte order mark, escape sequences and control characters other than JSON whitespace.
// Oversized text is rejected, not truncated, since a cut object would parse differently.
func (s Sanitizer) Clean(input string) (string, error) {
	limit := s.MaxBytes
	if limit <= 0 {
		limit = parser.DefaultMaxBytes
	}
	if len(input) > limit {
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrInputTooLarge, len(input), limit)
	}
	if !utf8.ValidString(input) {
		return "", ErrInvalidUTF8
	}

	input = strings.TrimPrefix(input, "\ufeff")
	if strings.IndexByte(input, 0x1b) >= 0 {
		input = escapeSequence.ReplaceAllString(input, "")
	}
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && !isJSONSpace(r) {
			return -1
		}
		return r
	}, input), nil
}

func isJSONSpace(r rune) bool {
	return r == '\n' || r == '\t' || r == '\r'
}

// SanitizeInput cleans text with the default limit.
func SanitizeInput(input string) (string, error) {
	return Sanitizer{}.Clean(input)
}

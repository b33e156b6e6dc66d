// Package validate normalizes user-supplied website URLs.
package validate

import (
	"net/url"
	"strings"

	"github.com/rotisserie/eris"
)

var (
	// ErrEmptyInput is returned when the trimmed input is empty.
	ErrEmptyInput = eris.New("validate: empty input")
	// ErrBadScheme is returned when the normalized input is not an absolute http(s) URL.
	ErrBadScheme = eris.New("validate: not an absolute http or https url")
)

// NormalizeURL trims raw, prepends "https://" when it does not start with
// "http", and checks that the result is an absolute http or https URL.
func NormalizeURL(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", ErrEmptyInput
	}

	if !strings.HasPrefix(s, "http") {
		if hasExplicitScheme(s) {
			return "", ErrBadScheme
		}
		s = "https://" + s
	}

	u, err := url.Parse(s)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return "", ErrBadScheme
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", ErrBadScheme
	}

	return s, nil
}

// hasExplicitScheme reports whether s starts with "scheme://". Prefixing such
// input would turn "ftp://host" into a URL whose host is "ftp".
func hasExplicitScheme(s string) bool {
	i := strings.Index(s, "://")
	if i <= 0 {
		return false
	}
	for j, r := range s[:i] {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case j > 0 && (r >= '0' && r <= '9' || r == '+' || r == '-' || r == '.'):
		default:
			return false
		}
	}
	return true
}

// Notice returns the user-facing message for a validation error.
func Notice(err error) string {
	if eris.Is(err, ErrEmptyInput) {
		return "Please enter a URL"
	}
	return "Please enter a valid URL"
}

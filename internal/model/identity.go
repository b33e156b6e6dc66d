package model

import (
	"strings"
	"unicode/utf8"
)

// Identity is the authenticated user resolved by the external identity provider.
type Identity struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName,omitempty"`
}

// Name returns the display name, falling back to the email.
func (i Identity) Name() string {
	if i.DisplayName != "" {
		return i.DisplayName
	}
	return i.Email
}

// Initial returns the upper-cased first character of Name for the avatar.
func (i Identity) Initial() string {
	r, _ := utf8.DecodeRuneInString(i.Name())
	if r == utf8.RuneError {
		return ""
	}
	return strings.ToUpper(string(r))
}

package models

import "strings"

// Identity is the signed-in user a form session belongs to.
type Identity struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Token string `json:"-"`
}

// Present reports whether the identity carries a user id.
func (i Identity) Present() bool {
	return strings.TrimSpace(i.ID) != ""
}

// DisplayName prefers the user's name and falls back to the email.
func (i Identity) DisplayName() string {
	if name := strings.TrimSpace(i.Name); name != "" {
		return name
	}
	return strings.TrimSpace(i.Email)
}

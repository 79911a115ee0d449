package core

import (
	"regexp"
	"strings"
)

// FormType selects which submission path a Flow runs.
type FormType string

const (
	FormSignIn FormType = "sign_in"
	FormSignUp FormType = "sign_up"
)

// Credential is the raw form input. Name is only used on sign-up.
type Credential struct {
	Name     string
	Email    string
	Password string
}

var reEmail = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

const (
	minNameLen     = 3
	minPasswordLen = 3
)

// Validate checks the credential for the given form type. It returns nil when
// the input is acceptable, or FieldErrors naming every failing field.
func Validate(form FormType, c Credential) FieldErrors {
	fe := FieldErrors{}
	if form == FormSignUp && len(strings.TrimSpace(c.Name)) < minNameLen {
		fe["name"] = "name_too_short"
	}
	if !reEmail.MatchString(strings.TrimSpace(c.Email)) {
		fe["email"] = "invalid_email"
	}
	if len(c.Password) < minPasswordLen {
		fe["password"] = "password_too_short"
	}
	if len(fe) == 0 {
		return nil
	}
	return fe
}

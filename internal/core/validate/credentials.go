package validate

import (
	"net/mail"
	"strings"

	"github.com/niksmo/e-label/internal/core/domain"
)

const MinPasswordLen = 6

type Credentials struct {
	Email    string
	Password string
	Name     string
}

// Registration checks a sign-up payload: a parseable email address and a
// password of at least [MinPasswordLen] characters.
func Registration(c Credentials) error {
	errs := new(domain.ValidationError)

	email := strings.TrimSpace(c.Email)
	switch {
	case email == "":
		errs.Add("email", domain.ReasonRequired)
	default:
		if _, err := mail.ParseAddress(email); err != nil {
			errs.Add("email", domain.ReasonInvalidEmail)
		}
	}

	switch {
	case c.Password == "":
		errs.Add("password", domain.ReasonRequired)
	case len([]rune(c.Password)) < MinPasswordLen:
		errs.Add("password", domain.ReasonTooShort)
	}

	return errs.Err()
}

// Login only checks presence; wrong values are reported as invalid
// credentials by the identity provider.
func Login(c Credentials) error {
	errs := new(domain.ValidationError)
	if strings.TrimSpace(c.Email) == "" {
		errs.Add("email", domain.ReasonRequired)
	}
	if c.Password == "" {
		errs.Add("password", domain.ReasonRequired)
	}
	return errs.Err()
}

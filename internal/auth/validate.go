package auth

import (
	"regexp"
	"strings"

	"sipeta/internal/category"
)

var (
	nikPattern   = regexp.MustCompile(`^[0-9]{16}$`)
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 6

// Registration is a sign-up form.
type Registration struct {
	FullName string `json:"full_name"`
	NIK      string `json:"nik"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Normalize trims every field.
func (r Registration) Normalize() Registration {
	return Registration{
		FullName: strings.TrimSpace(r.FullName),
		NIK:      strings.TrimSpace(r.NIK),
		Email:    strings.ToLower(strings.TrimSpace(r.Email)),
		Password: r.Password,
	}
}

// Validate reports every problem with the form at once.
func (r Registration) Validate() error {
	verr := &category.ValidationError{}
	invalid := func(label, msg string) {
		if verr.Invalid == nil {
			verr.Invalid = map[string]string{}
		}
		verr.Invalid[label] = msg
	}

	if r.FullName == "" {
		verr.Missing = append(verr.Missing, "Full Name")
	}
	switch {
	case r.NIK == "":
		verr.Missing = append(verr.Missing, "NIK")
	case !nikPattern.MatchString(r.NIK):
		invalid("NIK", "must be exactly 16 digits")
	}
	switch {
	case r.Email == "":
		verr.Missing = append(verr.Missing, "Email")
	case !emailPattern.MatchString(r.Email):
		invalid("Email", "is not a valid email address")
	}
	switch {
	case r.Password == "":
		verr.Missing = append(verr.Missing, "Password")
	case len(r.Password) < MinPasswordLength:
		invalid("Password", "must be at least 6 characters")
	}

	if verr.HasErrors() {
		return verr
	}
	return nil
}

// IsEmail reports whether a login identifier is an email rather than a NIK.
func IsEmail(identifier string) bool {
	return strings.Contains(identifier, "@")
}

package service

import (
	"net/mail"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	DefaultLimit = 100
	MaxLimit     = 1000
)

func normalizeEmail(email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", invalid("email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", invalid("invalid email address")
	}
	return email, nil
}

func checkFullName(name string) (string, error) {
	name = strings.TrimSpace(name)
	n := utf8.RuneCountInString(name)
	if n < 2 || n > 255 {
		return "", invalid("full_name must be between 2 and 255 characters")
	}
	return name, nil
}

func checkPhone(phone *string) (*string, error) {
	if phone == nil {
		return nil, nil
	}
	p := strings.TrimSpace(*phone)
	if p == "" {
		return nil, nil
	}
	if len(p) > 50 {
		return nil, invalid("phone must be at most 50 characters")
	}
	return &p, nil
}

// checkPassword enforces the account password policy.
func checkPassword(password string) error {
	if utf8.RuneCountInString(password) < 8 {
		return invalid("Password must be at least 8 characters")
	}
	if len(password) > 72 {
		return invalid("Password must be at most 72 bytes")
	}
	var digit, upper bool
	for _, r := range password {
		switch {
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsUpper(r):
			upper = true
		}
	}
	if !digit {
		return invalid("Password must contain at least one digit")
	}
	if !upper {
		return invalid("Password must contain at least one uppercase letter")
	}
	return nil
}

func checkPage(skip, limit int) (int, int, error) {
	if skip < 0 {
		return 0, 0, invalid("skip must be greater than or equal to 0")
	}
	if limit == 0 {
		limit = DefaultLimit
	}
	if limit < 1 || limit > MaxLimit {
		return 0, 0, invalid("limit must be between 1 and 1000")
	}
	return skip, limit, nil
}

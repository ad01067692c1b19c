package service

import (
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/and161185/crudkeeper/internal/errs"
	"github.com/and161185/crudkeeper/internal/model"
)

// text trims s and checks it is non-empty and at most max runes.
func text(field, s string, max int) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", errs.Invalid(field, "required")
	}
	if utf8.RuneCountInString(s) > max {
		return "", errs.Invalid(field, "too long")
	}
	return s, nil
}

// email normalizes an address to lower case.
func email(s string) (string, error) {
	s = strings.TrimSpace(s)
	a, err := mail.ParseAddress(s)
	if err != nil || a.Address != s {
		return "", errs.Invalid("email", "malformed")
	}
	return strings.ToLower(s), nil
}

func requireAdmin(actor *model.Actor) error {
	if actor == nil {
		return errs.ErrUnauthorized
	}
	if !actor.IsAdmin() {
		return fmt.Errorf("%w: admin role required", errs.ErrForbidden)
	}
	return nil
}

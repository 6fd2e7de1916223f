package domain

import (
	"regexp"
	"strings"
)

var emailShape = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// DisposableEmailDomains lists throwaway inbox providers rejected at submit time.
var DisposableEmailDomains = map[string]struct{}{
	"10minutemail.com":       {},
	"20minutemail.com":       {},
	"guerrillamail.com":      {},
	"mailinator.com":         {},
	"tempmail.org":           {},
	"temp-mail.org":          {},
	"yopmail.com":            {},
	"throwaway.email":        {},
	"getnada.com":            {},
	"maildrop.cc":            {},
	"sharklasers.com":        {},
	"grr.la":                 {},
	"guerrillamailblock.com": {},
	"pokemail.net":           {},
	"spam4.me":               {},
	"tempail.com":            {},
	"tempemail.com":          {},
	"tempinbox.com":          {},
	"trashmail.com":          {},
	"mohmal.com":             {},
	"emailondeck.com":        {},
}

type EmailValidation struct {
	Valid bool
	Error string
}

func IsDisposableEmail(email string) bool {
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return false
	}
	_, ok := DisposableEmailDomains[strings.ToLower(email[at+1:])]
	return ok
}

// ValidateEmail runs the checks in order and reports the first failure.
func ValidateEmail(email string) EmailValidation {
	if email == "" {
		return EmailValidation{Error: "Email is required"}
	}
	if ExceedsLength(email, MaxEmailLength) || !emailShape.MatchString(email) {
		return EmailValidation{Error: "Please enter a valid email address"}
	}
	if IsDisposableEmail(email) {
		return EmailValidation{Error: "Temporary email addresses are not allowed"}
	}
	return EmailValidation{Valid: true}
}

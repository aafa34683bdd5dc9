// Package validation holds the field-shape rules applied to user and store
// payloads before anything is written.
package validation

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	MinNameLength     = 20
	MaxNameLength     = 60
	MinPasswordLength = 8
	MaxPasswordLength = 16
	MaxAddressLength  = 400

	passwordSymbols = "!@#$%^&*"
)

const (
	MsgName         = "Name must be 20-60 characters"
	MsgStoreName    = "Store name must be 20-60 characters"
	MsgEmail        = "Invalid email format"
	MsgPassword     = "Password must be 8-16 characters with 1 uppercase letter and 1 special character"
	MsgAddress      = "Address must be max 400 characters"
	MsgStoreAddress = "Address is required and must be max 400 characters"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Error is a rule violation; its message is safe to return to clients.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string { return e.Message }

func fail(field, msg string) *Error { return &Error{Field: field, Message: msg} }

// ValidateSignup checks a user payload in the order name, email, password,
// address and returns the first violation.
func ValidateSignup(name, email, password, address string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if err := ValidateEmail(email); err != nil {
		return err
	}
	if err := ValidatePassword(password); err != nil {
		return err
	}
	return ValidateAddress(address)
}

func ValidateName(name string) error {
	if n := utf8.RuneCountInString(name); n < MinNameLength || n > MaxNameLength {
		return fail("name", MsgName)
	}
	return nil
}

func ValidateEmail(email string) error {
	if !emailPattern.MatchString(email) {
		return fail("email", MsgEmail)
	}
	return nil
}

// ValidatePassword requires 8-16 characters, an uppercase letter and one of
// the symbols !@#$%^&*.
func ValidatePassword(password string) error {
	n := utf8.RuneCountInString(password)
	if n < MinPasswordLength || n > MaxPasswordLength {
		return fail("password", MsgPassword)
	}
	var upper, symbol bool
	for _, r := range password {
		if unicode.IsUpper(r) && r <= unicode.MaxASCII {
			upper = true
		}
		if strings.ContainsRune(passwordSymbols, r) {
			symbol = true
		}
	}
	if !upper || !symbol {
		return fail("password", MsgPassword)
	}
	return nil
}

// ValidateAddress accepts an empty address.
func ValidateAddress(address string) error {
	if utf8.RuneCountInString(address) > MaxAddressLength {
		return fail("address", MsgAddress)
	}
	return nil
}

// ValidateStore checks a store payload; unlike users, a store needs an address.
func ValidateStore(name, address string) error {
	if n := utf8.RuneCountInString(name); n < MinNameLength || n > MaxNameLength {
		return fail("name", MsgStoreName)
	}
	if address == "" || utf8.RuneCountInString(address) > MaxAddressLength {
		return fail("address", MsgStoreAddress)
	}
	return nil
}

package auth

import (
	"fmt"
	"strings"
)

// Credential is what a client presents to log in: PasswordCredential or
// OTPCredential.
type Credential interface {
	credential()
}

type IdentifierKind int

const (
	ByUsername IdentifierKind = iota
	ByPhone
)

func (k IdentifierKind) String() string {
	if k == ByPhone {
		return "phone"
	}
	return "username"
}

type PasswordCredential struct {
	Kind       IdentifierKind
	Identifier string
	Password   string
}

// OTPCredential starts a one-time-code login for Phone.
type OTPCredential struct {
	Phone string
}

func (PasswordCredential) credential() {}
func (OTPCredential) credential()      {}

// ParseCredential picks the credential from login request fields. A username
// wins over a phone number; a phone number without password asks for a code.
func ParseCredential(username, phone, password string) (Credential, error) {
	username = strings.TrimSpace(username)
	phone = strings.TrimSpace(phone)
	hasPassword := strings.TrimSpace(password) != ""

	switch {
	case username != "" && hasPassword:
		return PasswordCredential{Kind: ByUsername, Identifier: username, Password: password}, nil
	case username != "":
		return nil, fmt.Errorf("%w: username and password are required", ErrValidation)
	case phone != "" && hasPassword:
		return PasswordCredential{Kind: ByPhone, Identifier: phone, Password: password}, nil
	case phone != "":
		return OTPCredential{Phone: phone}, nil
	default:
		return nil, fmt.Errorf("%w: username or phone number is required", ErrValidation)
	}
}

package models

import (
	"time"

	"github.com/google/uuid"
)

type UserType string

const (
	UserTypeCustomer UserType = "Customer"
	UserTypeProvider UserType = "Provider"
	UserTypeAdmin    UserType = "Admin"
)

type User struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserName        string    `gorm:"uniqueIndex;size:256;not null" json:"userName"`
	PhoneNumber     *string   `gorm:"uniqueIndex;size:20" json:"phoneNumber,omitempty"` // Nullable unique phone
	PasswordHash    string    `json:"-"`                                                // Bcrypt hash, empty for OTP-only accounts
	Type            UserType  `gorm:"size:32;not null;default:Customer" json:"type"`
	IsActive        bool      `gorm:"not null;default:false" json:"isActive"`
	IsPhoneVerified bool      `gorm:"not null;default:false" json:"isPhoneVerified"`

	// Outstanding one-time code. Hash and expiry are nil when nothing is pending.
	VerificationCodeHash     *string    `json:"-"`
	VerificationCodeExpiry   *time.Time `json:"-"`
	VerificationCodeAttempts int        `gorm:"not null;default:0" json:"-"`

	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// Phone returns the phone number or "" when unset.
func (u *User) Phone() string {
	if u.PhoneNumber == nil {
		return ""
	}
	return *u.PhoneNumber
}

// HasPendingCode reports whether a code digest and expiry are both stored.
func (u *User) HasPendingCode() bool {
	return u.VerificationCodeHash != nil && *u.VerificationCodeHash != "" && u.VerificationCodeExpiry != nil
}

// ClearVerificationCode drops the outstanding code and resets the counter.
func (u *User) ClearVerificationCode() {
	u.VerificationCodeHash = nil
	u.VerificationCodeExpiry = nil
	u.VerificationCodeAttempts = 0
}

// Clone returns a deep copy so callers never share pointer fields.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	if u.PhoneNumber != nil {
		p := *u.PhoneNumber
		c.PhoneNumber = &p
	}
	if u.VerificationCodeHash != nil {
		h := *u.VerificationCodeHash
		c.VerificationCodeHash = &h
	}
	if u.VerificationCodeExpiry != nil {
		e := *u.VerificationCodeExpiry
		c.VerificationCodeExpiry = &e
	}
	if u.LastLoginAt != nil {
		l := *u.LastLoginAt
		c.LastLoginAt = &l
	}
	return &c
}

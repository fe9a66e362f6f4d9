// Package models holds the user entity. A user is the tenant root: profiles,
// categories and accounts all hang off a user id. Email and CPF are immutable
// after registration; deactivation is the only retirement path.
package models

import (
	"errors"
	"strings"
	"time"

	"orfin/pkg/cpf"
	id "orfin/pkg/domain"
	dErrors "orfin/pkg/domain-errors"
)

const (
	maxNameLength  = 50
	maxPhoneLength = 20
)

// User is the account owner.
type User struct {
	ID           id.UserID
	Email        string
	CPF          string
	FirstName    string
	SocialName   string
	LastName     string
	Phone        string
	PasswordHash string `json:"-"`
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ContactFields are the mutable attributes of a user. Email and CPF are
// absent on purpose.
type ContactFields struct {
	FirstName  string
	SocialName string
	LastName   string
	Phone      string
}

// NewUser validates and assembles a user. Email is lowercased and trimmed,
// the CPF is normalized to its 11-digit form, and all three names must be
// non-blank after trimming. passwordHash must already be a one-way hash.
func NewUser(userID id.UserID, email, rawCPF string, contact ContactFields, passwordHash string, now time.Time) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, dErrors.NewField(dErrors.CodeValidation, "email", "email cannot be empty")
	}

	normalizedCPF, err := cpf.Validate(rawCPF)
	if err != nil {
		return nil, cpfError(err)
	}

	if err := contact.validate(); err != nil {
		return nil, err
	}

	return &User{
		ID:           userID,
		Email:        email,
		CPF:          normalizedCPF,
		FirstName:    contact.FirstName,
		SocialName:   contact.SocialName,
		LastName:     contact.LastName,
		Phone:        contact.Phone,
		PasswordHash: passwordHash,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// ApplyContact updates the mutable name and phone fields.
func (u *User) ApplyContact(contact ContactFields, now time.Time) error {
	if err := contact.validate(); err != nil {
		return err
	}
	u.FirstName = contact.FirstName
	u.SocialName = contact.SocialName
	u.LastName = contact.LastName
	u.Phone = contact.Phone
	u.UpdatedAt = now
	return nil
}

// ApplyDeactivate flips the user inactive. There is no public reactivation
// path; reversal is an administrative concern.
func (u *User) ApplyDeactivate(now time.Time) {
	u.Active = false
	u.UpdatedAt = now
}

// DisplayName is the social name when present, otherwise first and last name.
func (u *User) DisplayName() string {
	if u.SocialName != "" {
		return u.SocialName
	}
	return u.FirstName + " " + u.LastName
}

func (c *ContactFields) validate() error {
	c.FirstName = strings.TrimSpace(c.FirstName)
	c.SocialName = strings.TrimSpace(c.SocialName)
	c.LastName = strings.TrimSpace(c.LastName)
	c.Phone = strings.TrimSpace(c.Phone)

	if c.FirstName == "" {
		return dErrors.NewField(dErrors.CodeValidation, "first_name", "first name cannot be empty")
	}
	if c.SocialName == "" {
		return dErrors.NewField(dErrors.CodeValidation, "social_name", "social name cannot be empty")
	}
	if c.LastName == "" {
		return dErrors.NewField(dErrors.CodeValidation, "last_name", "last name cannot be empty")
	}
	if len(c.FirstName) > maxNameLength || len(c.SocialName) > maxNameLength || len(c.LastName) > maxNameLength {
		return dErrors.NewField(dErrors.CodeValidation, "name", "names cannot exceed 50 characters")
	}
	if len(c.Phone) > maxPhoneLength {
		return dErrors.NewField(dErrors.CodeValidation, "phone", "phone cannot exceed 20 characters")
	}
	return nil
}

func cpfError(err error) error {
	switch {
	case errors.Is(err, cpf.ErrInvalidFormat):
		return dErrors.NewField(dErrors.CodeValidation, "cpf", "cpf must contain exactly 11 digits")
	case errors.Is(err, cpf.ErrInvalidChecksum):
		return dErrors.NewField(dErrors.CodeValidation, "cpf", "cpf checksum is invalid")
	default:
		return dErrors.NewField(dErrors.CodeValidation, "cpf", "cpf is invalid")
	}
}

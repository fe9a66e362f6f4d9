// Package domain holds typed identifiers shared across modules.
//
// Wrapping uuid.UUID in distinct named types makes cross-entity ID mixups a
// compile error instead of a data bug (a ProfileID cannot be passed where an
// AccountID is expected).
package domain

import (
	"fmt"

	"github.com/google/uuid"

	dErrors "orfin/pkg/domain-errors"
)

type (
	// UserID identifies a registered user.
	UserID uuid.UUID
	// ProfileID identifies a relative profile under a user.
	ProfileID uuid.UUID
	// CategoryID identifies a category within a tenant.
	CategoryID uuid.UUID
	// AccountID identifies a financial account within a tenant.
	AccountID uuid.UUID
)

func (i UserID) String() string     { return uuid.UUID(i).String() }
func (i ProfileID) String() string  { return uuid.UUID(i).String() }
func (i CategoryID) String() string { return uuid.UUID(i).String() }
func (i AccountID) String() string  { return uuid.UUID(i).String() }

func (i UserID) IsNil() bool     { return uuid.UUID(i) == uuid.Nil }
func (i ProfileID) IsNil() bool  { return uuid.UUID(i) == uuid.Nil }
func (i CategoryID) IsNil() bool { return uuid.UUID(i) == uuid.Nil }
func (i AccountID) IsNil() bool  { return uuid.UUID(i) == uuid.Nil }

// The named types do not inherit uuid.UUID's text marshaling, so each one
// implements encoding.TextMarshaler/TextUnmarshaler explicitly. Without
// these, encoding/json would emit the raw 16-byte array.

func (i UserID) MarshalText() ([]byte, error)     { return []byte(i.String()), nil }
func (i ProfileID) MarshalText() ([]byte, error)  { return []byte(i.String()), nil }
func (i CategoryID) MarshalText() ([]byte, error) { return []byte(i.String()), nil }
func (i AccountID) MarshalText() ([]byte, error)  { return []byte(i.String()), nil }

func (i *UserID) UnmarshalText(text []byte) error {
	parsed, err := ParseUserID(string(text))
	if err != nil {
		return err
	}
	*i = parsed
	return nil
}

func (i *ProfileID) UnmarshalText(text []byte) error {
	parsed, err := ParseProfileID(string(text))
	if err != nil {
		return err
	}
	*i = parsed
	return nil
}

func (i *CategoryID) UnmarshalText(text []byte) error {
	parsed, err := ParseCategoryID(string(text))
	if err != nil {
		return err
	}
	*i = parsed
	return nil
}

func (i *AccountID) UnmarshalText(text []byte) error {
	parsed, err := ParseAccountID(string(text))
	if err != nil {
		return err
	}
	*i = parsed
	return nil
}

// NewUserID allocates a fresh user identifier.
func NewUserID() UserID { return UserID(uuid.New()) }

// NewProfileID allocates a fresh profile identifier.
func NewProfileID() ProfileID { return ProfileID(uuid.New()) }

// NewCategoryID allocates a fresh category identifier.
func NewCategoryID() CategoryID { return CategoryID(uuid.New()) }

// NewAccountID allocates a fresh account identifier.
func NewAccountID() AccountID { return AccountID(uuid.New()) }

// ParseUserID validates and converts a string into a UserID.
func ParseUserID(s string) (UserID, error) {
	u, err := parse(s, "user id")
	return UserID(u), err
}

// ParseProfileID validates and converts a string into a ProfileID.
func ParseProfileID(s string) (ProfileID, error) {
	u, err := parse(s, "profile id")
	return ProfileID(u), err
}

// ParseCategoryID validates and converts a string into a CategoryID.
func ParseCategoryID(s string) (CategoryID, error) {
	u, err := parse(s, "category id")
	return CategoryID(u), err
}

// ParseAccountID validates and converts a string into an AccountID.
func ParseAccountID(s string) (AccountID, error) {
	u, err := parse(s, "account id")
	return AccountID(u), err
}

// parse rejects empty, malformed, and nil UUIDs so IDs are valid by
// construction at trust boundaries.
func parse(s, what string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeValidation, fmt.Sprintf("%s is required", what))
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeValidation, fmt.Sprintf("%s is not a valid uuid", what))
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeValidation, fmt.Sprintf("%s cannot be the nil uuid", what))
	}
	return u, nil
}

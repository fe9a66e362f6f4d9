package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"orfin/internal/tenant"
	id "orfin/pkg/domain"
	dErrors "orfin/pkg/domain-errors"
)

const (
	maxBankNameLength    = 30
	maxNameLength        = 50
	maxDescriptionLength = 200
)

// Type enumerates the supported account kinds.
type Type string

const (
	TypeChecking    Type = "checking"
	TypeCash        Type = "cash"
	TypeSavings     Type = "savings"
	TypeInvestments Type = "investments"
	TypeOther       Type = "other"
)

// Valid reports whether t is one of the supported account types.
func (t Type) Valid() bool {
	switch t {
	case TypeChecking, TypeCash, TypeSavings, TypeInvestments, TypeOther:
		return true
	}
	return false
}

// Palette is the fixed set of account colors.
var Palette = []string{"#FF0000", "#00FF00", "#0000FF", "#FFFF00", "#FF00FF", "#00FFFF"}

// Account is a financial account scoped by a tenant.
//
// Invariants:
//   - (tenant, Name) is unique, archived rows included
//   - Balance is set at creation and never mutable afterwards
//   - Archived implies IncludeCalc == false; the pair (archived=true,
//     include_calc=true) is rejected at every write boundary
//   - Accounts are never physically deleted; archival via the destroy path
//     is the only way to stop counting an account in totals
type Account struct {
	ID          id.AccountID    `json:"id"`
	Tenant      tenant.Key      `json:"-"`
	BankName    string          `json:"bank_name"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Type        Type            `json:"account_type"`
	Color       string          `json:"color"`
	IncludeCalc bool            `json:"include_calc"`
	Balance     decimal.Decimal `json:"balance"`
	Archived    bool            `json:"is_archived"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ListFilter narrows account listings. Defaults show only non-archived
// rows; Name matches as a case-insensitive substring.
type ListFilter struct {
	OnlyArchived bool
	Name         string
}

// Fields carries the caller-supplied state for an account write. Balance is
// honored on create only; updates must resubmit it unchanged or omit it.
type Fields struct {
	BankName    string
	Name        string
	Description string
	Type        Type
	Color       string
	IncludeCalc bool
	Archived    bool
	Balance     decimal.Decimal
}

// NewAccount validates field invariants and constructs an account. The
// stored include_calc is derived, never taken verbatim from the input.
func NewAccount(accountID id.AccountID, key tenant.Key, f Fields, now time.Time) (*Account, error) {
	if err := validateFields(&f); err != nil {
		return nil, err
	}
	return &Account{
		ID:          accountID,
		Tenant:      key,
		BankName:    f.BankName,
		Name:        f.Name,
		Description: f.Description,
		Type:        f.Type,
		Color:       f.Color,
		IncludeCalc: DeriveIncludeCalc(f.Archived, f.IncludeCalc),
		Balance:     f.Balance.Round(2),
		Archived:    f.Archived,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// ApplyUpdate replaces the mutable fields after validation. Balance is
// intentionally not touched: it is immutable after creation.
func (a *Account) ApplyUpdate(f Fields, now time.Time) error {
	if err := validateFields(&f); err != nil {
		return err
	}
	a.BankName = f.BankName
	a.Name = f.Name
	a.Description = f.Description
	a.Type = f.Type
	a.Color = f.Color
	a.Archived = f.Archived
	a.IncludeCalc = DeriveIncludeCalc(f.Archived, f.IncludeCalc)
	a.UpdatedAt = now
	return nil
}

// DeriveIncludeCalc computes the stored include_calc flag: an archived
// account never participates in balance totals, whatever the caller asked
// for. Keeping the coupling in one pure function makes it testable
// independent of storage.
func DeriveIncludeCalc(archived, requestedIncludeCalc bool) bool {
	if archived {
		return false
	}
	return requestedIncludeCalc
}

// ValidateCalcFlag rejects the contradictory input combination of an
// archived account that asks to be counted. It checks the request, not the
// derived state, so callers get an error instead of a silent correction.
func ValidateCalcFlag(archived, requestedIncludeCalc bool) error {
	if archived && requestedIncludeCalc {
		return dErrors.NewField(dErrors.CodeValidation, "include_calc",
			"include_calc can only be true when the account is not archived")
	}
	return nil
}

func validateFields(f *Fields) error {
	f.BankName = strings.TrimSpace(f.BankName)
	f.Name = strings.TrimSpace(f.Name)
	if f.BankName == "" {
		return dErrors.NewField(dErrors.CodeValidation, "bank_name", "bank name is required")
	}
	if len(f.BankName) > maxBankNameLength {
		return dErrors.NewField(dErrors.CodeValidation, "bank_name", "bank name must be 30 characters or less")
	}
	if f.Name == "" {
		return dErrors.NewField(dErrors.CodeValidation, "name", "account name is required")
	}
	if len(f.Name) > maxNameLength {
		return dErrors.NewField(dErrors.CodeValidation, "name", "account name must be 50 characters or less")
	}
	if len(f.Description) > maxDescriptionLength {
		return dErrors.NewField(dErrors.CodeValidation, "description", "description must be 200 characters or less")
	}
	if !f.Type.Valid() {
		return dErrors.NewField(dErrors.CodeValidation, "account_type", "unknown account type")
	}
	f.Color = strings.ToUpper(f.Color)
	if !paletteContains(f.Color) {
		return dErrors.NewField(dErrors.CodeValidation, "color", "color must be one of the account palette colors")
	}
	return nil
}

func paletteContains(color string) bool {
	for _, c := range Palette {
		if c == color {
			return true
		}
	}
	return false
}

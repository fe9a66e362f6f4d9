package models

import (
	"strings"
	"time"

	"orfin/internal/tenant"
	id "orfin/pkg/domain"
	dErrors "orfin/pkg/domain-errors"
)

const (
	maxNameLength = 50
	maxIconLength = 20
)

// Category is a node in the per-tenant two-level category tree.
//
// Invariants:
//   - Name is non-blank and at most 50 characters
//   - Color is "#" + 6 hex digits, stored uppercase
//   - ParentID, when set, references a category of the same tenant that has
//     no parent itself (depth cap of 2)
//   - (tenant, Name, ParentID) is unique among all rows, archived included
//   - Categories are never physically deleted; archival cascades one level
//     down to direct children
type Category struct {
	ID        id.CategoryID  `json:"id"`
	Tenant    tenant.Key     `json:"-"`
	Name      string         `json:"name"`
	Color     string         `json:"color"`
	Icon      string         `json:"icon"`
	ParentID  *id.CategoryID `json:"parent_id,omitempty"`
	Archived  bool           `json:"is_archived"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// ListFilter narrows category listings. Defaults show only non-archived
// rows; Name matches as a case-insensitive substring.
type ListFilter struct {
	OnlyArchived bool
	Name         string
}

// NewCategory validates field invariants and constructs an active category.
// Relationship invariants (parent existence, tenant match, depth) are the
// service's responsibility since they require store lookups.
func NewCategory(categoryID id.CategoryID, key tenant.Key, name, color, icon string, parentID *id.CategoryID, now time.Time) (*Category, error) {
	name, color, icon, err := validateFields(name, color, icon)
	if err != nil {
		return nil, err
	}
	return &Category{
		ID:        categoryID,
		Tenant:    key,
		Name:      name,
		Color:     color,
		Icon:      icon,
		ParentID:  parentID,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// ApplyUpdate replaces the mutable fields after validating them. The caller
// re-checks relationship invariants against the new parent.
func (c *Category) ApplyUpdate(name, color, icon string, parentID *id.CategoryID, archived bool, now time.Time) error {
	name, color, icon, err := validateFields(name, color, icon)
	if err != nil {
		return err
	}
	c.Name = name
	c.Color = color
	c.Icon = icon
	c.ParentID = parentID
	c.Archived = archived
	c.UpdatedAt = now
	return nil
}

func validateFields(name, color, icon string) (string, string, string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", "", "", dErrors.NewField(dErrors.CodeValidation, "name", "category name is required")
	}
	if len(name) > maxNameLength {
		return "", "", "", dErrors.NewField(dErrors.CodeValidation, "name", "category name must be 50 characters or less")
	}
	normalized, err := NormalizeColor(color)
	if err != nil {
		return "", "", "", err
	}
	if len(icon) > maxIconLength {
		return "", "", "", dErrors.NewField(dErrors.CodeValidation, "icon", "icon must be 20 characters or less")
	}
	return name, normalized, icon, nil
}

// NormalizeColor validates the "#RRGGBB" format (case-insensitive input)
// and returns the uppercase canonical form.
func NormalizeColor(color string) (string, error) {
	if len(color) != 7 || color[0] != '#' {
		return "", dErrors.NewField(dErrors.CodeValidation, "color", "color must be in the #RRGGBB hexadecimal format")
	}
	for i := 1; i < len(color); i++ {
		c := color[i]
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		default:
			return "", dErrors.NewField(dErrors.CodeValidation, "color", "color must contain only hexadecimal characters")
		}
	}
	return strings.ToUpper(color), nil
}

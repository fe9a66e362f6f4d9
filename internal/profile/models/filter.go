package models

// ListFilter narrows profile listings. Defaults show only non-archived
// rows; Name matches as a case-insensitive substring.
type ListFilter struct {
	OnlyArchived bool
	Name         string
}

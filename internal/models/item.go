package models

import "time"

// Item is a borrowable piece of equipment. The four counters form the
// quantity ledger: Available + Borrowed + Maintenance == Total at all times.
type Item struct {
	ID          int64     `yaml:"id" json:"id"`
	Name        string    `yaml:"name" json:"name"`
	Description string    `yaml:"description" json:"description"`
	Category    string    `yaml:"category" json:"category"`
	Total       int64     `yaml:"total" json:"total"`
	Available   int64     `yaml:"available" json:"available"`
	Borrowed    int64     `yaml:"borrowed" json:"borrowed"`
	Maintenance int64     `yaml:"maintenance" json:"maintenance"`
	SortOrder   int64     `yaml:"sort_order" json:"sort_order"`
	IsActive    bool      `yaml:"is_active" json:"is_active"`
	CreatedAt   time.Time `yaml:"created_at" json:"created_at"`
	UpdatedAt   time.Time `yaml:"updated_at" json:"updated_at"`
}

// LedgerBalanced reports whether the quantity ledger adds up.
func (i *Item) LedgerBalanced() bool {
	return i.Available+i.Borrowed+i.Maintenance == i.Total
}

// Package model holds the entities mapped by the store: Country and its
// Capital, related one-to-one through the capital's country_id column.
package model

import (
	"golang.org/x/text/unicode/norm"
)

// Entity is implemented by every persistable type.
type Entity interface {
	// TableName returns the mapped table.
	TableName() string

	// PrimaryKey returns the identity assigned by the store, or 0 while
	// the entity is transient.
	PrimaryKey() uint
}

// Country is the inverse side of the Country–Capital association.
//
// Column constraints live in store/schema.sql; the gorm tags only describe
// keys and the association.
type Country struct {
	ID      uint `gorm:"primaryKey"`
	Name    string
	Capital *Capital `gorm:"foreignKey:CountryID"`
}

// NewCountry creates a transient country. The name is NFC-normalized.
func NewCountry(name string) *Country {
	return &Country{Name: normalizeName(name)}
}

func (Country) TableName() string { return "Country" }

func (c *Country) PrimaryKey() uint { return c.ID }

// Capital owns the association: its CountryID column references Country.
type Capital struct {
	ID        uint `gorm:"primaryKey"`
	Name      string
	CountryID uint
	Country   *Country `gorm:"foreignKey:CountryID"`
}

// NewCapital creates a transient, unassociated capital.
func NewCapital(name string) *Capital {
	return &Capital{Name: normalizeName(name)}
}

func (Capital) TableName() string { return "Capital" }

func (c *Capital) PrimaryKey() uint { return c.ID }

var (
	_ Entity = (*Country)(nil)
	_ Entity = (*Capital)(nil)
)

func normalizeName(s string) string {
	return norm.NFC.String(s)
}

package entity

import "time"

// Achievement is a definition of the achievement catalog. Rows are seeded from
// the embedded catalog and never changed by user actions.
type Achievement struct {
	Key         string `gorm:"primaryKey"`
	Name        string
	Description string
	Category    string
	Rarity      string
	Points      int
	Hidden      bool

	CriteriaType     string
	CriteriaCategory string
	Threshold        float64

	CatalogVersion int

	CreatedAt time.Time
	UpdatedAt time.Time
}

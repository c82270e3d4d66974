package entity

import (
	"time"

	"gorm.io/gorm"
)

// ClubMember is owned by the club service. The progression engine only
// counts the memberships of a user.
type ClubMember struct {
	ClubID string `gorm:"primaryKey"`
	UserID string `gorm:"primaryKey;index"`
	User   User   `gorm:"foreignKey:UserID"`

	JoinedAt  time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

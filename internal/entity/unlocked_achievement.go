package entity

import "time"

type UnlockedAchievement struct {
	UserID string `gorm:"primaryKey"`
	User   User   `gorm:"foreignKey:UserID"`

	AchievementKey string      `gorm:"primaryKey"`
	Achievement    Achievement `gorm:"foreignKey:AchievementKey"`

	UnlockedAt time.Time
}

package entity

import "time"

type User struct {
	ID           string    `gorm:"primaryKey;type:text"`
	Username     string    `gorm:"type:text;uniqueIndex;not null"`
	Email        string    `gorm:"type:text;uniqueIndex;not null"`
	PasswordHash string    `gorm:"type:text;not null"`
	Role         string    `gorm:"type:text;not null;default:citizen"`
	ProfileImage string    `gorm:"type:text"`
	IsVerified   bool      `gorm:"not null;default:false"`
	CreatedAt    time.Time `gorm:"not null"`
}

func (User) TableName() string {
	return "users"
}

// OwnerSummary is the public view of a report owner shown to supervisors.
type OwnerSummary struct {
	ID           string
	Username     string
	ProfileImage string
}

package models

import "time"

// OneTimeToken backs both invitation and password reset links. A token is
// redeemable once, strictly before ExpiresAt.
type OneTimeToken struct {
	ID        uint      `gorm:"primaryKey"`
	Token     string    `gorm:"uniqueIndex;not null"`
	UserID    uint      `gorm:"not null;index"`
	User      User      `gorm:"constraint:OnDelete:CASCADE"`
	ExpiresAt time.Time `gorm:"not null"`
	Used      bool      `gorm:"not null;default:false"`
	CreatedAt time.Time `gorm:"not null"`
}

func (OneTimeToken) TableName() string {
	return "invitation_tokens"
}

func (token OneTimeToken) Expired(now time.Time) bool {
	return !now.Before(token.ExpiresAt)
}

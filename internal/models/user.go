package models

import (
	"slices"
	"strings"
	"time"
)

const (
	RoleAdmin  = "ADMIN"
	RoleMember = "MIEMBRO"
)

// Roles lists every role a user may hold.
var Roles = []string{RoleAdmin, RoleMember}

type User struct {
	ID           uint      `gorm:"primaryKey"`
	Email        string    `gorm:"uniqueIndex;not null"`
	PasswordHash *string   `gorm:"column:password_hash"`
	Role         string    `gorm:"not null;default:MIEMBRO"`
	FirstName    string    `gorm:"not null;default:''"`
	LastName     string    `gorm:"not null;default:''"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time
}

// Activated reports whether the user has set a password. Invited users stay
// inactive until they redeem their invitation token.
func (user User) Activated() bool {
	return user.PasswordHash != nil && strings.TrimSpace(*user.PasswordHash) != ""
}

func IsKnownRole(role string) bool {
	return slices.Contains(Roles, role)
}

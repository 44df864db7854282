package db

import "gorm.io/gorm"

type Repositories struct {
	Users  *UserRepository
	Tokens *TokenRepository
}

func NewRepositories(database *gorm.DB) *Repositories {
	return &Repositories{
		Users:  NewUserRepository(database),
		Tokens: NewTokenRepository(database),
	}
}

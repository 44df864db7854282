package db

import (
	"context"

	"github.com/terraincognita07/parish/internal/models"
	"gorm.io/gorm"
)

type TokenRepository struct {
	database *gorm.DB
}

func NewTokenRepository(database *gorm.DB) *TokenRepository {
	return &TokenRepository{database: database}
}

func (repo *TokenRepository) Create(ctx context.Context, token *models.OneTimeToken) error {
	return translateError(repo.database.WithContext(ctx).Omit("User").Create(token).Error)
}

// FindByToken looks a token up by exact value and preloads its owner.
func (repo *TokenRepository) FindByToken(ctx context.Context, value string) (models.OneTimeToken, error) {
	var token models.OneTimeToken
	if err := repo.database.WithContext(ctx).
		Preload("User").
		Where("token = ?", value).
		First(&token).Error; err != nil {
		return models.OneTimeToken{}, translateError(err)
	}
	return token, nil
}

func (repo *TokenRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := repo.database.WithContext(ctx).Model(&models.OneTimeToken{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (repo *TokenRepository) CountByUser(ctx context.Context, userID uint) (int64, error) {
	var count int64
	if err := repo.database.WithContext(ctx).Model(&models.OneTimeToken{}).
		Where("user_id = ?", userID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Redeem marks the token used and stores the new password digest in one
// transaction. The used flag is flipped with a conditional update, so of two
// concurrent redemptions only one observes an affected row; the other gets
// ErrTokenConsumed. With requireInactive the digest is only written while the
// owner has none, otherwise ErrUserActivated.
func (repo *TokenRepository) Redeem(ctx context.Context, tokenID uint, userID uint, passwordHash string, requireInactive bool) error {
	err := repo.database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		consumed := tx.Model(&models.OneTimeToken{}).
			Where("id = ? AND used = ?", tokenID, false).
			Update("used", true)
		if consumed.Error != nil {
			return consumed.Error
		}
		if consumed.RowsAffected == 0 {
			return ErrTokenConsumed
		}

		query := tx.Model(&models.User{}).Where("id = ?", userID)
		if requireInactive {
			query = query.Where("(password_hash IS NULL OR password_hash = '')")
		}
		updated := query.Update("password_hash", passwordHash)
		if updated.Error != nil {
			return updated.Error
		}
		if updated.RowsAffected == 0 {
			if requireInactive {
				return ErrUserActivated
			}
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	return translateError(err)
}

package repository

import (
	"github.com/yukikurage/project-tracker-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormPasswordResetTokenRepository is a GORM implementation of PasswordResetTokenRepository
type GormPasswordResetTokenRepository struct {
	db *gorm.DB
}

// NewPasswordResetTokenRepository creates a new PasswordResetTokenRepository
func NewPasswordResetTokenRepository(db *gorm.DB) PasswordResetTokenRepository {
	return &GormPasswordResetTokenRepository{db: db}
}

// Rotate retires the user's unused tokens and stores token. Callers run it
// inside a transaction so both statements land together.
func (r *GormPasswordResetTokenRepository) Rotate(token *models.PasswordResetToken) error {
	if err := r.db.Model(&models.PasswordResetToken{}).
		Where("user_id = ? AND is_used = ?", token.UserID, false).
		Update("is_used", true).Error; err != nil {
		return err
	}
	return r.db.Omit(clause.Associations).Create(token).Error
}

func (r *GormPasswordResetTokenRepository) FindByToken(token string) (*models.PasswordResetToken, error) {
	var resetToken models.PasswordResetToken
	if err := r.db.Where("token = ?", token).First(&resetToken).Error; err != nil {
		return nil, err
	}
	return &resetToken, nil
}

// Consume marks the token used only if it still is unused
func (r *GormPasswordResetTokenRepository) Consume(id uint64) (bool, error) {
	result := r.db.Model(&models.PasswordResetToken{}).
		Where("id = ? AND is_used = ?", id, false).
		Update("is_used", true)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

package services

import (
	"time"

	"recipe_reel_go_backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProfileServiceDB reads and debits the user profiles owned by the identity
// provider. The core never creates profiles.
type ProfileServiceDB interface {
	GetProfileDB(userID uuid.UUID) (*models.Profile, error)
	DecrementFreeGenerationsDB(userID uuid.UUID) (bool, error)
	DeleteProfileDB(userID uuid.UUID) error
}

type DefaultProfileService struct {
	db *gorm.DB
}

func NewProfileServiceDB(db *gorm.DB) ProfileServiceDB {
	return &DefaultProfileService{db: db}
}

// GetProfileDB returns nil without error when the profile does not exist.
func (s *DefaultProfileService) GetProfileDB(userID uuid.UUID) (*models.Profile, error) {
	var profile models.Profile
	result := s.db.Where("id = ?", userID).First(&profile)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, result.Error
	}
	return &profile, nil
}

// DecrementFreeGenerationsDB takes one free generation if any is left. The
// guard lives in the WHERE clause so concurrent debits cannot go negative
// and premium users are never touched. Returns whether a row was debited.
func (s *DefaultProfileService) DecrementFreeGenerationsDB(userID uuid.UUID) (bool, error) {
	result := s.db.Model(&models.Profile{}).
		Where("id = ? AND is_premium = ? AND free_generations_remaining > 0", userID, false).
		Updates(map[string]interface{}{
			"free_generations_remaining": gorm.Expr("free_generations_remaining - 1"),
			"updated_at":                 time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (s *DefaultProfileService) DeleteProfileDB(userID uuid.UUID) error {
	return s.db.Where("id = ?", userID).Delete(&models.Profile{}).Error
}

// Package secrets provides database operations for submitted secrets.
package secrets

import (
	"gorm.io/gorm"

	"github.com/mrlokans/secrets/internal/entities"
)

// Repository handles secret storage and listing.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new secrets repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create stores a secret submitted by the given user.
func (r *Repository) Create(userID uint, text string) (*entities.Secret, error) {
	secret := entities.Secret{
		UserID: userID,
		Text:   text,
	}
	if err := r.db.Create(&secret).Error; err != nil {
		return nil, err
	}
	return &secret, nil
}

// List returns all secrets, newest first. Authorship is intentionally not
// exposed; secrets render anonymously.
func (r *Repository) List() ([]entities.Secret, error) {
	var secrets []entities.Secret
	err := r.db.Order("created_at desc, id desc").Find(&secrets).Error
	if err != nil {
		return nil, err
	}
	return secrets, nil
}

// Package users provides database operations for user records.
//
// # Usage
//
//	repo := users.NewRepository(db)
//	user, err := repo.GetByUsername("alice")
//
// Absent rows surface as gorm.ErrRecordNotFound; a violated unique index
// surfaces as gorm.ErrDuplicatedKey (the connection must be opened with
// TranslateError enabled, see database.NewDatabase).
package users

import (
	"gorm.io/gorm"

	"github.com/mrlokans/secrets/internal/entities"
)

// Repository handles all user database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new users repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// GetByUsername retrieves a user by username. Matching is exact-string.
func (r *Repository) GetByUsername(username string) (*entities.User, error) {
	var user entities.User
	err := r.db.Where("username = ?", username).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByExternalID retrieves a user by provider-qualified external ID.
func (r *Repository) GetByExternalID(externalID string) (*entities.User, error) {
	var user entities.User
	err := r.db.Where("external_id = ?", externalID).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Create inserts a new user. Uniqueness of the username is enforced by the
// unique index, not by a read-then-write, so two concurrent inserts for the
// same username cannot both succeed.
func (r *Repository) Create(user *entities.User) (*entities.User, error) {
	if err := r.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// LinkExternalID attaches a provider identity to an existing account.
// Idempotent: re-linking the same identity is a no-op.
func (r *Repository) LinkExternalID(username, externalID string) (*entities.User, error) {
	user, err := r.GetByUsername(username)
	if err != nil {
		return nil, err
	}
	if user.ExternalID != nil && *user.ExternalID == externalID {
		return user, nil
	}

	if err := r.db.Model(user).Update("external_id", externalID).Error; err != nil {
		return nil, err
	}
	user.ExternalID = &externalID
	return user, nil
}

// SetPasswordHash adds a local credential to an existing account (the other
// half of account linking).
func (r *Repository) SetPasswordHash(username, passwordHash string) (*entities.User, error) {
	user, err := r.GetByUsername(username)
	if err != nil {
		return nil, err
	}

	if err := r.db.Model(user).Update("password_hash", passwordHash).Error; err != nil {
		return nil, err
	}
	user.PasswordHash = passwordHash
	return user, nil
}

// Count returns the number of user rows.
func (r *Repository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&entities.User{}).Count(&count).Error
	return count, err
}

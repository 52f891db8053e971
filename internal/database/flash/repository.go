// Package flash provides database operations for one-shot session messages.
package flash

import (
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/secrets/internal/entities"
)

// Repository queues and drains flash messages per session.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new flash message repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Push appends a message to the session's queue. Insertion order is the
// delivery order.
func (r *Repository) Push(sessionID string, category entities.FlashCategory, text string) error {
	msg := entities.FlashMessage{
		SessionID: sessionID,
		Category:  category,
		Text:      text,
	}
	return r.db.Create(&msg).Error
}

// DrainAll returns the session's queued messages in insertion order and
// removes them, all inside one transaction. A message is observed by
// exactly one drain; a second call returns an empty slice.
func (r *Repository) DrainAll(sessionID string) ([]entities.FlashMessage, error) {
	var messages []entities.FlashMessage

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("session_id = ?", sessionID).
			Order("id asc").
			Find(&messages).Error; err != nil {
			return err
		}
		if len(messages) == 0 {
			return nil
		}
		// Delete by ID, not by session: a push racing with the drain must
		// survive for the next drain, not vanish unread.
		ids := make([]uint, len(messages))
		for i, m := range messages {
			ids[i] = m.ID
		}
		return tx.Where("id IN ?", ids).
			Delete(&entities.FlashMessage{}).Error
	})
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// PruneBefore deletes undelivered messages older than the cutoff. Abandoned
// anonymous sessions never drain their queue, so something has to.
func (r *Repository) PruneBefore(cutoff time.Time) (int64, error) {
	result := r.db.Where("created_at < ?", cutoff).Delete(&entities.FlashMessage{})
	return result.RowsAffected, result.Error
}

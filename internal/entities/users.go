package entities

import (
	"time"
)

// User is an account that can sign in with a local password, a federated
// provider identity, or both. Username is the primary identity key and is
// immutable once created.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"uniqueIndex;size:100" json:"username"`
	PasswordHash string    `gorm:"size:100" json:"-"`             // empty for OAuth-only accounts
	ExternalID   *string   `gorm:"uniqueIndex;size:255" json:"-"` // provider-qualified, e.g. "google:<sub>"
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// HasCredential reports whether the user has at least one way to
// authenticate. A row violating this was corrupted outside the application.
func (u *User) HasCredential() bool {
	return u.PasswordHash != "" || (u.ExternalID != nil && *u.ExternalID != "")
}

func (User) TableName() string {
	return "users"
}

// Secret is a user-submitted secret. Secrets are displayed anonymously, so
// the author is tracked but never rendered.
type Secret struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index" json:"-"`
	Text      string    `gorm:"type:text" json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

func (Secret) TableName() string {
	return "secrets"
}

type FlashCategory string

const (
	FlashCategoryError FlashCategory = "error"
	FlashCategoryInfo  FlashCategory = "info"
)

// FlashMessage is a one-shot message queued for a single session. The
// auto-increment ID doubles as the FIFO ordering key.
type FlashMessage struct {
	ID        uint          `gorm:"primaryKey" json:"-"`
	SessionID string        `gorm:"index;size:64" json:"-"`
	Category  FlashCategory `gorm:"size:10" json:"category"`
	Text      string        `gorm:"size:500" json:"text"`
	CreatedAt time.Time     `json:"-"`
}

func (FlashMessage) TableName() string {
	return "flash_messages"
}

package models

import (
	"time"

	"gorm.io/gorm"
)

// PersistedSession represents persisted_sessions table. It keeps the
// provider credential of a browser session across portal restarts.
type PersistedSession struct {
	ID             string     `gorm:"primaryKey;size:36" json:"id"`
	Email          string     `gorm:"size:255;index" json:"email"`
	IDToken        string     `gorm:"type:text" json:"-"`
	RefreshToken   string     `gorm:"type:text" json:"-"`
	TokenExpiresAt *time.Time `json:"token_expires_at"`
	ExpiresAt      time.Time  `gorm:"not null;index" json:"expires_at"`
	CreatedAt      time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (PersistedSession) TableName() string {
	return "persisted_sessions"
}

func (s *PersistedSession) IsExpired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// LocalAccount represents local_accounts table used by the local identity
// provider
type LocalAccount struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UID          string    `gorm:"size:36;uniqueIndex;not null" json:"uid"`
	Email        string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	DisplayName  string    `gorm:"size:255" json:"display_name"`
	PhotoURL     string    `gorm:"size:1024" json:"photo_url"`
	Disabled     bool      `gorm:"default:false" json:"disabled"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (LocalAccount) TableName() string {
	return "local_accounts"
}

// RefreshToken represents refresh_tokens table
type RefreshToken struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UID       string     `gorm:"size:36;index;not null" json:"uid"`
	TokenHash string     `gorm:"size:255;not null;index" json:"-"`
	ExpiresAt time.Time  `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	RevokedAt *time.Time `gorm:"index" json:"revoked_at"`
}

func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

func (rt *RefreshToken) IsRevoked() bool {
	return rt.RevokedAt != nil
}

func (rt *RefreshToken) IsExpired() bool {
	return time.Now().After(rt.ExpiresAt)
}

// AutoMigrate creates or updates the portal tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&PersistedSession{},
		&LocalAccount{},
		&RefreshToken{},
	)
}

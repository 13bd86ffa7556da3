package repositories

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"loanlink-portal/internal/adapters/persistence/models"
	"loanlink-portal/internal/core/domain"
)

// sessionRepository implements SessionRepository interface
type sessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepository{db: db}
}

// Get returns the persisted session or domain.ErrNotFound
func (r *sessionRepository) Get(ctx context.Context, id string) (*models.PersistedSession, error) {
	var s models.PersistedSession
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

// Save inserts or replaces the session row
func (r *sessionRepository) Save(ctx context.Context, s *models.PersistedSession) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(s).Error
}

// Delete removes a session; deleting a missing row is not an error
func (r *sessionRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.PersistedSession{}).Error
}

// DeleteExpired deletes all expired sessions (cleanup job)
func (r *sessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("expires_at < ?", now).
		Delete(&models.PersistedSession{})
	return res.RowsAffected, res.Error
}

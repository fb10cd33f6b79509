package tokenstore

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"equity/internal/models"
)

// DBStore keeps revoked ids in the revoked_tokens table. It is used when
// revocation is enabled without Redis.
type DBStore struct {
	db  *gorm.DB
	now func() time.Time
}

// NewDBStore creates a database-backed Store.
func NewDBStore(db *gorm.DB) *DBStore {
	return &DBStore{db: db, now: time.Now}
}

// Revoke inserts the id; revoking the same id twice is not an error.
func (s *DBStore) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	row := &models.RevokedToken{TokenID: tokenID, ExpiresAt: expiresAt}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(row).Error
	if err != nil {
		return fmt.Errorf("tokenstore.DBStore.Revoke: %w", err)
	}
	return nil
}

// IsRevoked ignores rows whose token has expired already.
func (s *DBStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.RevokedToken{}).
		Where("token_id = ? AND expires_at > ?", tokenID, s.now()).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("tokenstore.DBStore.IsRevoked: %w", err)
	}
	return count > 0, nil
}

// Purge deletes rows for tokens that have expired and returns how many
// were removed.
func (s *DBStore) Purge(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("expires_at <= ?", s.now()).
		Delete(&models.RevokedToken{})
	if res.Error != nil {
		return 0, fmt.Errorf("tokenstore.DBStore.Purge: %w", res.Error)
	}
	return res.RowsAffected, nil
}

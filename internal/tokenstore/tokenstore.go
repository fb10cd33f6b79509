// Package tokenstore records revoked session token ids so a logged-out
// token is refused before it expires.
package tokenstore

import (
	"context"
	"time"

	"gorm.io/gorm"

	"equity/internal/config"
)

// Store keeps revoked token ids until the tokens would have expired.
type Store interface {
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// NopStore never revokes anything. It backs the default stateless logout.
type NopStore struct{}

// Revoke does nothing.
func (NopStore) Revoke(context.Context, string, time.Time) error { return nil }

// IsRevoked always reports false.
func (NopStore) IsRevoked(context.Context, string) (bool, error) { return false, nil }

// Open picks the revocation backend. With revocation disabled every token
// stays valid until it expires; otherwise Redis is preferred when an
// address is configured and the database is used as the fallback.
func Open(ctx context.Context, jwtCfg config.JWTConfig, redisCfg config.RedisConfig, db *gorm.DB) (Store, error) {
	if !jwtCfg.BlacklistEnabled {
		return NopStore{}, nil
	}
	if redisCfg.Enabled() {
		store, err := NewRedisStore(ctx, redisCfg.Addr, redisCfg.Password, redisCfg.DB)
		if err != nil {
			return nil, err
		}
		return store, nil
	}
	return NewDBStore(db), nil
}

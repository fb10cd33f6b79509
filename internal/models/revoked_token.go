package models

import "time"

// RevokedToken marks a session token id as unusable until it would have
// expired anyway.
type RevokedToken struct {
	TokenID   string    `gorm:"primaryKey;size:64"`
	ExpiresAt time.Time `gorm:"not null;index"`
	CreatedAt time.Time
}

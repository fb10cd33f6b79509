package services

import (
	"errors"

	"gorm.io/gorm"

	apperrors "equity/internal/errors"
	"equity/internal/models"
	"equity/internal/uuid"
)

type ownershipGuard struct {
	db *gorm.DB
}

// NewOwnershipGuard creates the guard every asset and subscription
// operation resolves its subject through.
func NewOwnershipGuard(db *gorm.DB) OwnershipGuard {
	return &ownershipGuard{db: db}
}

// ResolveUser loads the user a token subject refers to.
func (g *ownershipGuard) ResolveUser(subject string) (*models.User, error) {
	if !uuid.IsValid(subject) {
		return nil, apperrors.ErrUserNotFound
	}
	var user models.User
	if err := g.db.Where("id = ?", subject).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &user, nil
}

// ResolveAsset loads an asset only if the subject owns it.
func (g *ownershipGuard) ResolveAsset(subject, assetID string) (*models.User, *models.Asset, error) {
	user, err := g.ResolveUser(subject)
	if err != nil {
		return nil, nil, err
	}

	if !uuid.IsValid(assetID) {
		return nil, nil, apperrors.ErrAssetNotFound
	}

	var asset models.Asset
	if err := g.db.Where("id = ? AND user_id = ?", assetID, user.ID).First(&asset).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperrors.ErrAssetNotFound
		}
		return nil, nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return user, &asset, nil
}

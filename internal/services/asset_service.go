package services

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "equity/internal/errors"
	"equity/internal/models"
	"equity/internal/pagination"
)

// assetService implements the per-user asset ledger.
type assetService struct {
	db    *gorm.DB
	guard OwnershipGuard
}

// NewAssetService creates a new AssetServicer.
func NewAssetService(db *gorm.DB, guard OwnershipGuard) AssetServicer {
	return &assetService{db: db, guard: guard}
}

func (s *assetService) ownedBy(userID string) *gorm.DB {
	return s.db.Model(&models.Asset{}).Where("user_id = ?", userID)
}

// ListAssets returns all of the subject's assets, oldest first.
func (s *assetService) ListAssets(subject string) ([]models.Asset, error) {
	user, err := s.guard.ResolveUser(subject)
	if err != nil {
		return nil, err
	}

	assets := []models.Asset{}
	if err := s.ownedBy(user.ID).Order("created_at ASC, id ASC").Find(&assets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return assets, nil
}

// ListAssetsPage returns one page of the subject's assets in the same order
// as ListAssets.
func (s *assetService) ListAssetsPage(subject string, page pagination.PageRequest) (*pagination.PageResponse[models.Asset], error) {
	user, err := s.guard.ResolveUser(subject)
	if err != nil {
		return nil, err
	}
	page.Defaults()

	var total int64
	if err := s.ownedBy(user.ID).Count(&total).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var assets []models.Asset
	if err := s.ownedBy(user.ID).
		Order("created_at ASC, id ASC").
		Scopes(pagination.Paginate(page)).
		Find(&assets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	resp := pagination.NewPageResponse(assets, page.Page, page.PageSize, total)
	return &resp, nil
}

// CreateAsset stores a new asset for the subject. Value and profit/loss are
// taken as supplied.
func (s *assetService) CreateAsset(subject string, in AssetInput) (*models.Asset, error) {
	user, err := s.guard.ResolveUser(subject)
	if err != nil {
		return nil, err
	}

	if in.SectorType == "" {
		return nil, apperrors.WithMessage(apperrors.ErrMissingField, "Missing required field: sectorType")
	}
	if in.Name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrMissingField, "Missing required field: name")
	}

	asset := &models.Asset{
		UserID:               user.ID,
		SectorType:           in.SectorType,
		SubSector:            emptyToNil(in.SubSector),
		Name:                 in.Name,
		Price:                in.Price,
		AcquisitionPrice:     in.AcquisitionPrice,
		Amount:               in.Amount,
		Value:                in.Value,
		ProfitLoss:           in.ProfitLoss,
		ProfitLossPercentage: in.ProfitLossPercentage,
		PE:                   in.PE,
		DividendYield:        in.DividendYield,
		Growth1Y:             in.Growth1Y,
		Growth3Y:             in.Growth3Y,
		Growth5Y:             in.Growth5Y,
	}

	if err := s.db.Create(asset).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return asset, nil
}

// UpdateAsset applies a partial update to an asset the subject owns.
func (s *assetService) UpdateAsset(subject, assetID string, patch AssetPatch) (*models.Asset, error) {
	_, asset, err := s.guard.ResolveAsset(subject, assetID)
	if err != nil {
		return nil, err
	}

	if patch.SectorType != nil {
		if *patch.SectorType == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Field must not be blank: sectorType")
		}
		asset.SectorType = *patch.SectorType
	}
	if patch.Name != nil {
		if *patch.Name == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Field must not be blank: name")
		}
		asset.Name = *patch.Name
	}
	if patch.SubSector != nil {
		asset.SubSector = emptyToNil(patch.SubSector)
	}

	setFloat(&asset.Price, patch.Price)
	setFloat(&asset.AcquisitionPrice, patch.AcquisitionPrice)
	setFloat(&asset.Amount, patch.Amount)
	setFloat(&asset.Value, patch.Value)
	setFloat(&asset.ProfitLoss, patch.ProfitLoss)
	setFloat(&asset.ProfitLossPercentage, patch.ProfitLossPercentage)

	setNullable(&asset.PE, patch.PE)
	setNullable(&asset.DividendYield, patch.DividendYield)
	setNullable(&asset.Growth1Y, patch.Growth1Y)
	setNullable(&asset.Growth3Y, patch.Growth3Y)
	setNullable(&asset.Growth5Y, patch.Growth5Y)

	// Save writes every column, so cleared metrics become NULL.
	if err := s.db.Save(asset).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return asset, nil
}

// DeleteAsset soft-deletes an asset the subject owns.
func (s *assetService) DeleteAsset(subject, assetID string) error {
	_, asset, err := s.guard.ResolveAsset(subject, assetID)
	if err != nil {
		return err
	}

	if err := s.db.Delete(asset).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// Summarize totals the subject's asset values overall and per sector.
func (s *assetService) Summarize(subject string) (*PortfolioSummary, error) {
	user, err := s.guard.ResolveUser(subject)
	if err != nil {
		return nil, err
	}

	var assets []models.Asset
	if err := s.ownedBy(user.ID).Select("sector_type", "value").Find(&assets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	total := decimal.Zero
	counts := make(map[string]int)
	values := make(map[string]decimal.Decimal)
	for _, a := range assets {
		v := decimal.NewFromFloat(a.Value)
		total = total.Add(v)
		counts[a.SectorType]++
		values[a.SectorType] = values[a.SectorType].Add(v)
	}

	summary := &PortfolioSummary{
		TotalValue:    total.InexactFloat64(),
		SectorSummary: make(map[string]SectorSummary, len(counts)),
	}
	for sector, count := range counts {
		summary.SectorSummary[sector] = SectorSummary{
			Count: count,
			Value: values[sector].InexactFloat64(),
		}
	}
	return summary, nil
}

func emptyToNil(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

func setNullable(dst **float64, v NullableFloat) {
	if v.Set {
		*dst = v.Value
	}
}

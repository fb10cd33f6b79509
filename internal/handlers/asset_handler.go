package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "equity/internal/errors"
	"equity/internal/models"
	"equity/internal/pagination"
	"equity/internal/services"
	"equity/internal/validator"
)

// AssetHandler handles asset-related requests.
type AssetHandler struct {
	assetService services.AssetServicer
	auditService services.AuditServicer
}

// NewAssetHandler creates a new AssetHandler.
func NewAssetHandler(assetService services.AssetServicer, auditService services.AuditServicer) *AssetHandler {
	return &AssetHandler{assetService: assetService, auditService: auditService}
}

// CreateAssetRequest represents the request payload for creating an asset.
// Field order decides which missing field is reported first.
type CreateAssetRequest struct {
	SectorType           *string       `json:"sectorType" binding:"required,notblank,max=50" example:"Technology"`
	Name                 *string       `json:"name" binding:"required,notblank,max=100" example:"ACME Corp"`
	Price                *float64      `json:"price" binding:"required" example:"120.5"`
	AcquisitionPrice     *float64      `json:"acquisitionPrice" binding:"required" example:"100"`
	Amount               *float64      `json:"amount" binding:"required" example:"10"`
	Value                *float64      `json:"value" binding:"required" example:"1205"`
	ProfitLoss           *float64      `json:"profitLoss" binding:"required" example:"205"`
	ProfitLossPercentage *float64      `json:"profitLossPercentage" binding:"required" example:"20.5"`
	SubSector            *string       `json:"subSector" binding:"omitnil,max=50" example:"Semiconductors"`
	PE                   OptionalFloat `json:"pe" swaggertype:"number"`
	DividendYield        OptionalFloat `json:"dividendYield" swaggertype:"number"`
	Growth1Y             OptionalFloat `json:"growth1y" swaggertype:"number"`
	Growth3Y             OptionalFloat `json:"growth3y" swaggertype:"number"`
	Growth5Y             OptionalFloat `json:"growth5y" swaggertype:"number"`
}

// UpdateAssetRequest represents a partial asset update. Omitted fields keep
// their stored value; optional metrics sent as null or "" are cleared.
type UpdateAssetRequest struct {
	SectorType           *string       `json:"sectorType" binding:"omitnil,notblank,max=50" example:"Technology"`
	SubSector            *string       `json:"subSector" binding:"omitnil,max=50"`
	Name                 *string       `json:"name" binding:"omitnil,notblank,max=100"`
	Price                *float64      `json:"price"`
	AcquisitionPrice     *float64      `json:"acquisitionPrice"`
	Amount               *float64      `json:"amount"`
	Value                *float64      `json:"value"`
	ProfitLoss           *float64      `json:"profitLoss"`
	ProfitLossPercentage *float64      `json:"profitLossPercentage"`
	PE                   OptionalFloat `json:"pe" swaggertype:"number"`
	DividendYield        OptionalFloat `json:"dividendYield" swaggertype:"number"`
	Growth1Y             OptionalFloat `json:"growth1y" swaggertype:"number"`
	Growth3Y             OptionalFloat `json:"growth3y" swaggertype:"number"`
	Growth5Y             OptionalFloat `json:"growth5y" swaggertype:"number"`
}

// AssetResponse is the wire form of an asset.
type AssetResponse struct {
	ID                   string    `json:"id"`
	SectorType           string    `json:"sectorType"`
	SubSector            *string   `json:"subSector"`
	Name                 string    `json:"name"`
	Price                float64   `json:"price"`
	AcquisitionPrice     float64   `json:"acquisitionPrice"`
	Amount               float64   `json:"amount"`
	Value                float64   `json:"value"`
	ProfitLoss           float64   `json:"profitLoss"`
	ProfitLossPercentage float64   `json:"profitLossPercentage"`
	PE                   *float64  `json:"pe"`
	DividendYield        *float64  `json:"dividendYield"`
	Growth1Y             *float64  `json:"growth1y"`
	Growth3Y             *float64  `json:"growth3y"`
	Growth5Y             *float64  `json:"growth5y"`
	CreatedAt            time.Time `json:"createdAt"`
	UpdatedAt            time.Time `json:"updatedAt"`
}

// AssetListResponse lists assets. Paging fields are present only when the
// client asked for a page.
type AssetListResponse struct {
	Assets     []AssetResponse `json:"assets"`
	Page       int             `json:"page,omitempty"`
	PageSize   int             `json:"pageSize,omitempty"`
	TotalItems *int64          `json:"totalItems,omitempty"`
	TotalPages *int            `json:"totalPages,omitempty"`
}

// AssetMutationResponse wraps a created or updated asset.
type AssetMutationResponse struct {
	Success bool          `json:"success" example:"true"`
	Asset   AssetResponse `json:"asset"`
}

func newAssetResponse(a *models.Asset) AssetResponse {
	return AssetResponse{
		ID:                   a.ID,
		SectorType:           a.SectorType,
		SubSector:            a.SubSector,
		Name:                 a.Name,
		Price:                a.Price,
		AcquisitionPrice:     a.AcquisitionPrice,
		Amount:               a.Amount,
		Value:                a.Value,
		ProfitLoss:           a.ProfitLoss,
		ProfitLossPercentage: a.ProfitLossPercentage,
		PE:                   a.PE,
		DividendYield:        a.DividendYield,
		Growth1Y:             a.Growth1Y,
		Growth3Y:             a.Growth3Y,
		Growth5Y:             a.Growth5Y,
		CreatedAt:            a.CreatedAt,
		UpdatedAt:            a.UpdatedAt,
	}
}

func newAssetResponses(assets []models.Asset) []AssetResponse {
	out := make([]AssetResponse, 0, len(assets))
	for i := range assets {
		out = append(out, newAssetResponse(&assets[i]))
	}
	return out
}

func nullable(f OptionalFloat) services.NullableFloat {
	return services.NullableFloat{Set: f.Set, Value: f.Value}
}

// ListAssets handles listing the user's assets.
// @Summary     List assets
// @Description List the authenticated user's assets, oldest first. Paging is applied only when page or page_size is given.
// @Tags        assets
// @Produce     json
// @Security    BearerAuth
// @Param       page      query int false "Page number"
// @Param       page_size query int false "Items per page (default 20, max 100)"
// @Success     200 {object} AssetListResponse "Assets"
// @Failure     400 {object} apperrors.Response "Invalid paging parameters"
// @Failure     401 {object} apperrors.Response "Unauthorized"
// @Failure     404 {object} apperrors.Response "User not found"
// @Failure     500 {object} apperrors.Response "Server error"
// @Router      /equity/assets [get]
func (h *AssetHandler) ListAssets(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid paging parameters"))
		return
	}

	if !page.Requested() {
		assets, err := h.assetService.ListAssets(userID)
		if err != nil {
			respondWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, AssetListResponse{Assets: newAssetResponses(assets)})
		return
	}

	result, err := h.assetService.ListAssetsPage(userID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, AssetListResponse{
		Assets:     newAssetResponses(result.Items),
		Page:       result.Page,
		PageSize:   result.PageSize,
		TotalItems: &result.TotalItems,
		TotalPages: &result.TotalPages,
	})
}

// CreateAsset handles creating an asset.
// @Summary     Create asset
// @Description Record a new asset. Value and profit/loss are stored as supplied.
// @Tags        assets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateAssetRequest true "Asset details"
// @Success     201 {object} AssetMutationResponse "Asset created"
// @Failure     400 {object} apperrors.Response "Missing or invalid field"
// @Failure     401 {object} apperrors.Response "Unauthorized"
// @Failure     404 {object} apperrors.Response "User not found"
// @Failure     500 {object} apperrors.Response "Server error"
// @Router      /equity/assets [post]
func (h *AssetHandler) CreateAsset(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateAssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, validator.BindingError(err))
		return
	}

	asset, err := h.assetService.CreateAsset(userID, services.AssetInput{
		SectorType:           *req.SectorType,
		SubSector:            req.SubSector,
		Name:                 *req.Name,
		Price:                *req.Price,
		AcquisitionPrice:     *req.AcquisitionPrice,
		Amount:               *req.Amount,
		Value:                *req.Value,
		ProfitLoss:           *req.ProfitLoss,
		ProfitLossPercentage: *req.ProfitLossPercentage,
		PE:                   req.PE.Value,
		DividendYield:        req.DividendYield.Value,
		Growth1Y:             req.Growth1Y.Value,
		Growth3Y:             req.Growth3Y.Value,
		Growth5Y:             req.Growth5Y.Value,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditCreateAsset, "asset", asset.ID, c.ClientIP(),
		map[string]interface{}{"sector_type": asset.SectorType, "name": asset.Name, "value": asset.Value})

	c.JSON(http.StatusCreated, AssetMutationResponse{Success: true, Asset: newAssetResponse(asset)})
}

// UpdateAsset handles a partial asset update.
// @Summary     Update asset
// @Description Update the given fields of an asset; omitted fields keep their value
// @Tags        assets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string             true "Asset ID"
// @Param       request body UpdateAssetRequest true "Fields to change"
// @Success     200 {object} AssetMutationResponse "Asset updated"
// @Failure     400 {object} apperrors.Response "Invalid field"
// @Failure     401 {object} apperrors.Response "Unauthorized"
// @Failure     404 {object} apperrors.Response "Asset not found or not owned by user"
// @Failure     500 {object} apperrors.Response "Server error"
// @Router      /equity/assets/{id} [put]
func (h *AssetHandler) UpdateAsset(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateAssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, validator.BindingError(err))
		return
	}

	asset, err := h.assetService.UpdateAsset(userID, c.Param("id"), services.AssetPatch{
		SectorType:           req.SectorType,
		SubSector:            req.SubSector,
		Name:                 req.Name,
		Price:                req.Price,
		AcquisitionPrice:     req.AcquisitionPrice,
		Amount:               req.Amount,
		Value:                req.Value,
		ProfitLoss:           req.ProfitLoss,
		ProfitLossPercentage: req.ProfitLossPercentage,
		PE:                   nullable(req.PE),
		DividendYield:        nullable(req.DividendYield),
		Growth1Y:             nullable(req.Growth1Y),
		Growth3Y:             nullable(req.Growth3Y),
		Growth5Y:             nullable(req.Growth5Y),
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditUpdateAsset, "asset", asset.ID, c.ClientIP(),
		map[string]interface{}{"sector_type": asset.SectorType, "name": asset.Name, "value": asset.Value})

	c.JSON(http.StatusOK, AssetMutationResponse{Success: true, Asset: newAssetResponse(asset)})
}

// DeleteAsset handles deleting an asset.
// @Summary     Delete asset
// @Description Delete an asset owned by the authenticated user
// @Tags        assets
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Asset ID"
// @Success     200 {object} SuccessResponse "Asset deleted"
// @Failure     401 {object} apperrors.Response "Unauthorized"
// @Failure     404 {object} apperrors.Response "Asset not found or not owned by user"
// @Failure     500 {object} apperrors.Response "Server error"
// @Router      /equity/assets/{id} [delete]
func (h *AssetHandler) DeleteAsset(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	assetID := c.Param("id")
	if err := h.assetService.DeleteAsset(userID, assetID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditDeleteAsset, "asset", assetID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, SuccessResponse{Success: true, Message: "Asset deleted successfully"})
}

// GetSummary handles the sector summary.
// @Summary     Portfolio summary
// @Description Total value of the user's assets and the split by sector
// @Tags        assets
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} services.PortfolioSummary "Summary"
// @Failure     401 {object} apperrors.Response "Unauthorized"
// @Failure     404 {object} apperrors.Response "User not found"
// @Failure     500 {object} apperrors.Response "Server error"
// @Router      /equity/summary [get]
func (h *AssetHandler) GetSummary(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	summary, err := h.assetService.Summarize(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

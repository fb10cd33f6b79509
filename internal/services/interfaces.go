package services

import (
	"context"

	"equity/internal/models"
	"equity/internal/pagination"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(email, password string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	AttemptLogin(email, password string) (*models.User, error)
}

// OwnershipGuard resolves the authenticated subject and the resources it
// owns. An asset owned by someone else is reported exactly like a missing
// one.
type OwnershipGuard interface {
	ResolveUser(subject string) (*models.User, error)
	ResolveAsset(subject, assetID string) (*models.User, *models.Asset, error)
}

// AssetInput carries the fields of a new asset. Nil optional metrics are
// stored as NULL.
type AssetInput struct {
	SectorType           string
	SubSector            *string
	Name                 string
	Price                float64
	AcquisitionPrice     float64
	Amount               float64
	Value                float64
	ProfitLoss           float64
	ProfitLossPercentage float64
	PE                   *float64
	DividendYield        *float64
	Growth1Y             *float64
	Growth3Y             *float64
	Growth5Y             *float64
}

// NullableFloat is a patch value for a nullable column. Set reports whether
// the client sent the field; a nil Value clears the column.
type NullableFloat struct {
	Set   bool
	Value *float64
}

// AssetPatch carries a partial update. Nil pointers and unset
// NullableFloats leave the stored value untouched. An empty SubSector
// clears it.
type AssetPatch struct {
	SectorType           *string
	SubSector            *string
	Name                 *string
	Price                *float64
	AcquisitionPrice     *float64
	Amount               *float64
	Value                *float64
	ProfitLoss           *float64
	ProfitLossPercentage *float64
	PE                   NullableFloat
	DividendYield        NullableFloat
	Growth1Y             NullableFloat
	Growth3Y             NullableFloat
	Growth5Y             NullableFloat
}

// SectorSummary aggregates the assets of one sector.
type SectorSummary struct {
	Count int     `json:"count"`
	Value float64 `json:"value"`
}

// PortfolioSummary is the total value and its split by sector. Sector keys
// are the stored sector strings, compared exactly.
type PortfolioSummary struct {
	TotalValue    float64                  `json:"totalValue"`
	SectorSummary map[string]SectorSummary `json:"sectorSummary"`
}

// AssetServicer defines the contract for asset ledger operations. Every
// method takes the authenticated subject and only touches that user's
// assets.
type AssetServicer interface {
	ListAssets(subject string) ([]models.Asset, error)
	ListAssetsPage(subject string, page pagination.PageRequest) (*pagination.PageResponse[models.Asset], error)
	CreateAsset(subject string, in AssetInput) (*models.Asset, error)
	UpdateAsset(subject, assetID string, patch AssetPatch) (*models.Asset, error)
	DeleteAsset(subject, assetID string) error
	Summarize(subject string) (*PortfolioSummary, error)
}

// SubscriptionResult is the outcome of a subscribe or cancel call.
type SubscriptionResult struct {
	SubscriptionID string                    `json:"subscriptionId"`
	Status         models.SubscriptionStatus `json:"status"`
}

// SubscriptionServicer defines the contract for the subscription lifecycle.
type SubscriptionServicer interface {
	Subscribe(ctx context.Context, subject, paymentMethodID string) (*SubscriptionResult, error)
	Cancel(ctx context.Context, subject string) (*SubscriptionResult, error)
	IsSubscribed(subject string) (bool, error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]interface{})
}

package models

// Asset is a holding recorded by its owner. Value and the profit/loss
// figures are stored as the client computed them.
type Asset struct {
	Base
	UserID               string   `gorm:"type:uuid;not null;index" json:"-"`
	SectorType           string   `gorm:"size:50;not null" json:"sectorType"`
	SubSector            *string  `gorm:"size:50" json:"subSector"`
	Name                 string   `gorm:"size:100;not null" json:"name"`
	Price                float64  `gorm:"not null" json:"price"`
	AcquisitionPrice     float64  `gorm:"not null" json:"acquisitionPrice"`
	Amount               float64  `gorm:"not null" json:"amount"`
	Value                float64  `gorm:"not null" json:"value"`
	ProfitLoss           float64  `gorm:"not null" json:"profitLoss"`
	ProfitLossPercentage float64  `gorm:"not null" json:"profitLossPercentage"`
	PE                   *float64 `gorm:"column:pe" json:"pe"`
	DividendYield        *float64 `json:"dividendYield"`
	Growth1Y             *float64 `gorm:"column:growth_1y" json:"growth1y"`
	Growth3Y             *float64 `gorm:"column:growth_3y" json:"growth3y"`
	Growth5Y             *float64 `gorm:"column:growth_5y" json:"growth5y"`
}

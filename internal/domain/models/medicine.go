package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Medicine is the single shared mutable resource in the system: a sellable
// inventory line with pricing, on-hand quantity and a low-stock threshold.
type Medicine struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name              string             `bson:"name" json:"name"`
	GenericName       string             `bson:"genericName,omitempty" json:"genericName,omitempty"`
	Power             string             `bson:"power" json:"power"`
	Unit              string             `bson:"unit" json:"unit"`
	UnitsPerPackage   int                `bson:"unitsPerPackage" json:"unitsPerPackage"`
	PurchasePrice     float64            `bson:"purchasePrice" json:"purchasePrice"`
	SellingPrice      float64            `bson:"sellingPrice" json:"sellingPrice"`
	StockQuantity     int64              `bson:"stockQuantity" json:"stockQuantity"`
	LowStockThreshold int64              `bson:"lowStockThreshold" json:"lowStockThreshold"`
	Manufacturer      string             `bson:"manufacturer,omitempty" json:"manufacturer,omitempty"`
	Category          string             `bson:"category,omitempty" json:"category,omitempty"`
	ExpiryDate        *time.Time         `bson:"expiryDate,omitempty" json:"expiryDate,omitempty"`
	BatchNumber       string             `bson:"batchNumber,omitempty" json:"batchNumber,omitempty"`
	Description       string             `bson:"description,omitempty" json:"description,omitempty"`
	IsActive          bool               `bson:"isActive" json:"isActive"`
	CreatedBy         primitive.ObjectID `bson:"createdBy,omitempty" json:"createdBy,omitempty"`
	UpdatedBy         primitive.ObjectID `bson:"updatedBy,omitempty" json:"updatedBy,omitempty"`
	CreatedAt         time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// ProfitPerUnit is the margin earned on a single unit at current prices.
func (m *Medicine) ProfitPerUnit() float64 {
	return m.SellingPrice - m.PurchasePrice
}

// IsLowStock reports whether on-hand quantity is at or below the threshold.
func (m *Medicine) IsLowStock() bool {
	return m.StockQuantity <= m.LowStockThreshold
}

// IsOutOfStock reports whether there is nothing left to sell.
func (m *Medicine) IsOutOfStock() bool {
	return m.StockQuantity == 0
}

// MedicineFilter narrows catalog listings.
type MedicineFilter struct {
	Search     string
	Category   string
	LowStock   bool
	OutOfStock bool
	SortBy     string
	SortOrder  string
	Page       int64
	Limit      int64
}

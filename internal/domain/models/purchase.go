package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Purchase is the append-only record of a stock replenishment. Creating one is
// the only path that increments a medicine's on-hand quantity.
type Purchase struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	MedicineID    primitive.ObjectID `bson:"medicine" json:"medicineId"`
	MedicineName  string             `bson:"medicineName,omitempty" json:"medicineName,omitempty"`
	Quantity      int64              `bson:"quantity" json:"quantity"`
	PurchasePrice float64            `bson:"purchasePrice" json:"purchasePrice"`
	TotalCost     float64            `bson:"totalCost" json:"totalCost"`
	Supplier      string             `bson:"supplier,omitempty" json:"supplier,omitempty"`
	InvoiceNumber string             `bson:"invoiceNumber,omitempty" json:"invoiceNumber,omitempty"`
	BatchNumber   string             `bson:"batchNumber,omitempty" json:"batchNumber,omitempty"`
	ExpiryDate    *time.Time         `bson:"expiryDate,omitempty" json:"expiryDate,omitempty"`
	PurchaseDate  time.Time          `bson:"purchaseDate" json:"purchaseDate"`
	Notes         string             `bson:"notes,omitempty" json:"notes,omitempty"`
	PurchasedBy   primitive.ObjectID `bson:"purchasedBy" json:"purchasedBy"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
}

// PurchaseInput is the payload for recording a replenishment.
type PurchaseInput struct {
	MedicineID    string     `json:"medicineId" binding:"required"`
	Quantity      int64      `json:"quantity" binding:"required,min=1"`
	PurchasePrice float64    `json:"purchasePrice"`
	Supplier      string     `json:"supplier"`
	InvoiceNumber string     `json:"invoiceNumber"`
	BatchNumber   string     `json:"batchNumber"`
	ExpiryDate    *time.Time `json:"expiryDate"`
	PurchaseDate  *time.Time `json:"purchaseDate"`
	Notes         string     `json:"notes"`
}

// PurchaseFilter narrows purchase listings.
type PurchaseFilter struct {
	StartDate  *time.Time
	EndDate    *time.Time
	MedicineID string
	Page       int64
	Limit      int64
}

// PurchaseTotals aggregates a filtered set of purchases.
type PurchaseTotals struct {
	TotalQuantity int64   `bson:"totalQuantity" json:"totalQuantity"`
	TotalCost     float64 `bson:"totalCost" json:"totalCost"`
}

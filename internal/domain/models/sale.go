package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SaleItem captures one sold line with the prices that applied at sale time, so
// later price changes never rewrite history.
type SaleItem struct {
	MedicineID    primitive.ObjectID `bson:"medicine" json:"medicineId"`
	MedicineName  string             `bson:"medicineName" json:"medicineName"`
	MedicinePower string             `bson:"medicinePower" json:"medicinePower"`
	Quantity      int64              `bson:"quantity" json:"quantity"`
	PurchasePrice float64            `bson:"purchasePrice" json:"purchasePrice"`
	SellingPrice  float64            `bson:"sellingPrice" json:"sellingPrice"`
	ItemTotal     float64            `bson:"itemTotal" json:"itemTotal"`
	Profit        float64            `bson:"profit" json:"profit"`
}

// Sale is an immutable, append-only record of a completed transaction.
type Sale struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Items         []SaleItem         `bson:"items" json:"items"`
	TotalAmount   float64            `bson:"totalAmount" json:"totalAmount"`
	TotalProfit   float64            `bson:"totalProfit" json:"totalProfit"`
	Discount      float64            `bson:"discount" json:"discount"`
	ExtraCharge   float64            `bson:"extraCharge" json:"extraCharge"`
	FinalAmount   float64            `bson:"finalAmount" json:"finalAmount"`
	PaymentMethod string             `bson:"paymentMethod" json:"paymentMethod"`
	CustomerName  string             `bson:"customerName,omitempty" json:"customerName,omitempty"`
	CustomerPhone string             `bson:"customerPhone,omitempty" json:"customerPhone,omitempty"`
	InvoiceNumber string             `bson:"invoiceNumber" json:"invoiceNumber"`
	SaleDate      time.Time          `bson:"saleDate" json:"saleDate"`
	Notes         string             `bson:"notes,omitempty" json:"notes,omitempty"`
	SoldBy        primitive.ObjectID `bson:"soldBy" json:"soldBy"`
	SoldByName    string             `bson:"soldByName,omitempty" json:"soldByName,omitempty"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
}

// SaleRequestLine is one requested (medicine, quantity) pair.
type SaleRequestLine struct {
	MedicineID string `json:"medicineId" binding:"required"`
	Quantity   int64  `json:"quantity" binding:"required,min=1"`
}

// SaleRequest is the input to the sale flow.
type SaleRequest struct {
	Items         []SaleRequestLine `json:"items" binding:"required"`
	Discount      float64           `json:"discount"`
	ExtraCharge   float64           `json:"extraCharge"`
	PaymentMethod string            `json:"paymentMethod"`
	CustomerName  string            `json:"customerName"`
	CustomerPhone string            `json:"customerPhone"`
	Notes         string            `json:"notes"`
}

// SaleFilter narrows sale listings.
type SaleFilter struct {
	StartDate *time.Time
	EndDate   *time.Time
	SoldBy    string
	Page      int64
	Limit     int64
}

// SaleTotals aggregates a filtered set of sales.
type SaleTotals struct {
	TotalAmount float64 `bson:"totalAmount" json:"totalAmount"`
	TotalProfit float64 `bson:"totalProfit" json:"totalProfit"`
	TotalSales  int64   `bson:"totalSales" json:"totalSales"`
}

package models

import "time"

// DailyReport is the nightly snapshot of trading activity stored for trend
// history and optionally mirrored to a spreadsheet.
type DailyReport struct {
	Date            time.Time `bson:"date" json:"date"`
	SalesCount      int64     `bson:"salesCount" json:"salesCount"`
	Revenue         float64   `bson:"revenue" json:"revenue"`
	Profit          float64   `bson:"profit" json:"profit"`
	PurchasesCount  int64     `bson:"purchasesCount" json:"purchasesCount"`
	ItemsPurchased  int64     `bson:"itemsPurchased" json:"itemsPurchased"`
	PurchaseCost    float64   `bson:"purchaseCost" json:"purchaseCost"`
	LowStockCount   int64     `bson:"lowStockCount" json:"lowStockCount"`
	OutOfStockCount int64     `bson:"outOfStockCount" json:"outOfStockCount"`
	CreatedAt       time.Time `bson:"createdAt" json:"createdAt"`
}

// DashboardSummary is the admin landing-page aggregate.
type DashboardSummary struct {
	Medicines       MedicineStats  `json:"medicines"`
	Sales           SaleTotals     `json:"sales"`
	Purchases       PurchaseTotals `json:"purchases"`
	Today           SaleTotals     `json:"today"`
	PendingRequests int64          `json:"pendingRequests"`
	StaffCount      int64          `json:"staffCount"`
}

// MedicineStats summarizes the catalog's stock position.
type MedicineStats struct {
	TotalMedicines  int64 `bson:"totalMedicines" json:"totalMedicines"`
	TotalStock      int64 `bson:"totalStock" json:"totalStock"`
	LowStockCount   int64 `bson:"lowStockCount" json:"lowStockCount"`
	OutOfStockCount int64 `bson:"outOfStockCount" json:"outOfStockCount"`
}

// MonthlyStat is one month's sales and purchase activity.
type MonthlyStat struct {
	Year           int     `json:"year"`
	Month          int     `json:"month"`
	Sales          int64   `json:"sales"`
	Revenue        float64 `json:"revenue"`
	Profit         float64 `json:"profit"`
	ItemsSold      int64   `json:"itemsSold"`
	Purchases      int64   `json:"purchases"`
	Cost           float64 `json:"cost"`
	ItemsPurchased int64   `json:"itemsPurchased"`
}

// TopMedicine ranks a medicine by quantity sold.
type TopMedicine struct {
	MedicineID    string  `bson:"_id" json:"medicineId"`
	Name          string  `bson:"name" json:"name"`
	Power         string  `bson:"power" json:"power"`
	TotalQuantity int64   `bson:"totalQuantity" json:"totalQuantity"`
	TotalRevenue  float64 `bson:"totalRevenue" json:"totalRevenue"`
	TotalProfit   float64 `bson:"totalProfit" json:"totalProfit"`
}

// StaffPerformance aggregates sales per operator.
type StaffPerformance struct {
	UserID       string  `bson:"_id" json:"userId"`
	DisplayName  string  `bson:"displayName" json:"displayName"`
	Email        string  `bson:"email" json:"email"`
	PhotoURL     string  `bson:"photoURL,omitempty" json:"photoURL,omitempty"`
	Role         Role    `bson:"role" json:"role"`
	TotalSales   int64   `bson:"totalSales" json:"totalSales"`
	TotalRevenue float64 `bson:"totalRevenue" json:"totalRevenue"`
	TotalProfit  float64 `bson:"totalProfit" json:"totalProfit"`
	TotalItems   int64   `bson:"totalItems" json:"totalItems"`
}

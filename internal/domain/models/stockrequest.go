package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RequestStatus is the state of a stock request. Transitions are one-way:
// pending -> approved|rejected, approved -> completed.
type RequestStatus string

const (
	RequestPending   RequestStatus = "pending"
	RequestApproved  RequestStatus = "approved"
	RequestRejected  RequestStatus = "rejected"
	RequestCompleted RequestStatus = "completed"
)

// Valid reports whether s is one of the known statuses.
func (s RequestStatus) Valid() bool {
	switch s {
	case RequestPending, RequestApproved, RequestRejected, RequestCompleted:
		return true
	}
	return false
}

// RequestPriority orders the admin's replenishment queue.
type RequestPriority string

const (
	PriorityLow    RequestPriority = "low"
	PriorityNormal RequestPriority = "normal"
	PriorityHigh   RequestPriority = "high"
	PriorityUrgent RequestPriority = "urgent"
)

// Valid reports whether p is one of the known priorities.
func (p RequestPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// StockRequest is a staff-initiated ask for an admin to replenish a medicine.
type StockRequest struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	MedicineID        primitive.ObjectID `bson:"medicine" json:"medicineId"`
	MedicineName      string             `bson:"medicineName,omitempty" json:"medicineName,omitempty"`
	RequestedQuantity int64              `bson:"requestedQuantity" json:"requestedQuantity"`
	Reason            string             `bson:"reason" json:"reason"`
	Status            RequestStatus      `bson:"status" json:"status"`
	Priority          RequestPriority    `bson:"priority" json:"priority"`
	RequestedBy       primitive.ObjectID `bson:"requestedBy" json:"requestedBy"`
	RequestedByName   string             `bson:"requestedByName,omitempty" json:"requestedByName,omitempty"`
	ProcessedBy       primitive.ObjectID `bson:"processedBy,omitempty" json:"processedBy,omitempty"`
	ProcessedAt       *time.Time         `bson:"processedAt,omitempty" json:"processedAt,omitempty"`
	AdminNotes        string             `bson:"adminNotes,omitempty" json:"adminNotes,omitempty"`
	CreatedAt         time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// StockRequestInput is the payload for opening a request.
type StockRequestInput struct {
	MedicineID        string          `json:"medicineId" binding:"required"`
	RequestedQuantity int64           `json:"requestedQuantity" binding:"required,min=1"`
	Reason            string          `json:"reason" binding:"required"`
	Priority          RequestPriority `json:"priority"`
}

// StockRequestFilter narrows request listings.
type StockRequestFilter struct {
	Status      RequestStatus
	RequestedBy string
	Page        int64
	Limit       int64
}

package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role is the closed set of access levels a user can hold.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleStaff  Role = "staff"
	RoleViewer Role = "viewer"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleStaff, RoleViewer:
		return true
	}
	return false
}

// User is an operator account, created on first authenticated request and
// activated by an admin before it can do anything.
type User struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SubjectID   string             `bson:"subjectId" json:"-"`
	Email       string             `bson:"email" json:"email"`
	DisplayName string             `bson:"displayName" json:"displayName"`
	PhotoURL    string             `bson:"photoURL,omitempty" json:"photoURL,omitempty"`
	Role        Role               `bson:"role" json:"role"`
	IsActive    bool               `bson:"isActive" json:"isActive"`
	LastLogin   time.Time          `bson:"lastLogin" json:"lastLogin"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Actor is the identity performing an operation, passed explicitly into every
// core service call instead of living in ambient request state.
type Actor struct {
	ID          primitive.ObjectID
	DisplayName string
	Email       string
	Role        Role
}

// ActorFromUser projects a stored user into an acting identity.
func ActorFromUser(u *User) Actor {
	return Actor{
		ID:          u.ID,
		DisplayName: u.DisplayName,
		Email:       u.Email,
		Role:        u.Role,
	}
}

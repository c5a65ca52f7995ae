// Package access holds the collaborator directory and the scan decision
// engine: who carries which badge, whether they are inside, and what happens
// when a token arrives at the gate.
package access

import (
	"errors"
	"time"
)

// Status is a user's enrolment state. Inactive users keep their history but
// are denied at the gate.
type Status string

const (
	StatusActive   Status = "Active"
	StatusInactive Status = "Inactive"
)

// IsValid reports whether the status is one of the two known states.
func (s Status) IsValid() bool {
	return s == StatusActive || s == StatusInactive
}

// DefaultRole is assigned when enrolment does not specify one.
const DefaultRole = "Staff"

// User is an enrolled collaborator. The token is the badge identity and
// never changes after enrolment; losing a badge means re-enrolling.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	Token     string    `json:"token"`
	PINHash   string    `json:"-"` // never serialised
	PINSalt   string    `json:"-"` // never serialised
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// Admin is an operator account for the management API.
type Admin struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	PassHash  string    `json:"-"` // never serialised
	PassSalt  string    `json:"-"` // never serialised
	CreatedAt time.Time `json:"created_at"`
}

// UpdateUser carries the optional fields of a partial user update.
// Nil pointers leave the stored value untouched.
type UpdateUser struct {
	Name   *string `json:"name,omitempty"`
	Role   *string `json:"role,omitempty"`
	NewPIN *string `json:"new_pin,omitempty"`
}

// Sentinel errors for access operations.
var (
	ErrDuplicateUser  = errors.New("access: user name already enrolled")
	ErrUserNotFound   = errors.New("access: user not found")
	ErrAdminNotFound  = errors.New("access: admin not found")
	ErrAdminExists    = errors.New("access: admin username already exists")
	ErrInvalidStatus  = errors.New("access: invalid status")
	ErrInvalidRequest = errors.New("access: invalid request")
)

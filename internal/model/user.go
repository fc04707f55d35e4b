package model

import (
	"time"

	"github.com/google/uuid"
)

// Role enumerates the two account roles.
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleStudent Role = "STUDENT"
)

// User represents an account (administrator or student).
type User struct {
	ID            uuid.UUID `json:"id"`
	Username      string    `json:"username"`
	PasswordHash  string    `json:"-"`
	Role          Role      `json:"role"`
	FirstName     *string   `json:"first_name,omitempty"`
	LastName      *string   `json:"last_name,omitempty"`
	StudentNumber *string   `json:"student_number,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// LoginRequest is the payload for account login.
type LoginRequest struct {
	Username string `json:"username" binding:"required,min=1,max=100"`
	Password string `json:"password" binding:"required,min=1,max=200"`
}

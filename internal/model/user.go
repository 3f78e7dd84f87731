package model

import (
	"strings"
	"time"
)

type Role string

// User roles
const (
	RoleAdmin    Role = "admin"
	RoleDonor    Role = "donor"
	RoleHospital Role = "hospital"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleDonor, RoleHospital:
		return true
	}
	return false
}

// User represents a system user
type User struct {
	ID           int64     `json:"user_id" db:"user_id"`
	FullName     string    `json:"full_name" db:"full_name"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Role         Role      `json:"role" db:"role"`
	Phone        *string   `json:"phone" db:"phone"`
	City         *string   `json:"city" db:"city"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// NormalizeEmail is the stored form of an email address. Lookups must use it
// too.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateUserRequest represents user creation parameters
type CreateUserRequest struct {
	FullName string  `json:"full_name" binding:"required"`
	Email    string  `json:"email" binding:"required,email"`
	Password string  `json:"password" binding:"required,min=8"`
	Role     Role    `json:"role" binding:"required,oneof=admin donor hospital"`
	Phone    *string `json:"phone"`
	City     *string `json:"city"`
}

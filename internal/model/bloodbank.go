package model

import "time"

type BloodBank struct {
	ID            int64     `json:"blood_bank_id" db:"blood_bank_id"`
	Name          string    `json:"name" db:"name"`
	City          string    `json:"city" db:"city"`
	Address       string    `json:"address" db:"address"`
	ContactNumber string    `json:"contact_number" db:"contact_number"`
	AdminUserID   int64     `json:"admin_user_id" db:"admin_user_id"`
	AdminName     string    `json:"admin_name,omitempty" db:"admin_name"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// BloodBankSummary is the public view of a bank.
type BloodBankSummary struct {
	ID   int64  `json:"blood_bank_id" db:"blood_bank_id"`
	Name string `json:"name" db:"name"`
	City string `json:"city" db:"city"`
}

type CreateBloodBankRequest struct {
	Name          string `json:"name" binding:"required"`
	City          string `json:"city" binding:"required"`
	Address       string `json:"address" binding:"required"`
	ContactNumber string `json:"contact_number" binding:"required"`
}

package model

import "time"

const (
	BaseDonationPoints      = 100
	EmergencyDonationPoints = 100
)

// DonationPoints is the reward for one donation.
func DonationPoints(emergency bool) int {
	if emergency {
		return BaseDonationPoints + EmergencyDonationPoints
	}
	return BaseDonationPoints
}

type DonationRecord struct {
	ID            int64     `json:"donation_id" db:"donation_id"`
	DonorID       int64     `json:"donor_id" db:"donor_id"`
	BloodBankID   int64     `json:"blood_bank_id" db:"blood_bank_id"`
	DonationDate  time.Time `json:"donation_date" db:"donation_date"`
	QuantityUnits int       `json:"quantity_units" db:"quantity_units"`
}

// DonationHistoryEntry is a donation joined with the receiving bank.
type DonationHistoryEntry struct {
	DonationDate  time.Time `json:"donation_date" db:"donation_date"`
	QuantityUnits int       `json:"quantity_units" db:"quantity_units"`
	BloodBankName string    `json:"blood_bank_name" db:"blood_bank_name"`
	City          string    `json:"city" db:"city"`
}

type DonateRequest struct {
	BloodBankID   int64 `json:"blood_bank_id" binding:"required,gt=0"`
	QuantityUnits int   `json:"quantity_units" binding:"required,gt=0"`
	Emergency     bool  `json:"emergency"`
}

type DonationResult struct {
	DonationID    int64   `json:"donation_id"`
	PointsAwarded int     `json:"points_awarded"`
	BadgeAwarded  *string `json:"badge_awarded"`
}

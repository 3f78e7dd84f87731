package model

import (
	"time"
)

// Milestone badges, keyed by the donation count that earns them
const (
	BadgeFirstDrop  = "First Drop"
	BadgeLifesaver  = "Lifesaver"
	BadgeEliteDonor = "Elite Donor"
)

var milestoneBadges = map[int]string{
	1:  BadgeFirstDrop,
	3:  BadgeLifesaver,
	10: BadgeEliteDonor,
}

// BadgeForTotal returns the badge earned when a donor's count reaches exactly
// total. Counts between milestones earn nothing.
func BadgeForTotal(total int) (string, bool) {
	b, ok := milestoneBadges[total]
	return b, ok
}

type Donor struct {
	ID               int64      `json:"donor_id" db:"donor_id"`
	UserID           int64      `json:"user_id" db:"user_id"`
	BloodGroup       string     `json:"blood_group" db:"blood_group"`
	Eligible         bool       `json:"eligible" db:"eligible"`
	LastDonationDate *time.Time `json:"last_donation_date" db:"last_donation_date"`
	Points           int        `json:"points" db:"points"`
	TotalDonations   int        `json:"total_donations" db:"total_donations"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
}

type Badge struct {
	DonorID   int64     `json:"donor_id" db:"donor_id"`
	BadgeName string    `json:"badge_name" db:"badge_name"`
	AwardedAt time.Time `json:"awarded_at" db:"awarded_at"`
}

// DonorProfile is a donor together with the badges earned so far.
type DonorProfile struct {
	*Donor
	Badges []string `json:"badges"`
}

// DonorMatch is one candidate returned by emergency matching.
type DonorMatch struct {
	DonorID  int64   `json:"donor_id" db:"donor_id"`
	FullName string  `json:"full_name" db:"full_name"`
	Phone    *string `json:"phone" db:"phone"`
	Email    string  `json:"-" db:"email"`
}

type RegisterDonorRequest struct {
	BloodGroup string `json:"blood_group" binding:"required,bloodgroup"`
}

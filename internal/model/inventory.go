package model

import "time"

type InventoryStatus string

const (
	InventoryAvailable InventoryStatus = "available"
	InventoryExpired   InventoryStatus = "expired"
)

type InventoryUnit struct {
	ID             int64           `json:"inventory_id" db:"inventory_id"`
	BloodBankID    int64           `json:"blood_bank_id" db:"blood_bank_id"`
	BloodGroup     string          `json:"blood_group" db:"blood_group"`
	UnitsAvailable int             `json:"units_available" db:"units_available"`
	CollectionDate time.Time       `json:"collection_date" db:"collection_date"`
	ExpiryDate     time.Time       `json:"expiry_date" db:"expiry_date"`
	Status         InventoryStatus `json:"status" db:"status"`
}

// Usable reports whether the unit can serve a request on day today.
func (u *InventoryUnit) Usable(today time.Time) bool {
	return u.Status == InventoryAvailable && !u.ExpiryDate.Before(today)
}

// GroupTotal is one row of an inventory aggregation.
type GroupTotal struct {
	BloodGroup string `json:"blood_group" db:"blood_group"`
	TotalUnits int    `json:"total_units" db:"total_units"`
}

type BankInventory struct {
	BloodBankID int64        `json:"blood_bank_id"`
	Inventory   []GroupTotal `json:"inventory"`
}

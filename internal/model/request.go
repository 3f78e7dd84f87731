package model

import "time"

type Urgency string

const (
	UrgencyNormal    Urgency = "normal"
	UrgencyEmergency Urgency = "emergency"
)

type RequestStatus string

const (
	RequestPending   RequestStatus = "pending"
	RequestApproved  RequestStatus = "approved"
	RequestRejected  RequestStatus = "rejected"
	RequestFulfilled RequestStatus = "fulfilled"
)

var requestTransitions = map[RequestStatus][]RequestStatus{
	RequestPending:  {RequestApproved, RequestRejected},
	RequestApproved: {RequestFulfilled},
}

// CanTransition reports whether a request may move from one status to another.
// Rejected and fulfilled are terminal.
func (s RequestStatus) CanTransition(to RequestStatus) bool {
	for _, next := range requestTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

type BloodRequest struct {
	ID            int64         `json:"request_id" db:"request_id"`
	UserID        int64         `json:"user_id" db:"user_id"`
	BloodGroup    string        `json:"blood_group" db:"blood_group"`
	QuantityUnits int           `json:"quantity_units" db:"quantity_units"`
	Urgency       Urgency       `json:"urgency" db:"urgency"`
	City          *string       `json:"city" db:"city"`
	Status        RequestStatus `json:"status" db:"status"`
	RequestDate   time.Time     `json:"request_date" db:"request_date"`
}

type CreateBloodRequest struct {
	BloodGroup    string  `json:"blood_group" binding:"required,bloodgroup"`
	QuantityUnits int     `json:"quantity_units" binding:"required,gt=0"`
	Urgency       Urgency `json:"urgency" binding:"omitempty,oneof=normal emergency"`
	City          *string `json:"city"`
}

type UpdateRequestStatus struct {
	Status RequestStatus `json:"status" binding:"required"`
}

type MatchResult struct {
	RequestID     int64        `json:"request_id"`
	Message       string       `json:"message,omitempty"`
	MatchedDonors []DonorMatch `json:"matched_donors"`
}

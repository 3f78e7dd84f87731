package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type OutboxStatus string

const (
	OutboxStatusPending   OutboxStatus = "pending"
	OutboxStatusProcessed OutboxStatus = "processed"
	OutboxStatusFailed    OutboxStatus = "failed"
)

// Event types written by the workflows
const (
	EventDonationRecorded      = "DONATION_RECORDED"
	EventBloodRequestFulfilled = "BLOOD_REQUEST_FULFILLED"
	EventBloodRequestEmergency = "BLOOD_REQUEST_EMERGENCY"
)

type OutboxEvent struct {
	ID           uuid.UUID       `db:"id" json:"id"`
	EventType    string          `db:"event_type" json:"event_type"`
	Payload      json.RawMessage `db:"payload" json:"payload"`
	Status       OutboxStatus    `db:"status" json:"status"`
	ErrorMessage *string         `db:"error_message" json:"error_message,omitempty"`
	RetryCount   int             `db:"retry_count" json:"retry_count"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	ProcessedAt  *time.Time      `db:"processed_at" json:"processed_at,omitempty"`
}

// NewOutboxEvent builds a pending event with a JSON payload.
func NewOutboxEvent(eventType string, payload interface{}, now time.Time) (*OutboxEvent, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &OutboxEvent{
		ID:        uuid.New(),
		EventType: eventType,
		Payload:   raw,
		Status:    OutboxStatusPending,
		CreatedAt: now,
	}, nil
}

// EmergencyRequestEvent is the payload of BLOOD_REQUEST_EMERGENCY.
type EmergencyRequestEvent struct {
	RequestID     int64   `json:"request_id"`
	BloodGroup    string  `json:"blood_group"`
	QuantityUnits int     `json:"quantity_units"`
	City          *string `json:"city"`
}

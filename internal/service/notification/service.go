// Package notification turns emergency request events into donor alerts.
package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/jwalitptl/bloodbank-api/internal/email"
	"github.com/jwalitptl/bloodbank-api/internal/model"
	"github.com/jwalitptl/bloodbank-api/internal/repository"
	"github.com/jwalitptl/bloodbank-api/pkg/messaging"
)

// EmergencyAlerter mails every eligible matching donor when an emergency
// request is published.
type EmergencyAlerter struct {
	donors repository.DonorRepository
	mailer email.Service
	broker messaging.Broker
	logger *zap.Logger
}

func NewEmergencyAlerter(donors repository.DonorRepository, mailer email.Service, broker messaging.Broker, logger *zap.Logger) *EmergencyAlerter {
	return &EmergencyAlerter{
		donors: donors,
		mailer: mailer,
		broker: broker,
		logger: logger,
	}
}

// Run consumes emergency events until ctx is cancelled. Failed alerts are
// logged and never stop the loop.
func (a *EmergencyAlerter) Run(ctx context.Context) error {
	channel := messaging.ChannelFor(model.EventBloodRequestEmergency)
	a.logger.Info("listening for emergency requests", zap.String("channel", channel))

	err := messaging.Consume(ctx, a.broker, channel,
		func(payload []byte) error { return a.Handle(ctx, payload) },
		func(err error) { a.logger.Warn("emergency alert failed", zap.Error(err)) },
	)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Handle alerts the donors matching one event.
func (a *EmergencyAlerter) Handle(ctx context.Context, payload []byte) error {
	var event model.EmergencyRequestEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("failed to decode emergency event: %w", err)
	}
	if event.City == nil || *event.City == "" {
		a.logger.Info("emergency request has no city, skipping alerts", zap.Int64("request_id", event.RequestID))
		return nil
	}

	matches, err := a.donors.FindMatches(ctx, event.BloodGroup, *event.City)
	if err != nil {
		return fmt.Errorf("failed to find donors for request %d: %w", event.RequestID, err)
	}

	var errs []error
	sent := 0
	for _, d := range matches {
		if d.Email == "" {
			continue
		}
		if err := a.mailer.SendEmergencyAlert(ctx, d.Email, d.FullName, &event); err != nil {
			errs = append(errs, fmt.Errorf("donor %d: %w", d.DonorID, err))
			continue
		}
		sent++
	}

	a.logger.Info("emergency alerts sent",
		zap.Int64("request_id", event.RequestID),
		zap.Int("matched", len(matches)),
		zap.Int("sent", sent),
	)

	if len(errs) > 0 {
		return fmt.Errorf("request %d: %d alert(s) failed: %w", event.RequestID, len(errs), errors.Join(errs...))
	}
	return nil
}

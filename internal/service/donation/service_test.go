package donation

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/bloodbank-api/internal/model"
	"github.com/jwalitptl/bloodbank-api/internal/repository/memory"
	apperrors "github.com/jwalitptl/bloodbank-api/pkg/errors"
	"github.com/jwalitptl/bloodbank-api/pkg/metrics"
)

type fakeCache struct{ invalidated []int64 }

func (c *fakeCache) Invalidate(bankID int64) { c.invalidated = append(c.invalidated, bankID) }

type fixture struct {
	store   *memory.Store
	svc     *Service
	cache   *fakeCache
	metrics *metrics.Metrics
	now     time.Time
	userID  int64
	bankID  int64
}

func setup(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	f := &fixture{
		store:   memory.NewStore(),
		cache:   &fakeCache{},
		metrics: metrics.NewMetrics("test", prometheus.NewRegistry()),
		now:     time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC),
	}

	admin := &model.User{FullName: "Admin", Email: "admin@example.com", Role: model.RoleAdmin}
	donorUser := &model.User{FullName: "Donor", Email: "donor@example.com", Role: model.RoleDonor}
	require.NoError(t, f.store.Users().Create(ctx, admin))
	require.NoError(t, f.store.Users().Create(ctx, donorUser))

	bank := &model.BloodBank{Name: "Central", City: "Pune", AdminUserID: admin.ID}
	require.NoError(t, f.store.BloodBanks().Create(ctx, bank))
	require.NoError(t, f.store.Donors().Create(ctx, &model.Donor{UserID: donorUser.ID, BloodGroup: "O+", Eligible: true}))

	f.userID, f.bankID = donorUser.ID, bank.ID
	f.svc = NewService(f.store, f.store.Donations(), f.cache, func() time.Time { return f.now }, f.metrics)
	return f
}

func (f *fixture) donor(t *testing.T) *model.Donor {
	d, err := f.store.Donors().GetByUserID(context.Background(), f.userID)
	require.NoError(t, err)
	return d
}

func (f *fixture) makeEligible(t *testing.T) {
	d := f.donor(t)
	d.Eligible = true
	f.store.SetDonor(*d)
}

func TestRecordDonation(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	today := model.DateOf(f.now)

	res, err := f.svc.RecordDonation(ctx, f.userID, &model.DonateRequest{BloodBankID: f.bankID, QuantityUnits: 2})
	require.NoError(t, err)
	assert.Equal(t, 100, res.PointsAwarded)
	require.NotNil(t, res.BadgeAwarded)
	assert.Equal(t, model.BadgeFirstDrop, *res.BadgeAwarded)

	units := f.store.Units()
	require.Len(t, units, 1)
	assert.Equal(t, "O+", units[0].BloodGroup)
	assert.Equal(t, 2, units[0].UnitsAvailable)
	assert.Equal(t, today, units[0].CollectionDate)
	assert.Equal(t, today.AddDate(0, 0, 42), units[0].ExpiryDate)
	assert.Equal(t, model.InventoryAvailable, units[0].Status)

	records := f.store.DonationRecords()
	require.Len(t, records, 1)
	assert.Equal(t, today, records[0].DonationDate)
	assert.Equal(t, res.DonationID, records[0].ID)

	d := f.donor(t)
	assert.False(t, d.Eligible)
	assert.Equal(t, today, *d.LastDonationDate)
	assert.Equal(t, 100, d.Points)
	assert.Equal(t, 1, d.TotalDonations)

	events := f.store.OutboxEvents()
	require.Len(t, events, 1)
	assert.Equal(t, model.EventDonationRecorded, events[0].EventType)
	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(events[0].Payload, &payload))
	assert.Equal(t, "O+", payload["blood_group"])

	assert.Equal(t, []int64{f.bankID}, f.cache.invalidated)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.DonationsRecorded.WithLabelValues("false")))
}

func TestEmergencyDonationDoublesPoints(t *testing.T) {
	f := setup(t)

	res, err := f.svc.RecordDonation(context.Background(), f.userID, &model.DonateRequest{BloodBankID: f.bankID, QuantityUnits: 1, Emergency: true})
	require.NoError(t, err)
	assert.Equal(t, 200, res.PointsAwarded)
	assert.Equal(t, 200, f.donor(t).Points)
}

func TestBadgesOnlyAtMilestones(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	want := map[int]string{1: model.BadgeFirstDrop, 3: model.BadgeLifesaver, 10: model.BadgeEliteDonor}
	for i := 1; i <= 11; i++ {
		f.makeEligible(t)
		res, err := f.svc.RecordDonation(ctx, f.userID, &model.DonateRequest{BloodBankID: f.bankID, QuantityUnits: 1})
		require.NoError(t, err)

		if name, ok := want[i]; ok {
			require.NotNil(t, res.BadgeAwarded, "donation %d", i)
			assert.Equal(t, name, *res.BadgeAwarded)
		} else {
			assert.Nil(t, res.BadgeAwarded, "donation %d", i)
		}
	}

	d := f.donor(t)
	assert.Equal(t, 11, d.TotalDonations)
	assert.Equal(t, 1100, d.Points)
	badges, err := f.store.Donors().ListBadges(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{model.BadgeFirstDrop, model.BadgeLifesaver, model.BadgeEliteDonor}, badges)
}

func TestIneligibleDonorRejected(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	req := &model.DonateRequest{BloodBankID: f.bankID, QuantityUnits: 1}

	_, err := f.svc.RecordDonation(ctx, f.userID, req)
	require.NoError(t, err)

	_, err = f.svc.RecordDonation(ctx, f.userID, req)
	assert.True(t, apperrors.Is(err, apperrors.ErrConflict))
	assert.Equal(t, "donor is not eligible", apperrors.As(err).Message)
	assert.Len(t, f.store.Units(), 1)
	assert.Len(t, f.store.DonationRecords(), 1)
}

func TestDonationNotFound(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.RecordDonation(ctx, 999, &model.DonateRequest{BloodBankID: f.bankID, QuantityUnits: 1})
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))

	_, err = f.svc.RecordDonation(ctx, f.userID, &model.DonateRequest{BloodBankID: 999, QuantityUnits: 1})
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
	assert.True(t, f.donor(t).Eligible)
}

func TestDonationRollsBackOnFailure(t *testing.T) {
	f := setup(t)
	f.store.FailOn("InsertBadge", errors.New("disk full"))

	_, err := f.svc.RecordDonation(context.Background(), f.userID, &model.DonateRequest{BloodBankID: f.bankID, QuantityUnits: 3})
	require.Error(t, err)
	assert.Equal(t, "internal server error", apperrors.As(err).Message)

	assert.Empty(t, f.store.Units())
	assert.Empty(t, f.store.DonationRecords())
	assert.Empty(t, f.store.OutboxEvents())
	d := f.donor(t)
	assert.True(t, d.Eligible)
	assert.Zero(t, d.Points)
	assert.Zero(t, d.TotalDonations)
	assert.Empty(t, f.cache.invalidated)
}

func TestHistory(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.RecordDonation(ctx, f.userID, &model.DonateRequest{BloodBankID: f.bankID, QuantityUnits: 1})
	require.NoError(t, err)
	f.makeEligible(t)
	f.now = f.now.AddDate(0, 0, 50)
	_, err = f.svc.RecordDonation(ctx, f.userID, &model.DonateRequest{BloodBankID: f.bankID, QuantityUnits: 2})
	require.NoError(t, err)

	history, err := f.svc.History(ctx, f.userID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, 2, history[0].QuantityUnits, "newest first")
	assert.Equal(t, "Central", history[0].BloodBankName)
	assert.Equal(t, "Pune", history[0].City)
}

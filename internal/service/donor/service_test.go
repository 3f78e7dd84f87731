package donor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/bloodbank-api/internal/model"
	"github.com/jwalitptl/bloodbank-api/internal/repository/memory"
	apperrors "github.com/jwalitptl/bloodbank-api/pkg/errors"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestRegister(t *testing.T) {
	store := memory.NewStore()
	svc := NewService(store.Donors(), time.Now, nil)
	ctx := context.Background()

	d, err := svc.Register(ctx, 1, "AB-")
	require.NoError(t, err)
	assert.True(t, d.Eligible)
	assert.Zero(t, d.Points)

	_, err = svc.Register(ctx, 1, "AB-")
	assert.True(t, apperrors.Is(err, apperrors.ErrConflict))

	_, err = svc.Register(ctx, 2, "Z+")
	assert.True(t, apperrors.Is(err, apperrors.ErrBadRequest))
}

func TestProfile(t *testing.T) {
	store := memory.NewStore()
	svc := NewService(store.Donors(), time.Now, nil)
	ctx := context.Background()

	_, err := svc.Profile(ctx, 1)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))

	_, err = svc.Register(ctx, 1, "O+")
	require.NoError(t, err)

	p, err := svc.Profile(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "O+", p.BloodGroup)
	assert.Empty(t, p.Badges)
}

func TestResetEligibility(t *testing.T) {
	store := memory.NewStore()
	today := date(2024, 6, 1)
	svc := NewService(store.Donors(), func() time.Time { return today.Add(13 * time.Hour) }, nil)
	ctx := context.Background()

	due := today.AddDate(0, 0, -42)
	notDue := today.AddDate(0, 0, -41)
	store.SetDonor(model.Donor{ID: 1, UserID: 1, BloodGroup: "A+", Eligible: false, LastDonationDate: &due})
	store.SetDonor(model.Donor{ID: 2, UserID: 2, BloodGroup: "A+", Eligible: false, LastDonationDate: &notDue})
	store.SetDonor(model.Donor{ID: 3, UserID: 3, BloodGroup: "A+", Eligible: true})

	n, err := svc.ResetEligibility(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = svc.ResetEligibility(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "second run is a no-op")

	d1, _ := store.Donors().GetByUserID(ctx, 1)
	d2, _ := store.Donors().GetByUserID(ctx, 2)
	assert.True(t, d1.Eligible)
	assert.False(t, d2.Eligible)
}

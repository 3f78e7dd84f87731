package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/bloodbank-api/internal/model"
	"github.com/jwalitptl/bloodbank-api/internal/repository"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestWithinTxRollsBack(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.WithinTx(ctx, func(tx repository.TxStore) error {
		require.NoError(t, tx.InsertInventoryUnit(ctx, &model.InventoryUnit{BloodGroup: "A+", UnitsAvailable: 3}))
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, s.Units())

	require.NoError(t, s.WithinTx(ctx, func(tx repository.TxStore) error {
		return tx.InsertInventoryUnit(ctx, &model.InventoryUnit{BloodGroup: "A+", UnitsAvailable: 3})
	}))
	assert.Len(t, s.Units(), 1)
}

func TestWithinTxRollsBackOnPanic(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	assert.Panics(t, func() {
		_ = s.WithinTx(ctx, func(tx repository.TxStore) error {
			_ = tx.InsertInventoryUnit(ctx, &model.InventoryUnit{BloodGroup: "A+", UnitsAvailable: 3})
			panic("boom")
		})
	})
	assert.Empty(t, s.Units())
}

func TestEarliestUnitOrdering(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	today := day(2024, 3, 10)

	s.AddUnit(model.InventoryUnit{BloodGroup: "A+", UnitsAvailable: 5, ExpiryDate: day(2024, 3, 20), Status: model.InventoryAvailable})
	early := s.AddUnit(model.InventoryUnit{BloodGroup: "A+", UnitsAvailable: 1, ExpiryDate: day(2024, 3, 12), Status: model.InventoryAvailable})
	s.AddUnit(model.InventoryUnit{BloodGroup: "A+", UnitsAvailable: 9, ExpiryDate: day(2024, 3, 9), Status: model.InventoryAvailable})
	s.AddUnit(model.InventoryUnit{BloodGroup: "A+", UnitsAvailable: 9, ExpiryDate: day(2024, 3, 11), Status: model.InventoryExpired})
	s.AddUnit(model.InventoryUnit{BloodGroup: "B+", UnitsAvailable: 9, ExpiryDate: day(2024, 3, 10), Status: model.InventoryAvailable})

	err := s.WithinTx(ctx, func(tx repository.TxStore) error {
		u, err := tx.EarliestUnitForUpdate(ctx, "A+", today)
		require.NoError(t, err)
		assert.Equal(t, early, u.ID)
		return nil
	})
	require.NoError(t, err)
}

func TestInventoryQueries(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	today := day(2024, 3, 10)

	s.AddUnit(model.InventoryUnit{BloodBankID: 1, BloodGroup: "A+", UnitsAvailable: 5, ExpiryDate: day(2024, 3, 10), Status: model.InventoryAvailable})
	s.AddUnit(model.InventoryUnit{BloodBankID: 1, BloodGroup: "A+", UnitsAvailable: 2, ExpiryDate: day(2024, 4, 1), Status: model.InventoryAvailable})
	s.AddUnit(model.InventoryUnit{BloodBankID: 1, BloodGroup: "O-", UnitsAvailable: 4, ExpiryDate: day(2024, 3, 9), Status: model.InventoryAvailable})
	s.AddUnit(model.InventoryUnit{BloodBankID: 2, BloodGroup: "O-", UnitsAvailable: 1, ExpiryDate: day(2024, 4, 1), Status: model.InventoryAvailable})

	totals, err := s.Inventory().AvailableByBank(ctx, 1, today)
	require.NoError(t, err)
	assert.Equal(t, []model.GroupTotal{{BloodGroup: "A+", TotalUnits: 7}}, totals)

	n, err := s.Inventory().ExpireBefore(ctx, today)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	summary, err := s.Inventory().Summary(ctx, today)
	require.NoError(t, err)
	assert.Equal(t, []model.GroupTotal{{BloodGroup: "A+", TotalUnits: 7}, {BloodGroup: "O-", TotalUnits: 1}}, summary)
}

func TestDuplicates(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	require.NoError(t, s.Users().Create(ctx, &model.User{Email: "a@example.com"}))
	assert.ErrorIs(t, s.Users().Create(ctx, &model.User{Email: "a@example.com"}), repository.ErrDuplicate)

	require.NoError(t, s.Donors().Create(ctx, &model.Donor{UserID: 1, BloodGroup: "O+"}))
	assert.ErrorIs(t, s.Donors().Create(ctx, &model.Donor{UserID: 1, BloodGroup: "A+"}), repository.ErrDuplicate)
}

func TestUpdateStatusFrom(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	id := s.AddRequest(model.BloodRequest{Status: model.RequestPending})

	require.NoError(t, s.Requests().UpdateStatusFrom(ctx, id, model.RequestPending, model.RequestApproved))
	assert.ErrorIs(t, s.Requests().UpdateStatusFrom(ctx, id, model.RequestPending, model.RequestRejected), repository.ErrNotFound)

	req, err := s.Requests().Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.RequestApproved, req.Status)
}

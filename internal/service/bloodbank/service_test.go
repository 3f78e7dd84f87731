package bloodbank

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/bloodbank-api/internal/model"
	"github.com/jwalitptl/bloodbank-api/internal/repository"
	"github.com/jwalitptl/bloodbank-api/internal/repository/memory"
	apperrors "github.com/jwalitptl/bloodbank-api/pkg/errors"
)

type fakeCache struct {
	invalidated []int64
}

func (f *fakeCache) Invalidate(bankID int64) {
	f.invalidated = append(f.invalidated, bankID)
}

func seedAdmins(t *testing.T, store *memory.Store) (*model.User, *model.User) {
	t.Helper()
	ctx := context.Background()
	admin := &model.User{FullName: "Admin One", Email: "admin1@example.com", Role: model.RoleAdmin}
	other := &model.User{FullName: "Admin Two", Email: "admin2@example.com", Role: model.RoleAdmin}
	require.NoError(t, store.Users().Create(ctx, admin))
	require.NoError(t, store.Users().Create(ctx, other))
	return admin, other
}

func createCentral(t *testing.T, svc *Service, adminID int64) *model.BloodBank {
	t.Helper()
	bank, err := svc.Create(context.Background(), adminID, &model.CreateBloodBankRequest{
		Name: "Central", City: "Pune", Address: "1 Main St", ContactNumber: "555",
	})
	require.NoError(t, err)
	return bank
}

func TestBloodBankLifecycle(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	admin, other := seedAdmins(t, store)
	cache := &fakeCache{}
	svc := NewService(store.BloodBanks(), cache)

	bank := createCentral(t, svc, admin.ID)
	assert.Equal(t, admin.ID, bank.AdminUserID)

	banks, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, banks, 1)
	assert.Equal(t, "Admin One", banks[0].AdminName)

	public, err := svc.ListPublic(ctx)
	require.NoError(t, err)
	assert.Equal(t, []*model.BloodBankSummary{{ID: bank.ID, Name: "Central", City: "Pune"}}, public)

	err = svc.Delete(ctx, bank.ID, other.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound), "non-owner cannot delete")
	assert.Empty(t, cache.invalidated)

	require.NoError(t, svc.Delete(ctx, bank.ID, admin.ID))
	assert.Equal(t, []int64{bank.ID}, cache.invalidated)
	n, err := svc.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	err = svc.Delete(ctx, bank.ID, admin.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestDeleteKeepsBankWithHistory(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	admin, _ := seedAdmins(t, store)
	cache := &fakeCache{}
	svc := NewService(store.BloodBanks(), cache)
	bank := createCentral(t, svc, admin.ID)

	today := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	err := store.WithinTx(ctx, func(tx repository.TxStore) error {
		if err := tx.InsertDonation(ctx, &model.DonationRecord{DonorID: 1, BloodBankID: bank.ID, DonationDate: today, QuantityUnits: 1}); err != nil {
			return err
		}
		return tx.InsertInventoryUnit(ctx, &model.InventoryUnit{
			BloodBankID: bank.ID, BloodGroup: "O+", UnitsAvailable: 1,
			CollectionDate: today, ExpiryDate: today.AddDate(0, 0, model.ShelfLifeDays), Status: model.InventoryAvailable,
		})
	})
	require.NoError(t, err)

	err = svc.Delete(ctx, bank.ID, admin.ID)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrConflict))
	assert.Equal(t, "blood bank has inventory or donation history", apperrors.As(err).Message)
	assert.Empty(t, cache.invalidated)

	n, err := svc.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Len(t, store.DonationRecords(), 1)
	assert.Len(t, store.Units(), 1)
}

package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/bloodbank-api/internal/model"
	"github.com/jwalitptl/bloodbank-api/internal/repository"
)

func setupMockDB(t *testing.T) (BaseRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewBaseRepository(sqlx.NewDb(db, "sqlmock"), time.Second), mock
}

func q(s string) string { return regexp.QuoteMeta(s) }

var donorCols = []string{"donor_id", "user_id", "blood_group", "eligible", "last_donation_date", "points", "total_donations", "created_at"}

func TestUserCreate(t *testing.T) {
	base, mock := setupMockDB(t)
	repo := NewUserRepository(base)
	now := time.Now()

	mock.ExpectQuery(q("INSERT INTO users")).
		WithArgs("Asha Rao", "asha@example.com", "hash", model.RoleDonor, nil, nil).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "created_at"}).AddRow(11, now))

	user := &model.User{FullName: "Asha Rao", Email: "asha@example.com", PasswordHash: "hash", Role: model.RoleDonor}
	require.NoError(t, repo.Create(context.Background(), user))
	assert.Equal(t, int64(11), user.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserCreateDuplicateEmail(t *testing.T) {
	base, mock := setupMockDB(t)
	repo := NewUserRepository(base)

	mock.ExpectQuery(q("INSERT INTO users")).
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value"})

	err := repo.Create(context.Background(), &model.User{Email: "dup@example.com"})
	assert.ErrorIs(t, err, repository.ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserGetNotFound(t *testing.T) {
	base, mock := setupMockDB(t)
	repo := NewUserRepository(base)

	mock.ExpectQuery(q("FROM users WHERE email = $1")).
		WithArgs("ghost@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}))

	_, err := repo.GetByEmail(context.Background(), "ghost@example.com")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBloodBankDeleteOwnedByOther(t *testing.T) {
	base, mock := setupMockDB(t)
	repo := NewBloodBankRepository(base)

	mock.ExpectExec(q("DELETE FROM blood_banks WHERE blood_bank_id = $1 AND admin_user_id = $2")).
		WithArgs(int64(3), int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.DeleteOwned(context.Background(), 3, 9)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBloodBankDeleteWithHistory(t *testing.T) {
	base, mock := setupMockDB(t)
	repo := NewBloodBankRepository(base)

	mock.ExpectExec(q("DELETE FROM blood_banks WHERE blood_bank_id = $1 AND admin_user_id = $2")).
		WithArgs(int64(3), int64(1)).
		WillReturnError(&pq.Error{Code: "23503", Message: "violates foreign key constraint"})

	err := repo.DeleteOwned(context.Background(), 3, 1)
	assert.ErrorIs(t, err, repository.ErrReferenced)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInventoryAvailableByBank(t *testing.T) {
	base, mock := setupMockDB(t)
	repo := NewInventoryRepository(base)
	today := time.Date(2024, 3, 10, 15, 4, 0, 0, time.UTC)

	mock.ExpectQuery(q("WHERE blood_bank_id = $1 AND status = 'available' AND expiry_date >= $2")).
		WithArgs(int64(1), model.DateOf(today)).
		WillReturnRows(sqlmock.NewRows([]string{"blood_group", "total_units"}).
			AddRow("A+", 7).
			AddRow("O-", 2))

	totals, err := repo.AvailableByBank(context.Background(), 1, today)
	require.NoError(t, err)
	assert.Equal(t, []model.GroupTotal{{BloodGroup: "A+", TotalUnits: 7}, {BloodGroup: "O-", TotalUnits: 2}}, totals)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInventorySummaryFiltersUsable(t *testing.T) {
	base, mock := setupMockDB(t)
	repo := NewInventoryRepository(base)
	today := time.Date(2024, 3, 10, 15, 4, 0, 0, time.UTC)

	mock.ExpectQuery(q("WHERE status = 'available' AND expiry_date >= $1")).
		WithArgs(model.DateOf(today)).
		WillReturnRows(sqlmock.NewRows([]string{"blood_group", "total_units"}).AddRow("A+", 4))

	totals, err := repo.Summary(context.Background(), today)
	require.NoError(t, err)
	assert.Equal(t, []model.GroupTotal{{BloodGroup: "A+", TotalUnits: 4}}, totals)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInventoryExpireBefore(t *testing.T) {
	base, mock := setupMockDB(t)
	repo := NewInventoryRepository(base)
	today := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec(q("UPDATE blood_inventory SET status = 'expired'")).
		WithArgs(today).
		WillReturnResult(sqlmock.NewResult(0, 4))

	n, err := repo.ExpireBefore(context.Background(), today)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDonorResetEligibility(t *testing.T) {
	base, mock := setupMockDB(t)
	repo := NewDonorRepository(base)
	cutoff := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec(q("UPDATE donors SET eligible = TRUE")).
		WithArgs(cutoff).
		WillReturnResult(sqlmock.NewResult(0, 2))

	n, err := repo.ResetEligibility(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDonorCreateDuplicate(t *testing.T) {
	base, mock := setupMockDB(t)
	repo := NewDonorRepository(base)

	mock.ExpectQuery(q("INSERT INTO donors")).
		WithArgs(int64(5), "O+", true).
		WillReturnError(&pq.Error{Code: "23505"})

	err := repo.Create(context.Background(), &model.Donor{UserID: 5, BloodGroup: "O+", Eligible: true})
	assert.ErrorIs(t, err, repository.ErrDuplicate)
}

func TestRequestUpdateStatusFromWrongState(t *testing.T) {
	base, mock := setupMockDB(t)
	repo := NewBloodRequestRepository(base)

	mock.ExpectExec(q("UPDATE blood_requests SET status = $1 WHERE request_id = $2 AND status = $3")).
		WithArgs(model.RequestApproved, int64(4), model.RequestPending).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStatusFrom(context.Background(), 4, model.RequestPending, model.RequestApproved)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUnitOfWorkCommits(t *testing.T) {
	base, mock := setupMockDB(t)
	uow := NewUnitOfWork(base)

	mock.ExpectBegin()
	mock.ExpectQuery(q("FROM donors WHERE user_id = $1 FOR UPDATE")).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows(donorCols).AddRow(1, 5, "O+", true, nil, 0, 0, time.Now()))
	mock.ExpectQuery(q("UPDATE donors")).
		WithArgs(sqlmock.AnyArg(), 100, int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"total_donations"}).AddRow(1))
	mock.ExpectCommit()

	err := uow.WithinTx(context.Background(), func(tx repository.TxStore) error {
		donor, err := tx.GetDonorForUpdate(context.Background(), 5)
		if err != nil {
			return err
		}
		total, err := tx.ApplyDonation(context.Background(), donor.ID, time.Now(), 100)
		assert.Equal(t, 1, total)
		return err
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUnitOfWorkRollsBack(t *testing.T) {
	base, mock := setupMockDB(t)
	uow := NewUnitOfWork(base)
	boom := errors.New("boom")

	mock.ExpectBegin()
	mock.ExpectQuery(q("INSERT INTO donation_history")).
		WillReturnRows(sqlmock.NewRows([]string{"donation_id"}).AddRow(9))
	mock.ExpectRollback()

	err := uow.WithinTx(context.Background(), func(tx repository.TxStore) error {
		rec := &model.DonationRecord{DonorID: 1, BloodBankID: 1, DonationDate: time.Now(), QuantityUnits: 1}
		if err := tx.InsertDonation(context.Background(), rec); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEarliestUnitForUpdate(t *testing.T) {
	base, mock := setupMockDB(t)
	uow := NewUnitOfWork(base)
	today := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(q("ORDER BY expiry_date, inventory_id LIMIT 1 FOR UPDATE")).
		WithArgs("A+", today).
		WillReturnRows(sqlmock.NewRows([]string{
			"inventory_id", "blood_bank_id", "blood_group", "units_available",
			"collection_date", "expiry_date", "status",
		}).AddRow(3, 1, "A+", 5, today.AddDate(0, 0, -40), today.AddDate(0, 0, 2), "available"))
	mock.ExpectExec(q("UPDATE blood_inventory SET units_available = units_available - $1")).
		WithArgs(5, int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := uow.WithinTx(context.Background(), func(tx repository.TxStore) error {
		unit, err := tx.EarliestUnitForUpdate(context.Background(), "A+", today)
		if err != nil {
			return err
		}
		assert.Equal(t, int64(3), unit.ID)
		assert.Equal(t, model.InventoryAvailable, unit.Status)
		return tx.DecrementUnit(context.Background(), unit.ID, unit.UnitsAvailable)
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEarliestUnitNone(t *testing.T) {
	base, mock := setupMockDB(t)
	uow := NewUnitOfWork(base)

	mock.ExpectBegin()
	mock.ExpectQuery(q("FROM blood_inventory")).
		WillReturnRows(sqlmock.NewRows([]string{"inventory_id"}))
	mock.ExpectRollback()

	err := uow.WithinTx(context.Background(), func(tx repository.TxStore) error {
		_, err := tx.EarliestUnitForUpdate(context.Background(), "B-", time.Now())
		return err
	})
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOutboxProcessPending(t *testing.T) {
	base, mock := setupMockDB(t)
	repo := NewOutboxRepository(base)
	ok, bad := uuid.New(), uuid.New()
	now := time.Now()

	cols := []string{"id", "event_type", "payload", "status", "error_message", "retry_count", "created_at", "processed_at"}
	mock.ExpectBegin()
	mock.ExpectQuery(q("FOR UPDATE SKIP LOCKED")).
		WithArgs(10).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(ok.String(), model.EventDonationRecorded, []byte(`{}`), "pending", nil, 0, now, nil).
			AddRow(bad.String(), model.EventBloodRequestEmergency, []byte(`{}`), "pending", nil, 0, now, nil))
	mock.ExpectExec(q("SET status = 'processed'")).
		WithArgs(ok).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q("SET status = 'failed'")).
		WithArgs("redis down", bad).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	processed, failed, err := repo.ProcessPending(context.Background(), 10, func(e *model.OutboxEvent) error {
		if e.ID == bad {
			return errors.New("redis down")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, processed)
	assert.Equal(t, 1, failed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

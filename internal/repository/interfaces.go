package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jwalitptl/bloodbank-api/internal/model"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
	// ErrReferenced means other rows still point at the record.
	ErrReferenced = errors.New("record is still referenced")
)

// All repository interfaces in one file
type (
	UserRepository interface {
		Create(ctx context.Context, user *model.User) error
		Get(ctx context.Context, id int64) (*model.User, error)
		GetByEmail(ctx context.Context, email string) (*model.User, error)
	}

	BloodBankRepository interface {
		Create(ctx context.Context, bank *model.BloodBank) error
		Get(ctx context.Context, id int64) (*model.BloodBank, error)
		List(ctx context.Context) ([]*model.BloodBank, error)
		ListSummaries(ctx context.Context) ([]*model.BloodBankSummary, error)
		// DeleteOwned removes a bank only if adminUserID owns it. A bank with
		// inventory or donation history returns ErrReferenced.
		DeleteOwned(ctx context.Context, id, adminUserID int64) error
		Count(ctx context.Context) (int, error)
	}

	InventoryRepository interface {
		AvailableByBank(ctx context.Context, bankID int64, today time.Time) ([]model.GroupTotal, error)
		// Summary is AvailableByBank across every bank.
		Summary(ctx context.Context, today time.Time) ([]model.GroupTotal, error)
		// ExpireBefore flags available units whose expiry date has passed.
		ExpireBefore(ctx context.Context, today time.Time) (int64, error)
	}

	DonorRepository interface {
		Create(ctx context.Context, donor *model.Donor) error
		GetByUserID(ctx context.Context, userID int64) (*model.Donor, error)
		ListBadges(ctx context.Context, donorID int64) ([]string, error)
		// ResetEligibility re-enables ineligible donors whose last donation
		// was on or before cutoff.
		ResetEligibility(ctx context.Context, cutoff time.Time) (int64, error)
		FindMatches(ctx context.Context, bloodGroup, city string) ([]model.DonorMatch, error)
	}

	DonationRepository interface {
		ListByUser(ctx context.Context, userID int64) ([]*model.DonationHistoryEntry, error)
	}

	BloodRequestRepository interface {
		Get(ctx context.Context, id int64) (*model.BloodRequest, error)
		List(ctx context.Context) ([]*model.BloodRequest, error)
		ListByUser(ctx context.Context, userID int64) ([]*model.BloodRequest, error)
		// UpdateStatusFrom moves a request from one status to another and
		// returns ErrNotFound when no row is in the from status.
		UpdateStatusFrom(ctx context.Context, id int64, from, to model.RequestStatus) error
		CountByStatus(ctx context.Context, status model.RequestStatus) (int, error)
	}

	OutboxRepository interface {
		Create(ctx context.Context, event *model.OutboxEvent) error
		// ProcessPending locks up to limit pending events, hands each to fn and
		// records the outcome in the same transaction.
		ProcessPending(ctx context.Context, limit int, fn func(*model.OutboxEvent) error) (processed, failed int, err error)
		DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
	}

	// UnitOfWork runs fn inside a single transaction. A non-nil error from fn
	// rolls back every write made through the TxStore.
	UnitOfWork interface {
		WithinTx(ctx context.Context, fn func(tx TxStore) error) error
	}

	// TxStore is the set of reads and writes that must share a transaction.
	// The ForUpdate reads hold row locks until the transaction ends.
	TxStore interface {
		GetDonorForUpdate(ctx context.Context, userID int64) (*model.Donor, error)
		BloodBankExists(ctx context.Context, id int64) (bool, error)
		InsertDonation(ctx context.Context, record *model.DonationRecord) error
		InsertInventoryUnit(ctx context.Context, unit *model.InventoryUnit) error
		// ApplyDonation marks the donor ineligible, credits points and returns
		// the new donation total.
		ApplyDonation(ctx context.Context, donorID int64, date time.Time, points int) (int, error)
		InsertBadge(ctx context.Context, badge *model.Badge) error

		InsertRequest(ctx context.Context, req *model.BloodRequest) error
		GetRequestForUpdate(ctx context.Context, id int64) (*model.BloodRequest, error)
		EarliestUnitForUpdate(ctx context.Context, bloodGroup string, today time.Time) (*model.InventoryUnit, error)
		DecrementUnit(ctx context.Context, unitID int64, qty int) error
		SetRequestStatus(ctx context.Context, id int64, status model.RequestStatus) error

		InsertOutboxEvent(ctx context.Context, event *model.OutboxEvent) error
	}
)

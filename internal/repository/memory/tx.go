package memory

import (
	"context"
	"time"

	"github.com/jwalitptl/bloodbank-api/internal/model"
	"github.com/jwalitptl/bloodbank-api/internal/repository"
)

// WithinTx holds the store lock for the whole of fn, so transactions are
// serializable. Any error restores the state captured on entry.
func (s *Store) WithinTx(ctx context.Context, fn func(repository.TxStore) error) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	snapshot := s.st.clone()
	defer func() {
		if p := recover(); p != nil {
			s.st = snapshot
			panic(p)
		}
		if err != nil {
			s.st = snapshot
		}
	}()

	return fn(&txStore{s: s})
}

type txStore struct {
	s *Store
}

func (t *txStore) st() *state { return t.s.st }

func (t *txStore) GetDonorForUpdate(ctx context.Context, userID int64) (*model.Donor, error) {
	if err := t.s.failure("GetDonorForUpdate"); err != nil {
		return nil, err
	}
	d := findDonorByUser(t.st(), userID)
	if d == nil {
		return nil, repository.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (t *txStore) BloodBankExists(ctx context.Context, id int64) (bool, error) {
	_, ok := t.st().banks[id]
	return ok, nil
}

func (t *txStore) InsertDonation(ctx context.Context, record *model.DonationRecord) error {
	if err := t.s.failure("InsertDonation"); err != nil {
		return err
	}
	st := t.st()
	st.nextDonation++
	record.ID = st.nextDonation
	cp := *record
	st.donations[record.ID] = &cp
	return nil
}

func (t *txStore) InsertInventoryUnit(ctx context.Context, unit *model.InventoryUnit) error {
	if err := t.s.failure("InsertInventoryUnit"); err != nil {
		return err
	}
	st := t.st()
	st.nextUnit++
	unit.ID = st.nextUnit
	cp := *unit
	st.inventory[unit.ID] = &cp
	return nil
}

func (t *txStore) ApplyDonation(ctx context.Context, donorID int64, date time.Time, points int) (int, error) {
	if err := t.s.failure("ApplyDonation"); err != nil {
		return 0, err
	}
	d, ok := t.st().donors[donorID]
	if !ok {
		return 0, repository.ErrNotFound
	}
	day := model.DateOf(date)
	d.Eligible = false
	d.LastDonationDate = &day
	d.Points += points
	d.TotalDonations++
	return d.TotalDonations, nil
}

func (t *txStore) InsertBadge(ctx context.Context, badge *model.Badge) error {
	if err := t.s.failure("InsertBadge"); err != nil {
		return err
	}
	st := t.st()
	for _, b := range st.badges {
		if b.DonorID == badge.DonorID && b.BadgeName == badge.BadgeName {
			return nil
		}
	}
	st.badges = append(st.badges, *badge)
	return nil
}

func (t *txStore) InsertRequest(ctx context.Context, req *model.BloodRequest) error {
	if err := t.s.failure("InsertRequest"); err != nil {
		return err
	}
	st := t.st()
	st.nextRequest++
	req.ID = st.nextRequest
	cp := *req
	st.requests[req.ID] = &cp
	return nil
}

func (t *txStore) GetRequestForUpdate(ctx context.Context, id int64) (*model.BloodRequest, error) {
	req, ok := t.st().requests[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *req
	return &cp, nil
}

func (t *txStore) EarliestUnitForUpdate(ctx context.Context, bloodGroup string, today time.Time) (*model.InventoryUnit, error) {
	day := model.DateOf(today)
	var best *model.InventoryUnit
	for _, u := range t.st().inventory {
		if u.BloodGroup != bloodGroup || !u.Usable(day) {
			continue
		}
		if best == nil || u.ExpiryDate.Before(best.ExpiryDate) ||
			(u.ExpiryDate.Equal(best.ExpiryDate) && u.ID < best.ID) {
			best = u
		}
	}
	if best == nil {
		return nil, repository.ErrNotFound
	}
	cp := *best
	return &cp, nil
}

func (t *txStore) DecrementUnit(ctx context.Context, unitID int64, qty int) error {
	if err := t.s.failure("DecrementUnit"); err != nil {
		return err
	}
	u, ok := t.st().inventory[unitID]
	if !ok || u.UnitsAvailable < qty {
		return repository.ErrNotFound
	}
	u.UnitsAvailable -= qty
	return nil
}

func (t *txStore) SetRequestStatus(ctx context.Context, id int64, status model.RequestStatus) error {
	if err := t.s.failure("SetRequestStatus"); err != nil {
		return err
	}
	req, ok := t.st().requests[id]
	if !ok {
		return repository.ErrNotFound
	}
	req.Status = status
	return nil
}

func (t *txStore) InsertOutboxEvent(ctx context.Context, event *model.OutboxEvent) error {
	if err := t.s.failure("InsertOutboxEvent"); err != nil {
		return err
	}
	cp := *event
	t.st().outbox = append(t.st().outbox, &cp)
	return nil
}

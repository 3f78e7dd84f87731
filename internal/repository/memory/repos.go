package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/jwalitptl/bloodbank-api/internal/model"
	"github.com/jwalitptl/bloodbank-api/internal/repository"
)

func (s *Store) Users() repository.UserRepository            { return userRepo{s} }
func (s *Store) BloodBanks() repository.BloodBankRepository  { return bankRepo{s} }
func (s *Store) Inventory() repository.InventoryRepository   { return inventoryRepo{s} }
func (s *Store) Donors() repository.DonorRepository          { return donorRepo{s} }
func (s *Store) Donations() repository.DonationRepository    { return donationRepo{s} }
func (s *Store) Requests() repository.BloodRequestRepository { return requestRepo{s} }
func (s *Store) Outbox() repository.OutboxRepository         { return outboxRepo{s} }

type userRepo struct{ s *Store }

func (r userRepo) Create(ctx context.Context, user *model.User) error {
	var err error
	r.s.locked(func(st *state) {
		for _, u := range st.users {
			if strings.EqualFold(u.Email, user.Email) {
				err = repository.ErrDuplicate
				return
			}
		}
		st.nextUser++
		user.ID = st.nextUser
		user.CreatedAt = r.s.now()
		cp := *user
		st.users[user.ID] = &cp
	})
	return err
}

func (r userRepo) Get(ctx context.Context, id int64) (*model.User, error) {
	var out *model.User
	r.s.locked(func(st *state) {
		if u, ok := st.users[id]; ok {
			cp := *u
			out = &cp
		}
	})
	if out == nil {
		return nil, repository.ErrNotFound
	}
	return out, nil
}

func (r userRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var out *model.User
	r.s.locked(func(st *state) {
		for _, u := range st.users {
			if strings.EqualFold(u.Email, email) {
				cp := *u
				out = &cp
				return
			}
		}
	})
	if out == nil {
		return nil, repository.ErrNotFound
	}
	return out, nil
}

type bankRepo struct{ s *Store }

func (r bankRepo) Create(ctx context.Context, bank *model.BloodBank) error {
	r.s.locked(func(st *state) {
		st.nextBank++
		bank.ID = st.nextBank
		bank.CreatedAt = r.s.now()
		cp := *bank
		st.banks[bank.ID] = &cp
	})
	return nil
}

func (r bankRepo) withAdmin(st *state, b *model.BloodBank) *model.BloodBank {
	cp := *b
	if u, ok := st.users[b.AdminUserID]; ok {
		cp.AdminName = u.FullName
	}
	return &cp
}

func (r bankRepo) Get(ctx context.Context, id int64) (*model.BloodBank, error) {
	var out *model.BloodBank
	r.s.locked(func(st *state) {
		if b, ok := st.banks[id]; ok {
			out = r.withAdmin(st, b)
		}
	})
	if out == nil {
		return nil, repository.ErrNotFound
	}
	return out, nil
}

func (r bankRepo) List(ctx context.Context) ([]*model.BloodBank, error) {
	out := []*model.BloodBank{}
	r.s.locked(func(st *state) {
		for _, b := range st.banks {
			out = append(out, r.withAdmin(st, b))
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r bankRepo) ListSummaries(ctx context.Context) ([]*model.BloodBankSummary, error) {
	out := []*model.BloodBankSummary{}
	r.s.locked(func(st *state) {
		for _, b := range st.banks {
			out = append(out, &model.BloodBankSummary{ID: b.ID, Name: b.Name, City: b.City})
		}
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r bankRepo) DeleteOwned(ctx context.Context, id, adminUserID int64) error {
	var err error
	r.s.locked(func(st *state) {
		b, ok := st.banks[id]
		if !ok || b.AdminUserID != adminUserID {
			err = repository.ErrNotFound
			return
		}
		for _, u := range st.inventory {
			if u.BloodBankID == id {
				err = repository.ErrReferenced
				return
			}
		}
		for _, d := range st.donations {
			if d.BloodBankID == id {
				err = repository.ErrReferenced
				return
			}
		}
		delete(st.banks, id)
	})
	return err
}

func (r bankRepo) Count(ctx context.Context) (int, error) {
	var n int
	r.s.locked(func(st *state) { n = len(st.banks) })
	return n, nil
}

type inventoryRepo struct{ s *Store }

func sortedTotals(sums map[string]int) []model.GroupTotal {
	out := make([]model.GroupTotal, 0, len(sums))
	for g, n := range sums {
		out = append(out, model.GroupTotal{BloodGroup: g, TotalUnits: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BloodGroup < out[j].BloodGroup })
	return out
}

func (r inventoryRepo) AvailableByBank(ctx context.Context, bankID int64, today time.Time) ([]model.GroupTotal, error) {
	sums := map[string]int{}
	day := model.DateOf(today)
	r.s.locked(func(st *state) {
		for _, u := range st.inventory {
			if u.BloodBankID == bankID && u.Usable(day) {
				sums[u.BloodGroup] += u.UnitsAvailable
			}
		}
	})
	return sortedTotals(sums), nil
}

func (r inventoryRepo) Summary(ctx context.Context, today time.Time) ([]model.GroupTotal, error) {
	sums := map[string]int{}
	day := model.DateOf(today)
	r.s.locked(func(st *state) {
		for _, u := range st.inventory {
			if u.Usable(day) {
				sums[u.BloodGroup] += u.UnitsAvailable
			}
		}
	})
	return sortedTotals(sums), nil
}

func (r inventoryRepo) ExpireBefore(ctx context.Context, today time.Time) (int64, error) {
	var n int64
	day := model.DateOf(today)
	r.s.locked(func(st *state) {
		for _, u := range st.inventory {
			if u.Status == model.InventoryAvailable && u.ExpiryDate.Before(day) {
				u.Status = model.InventoryExpired
				n++
			}
		}
	})
	return n, nil
}

// Units returns a copy of every inventory row ordered by id.
func (s *Store) Units() []model.InventoryUnit {
	var out []model.InventoryUnit
	s.locked(func(st *state) {
		for _, u := range st.inventory {
			out = append(out, *u)
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// AddUnit inserts an inventory row directly, for seeding.
func (s *Store) AddUnit(unit model.InventoryUnit) int64 {
	var id int64
	s.locked(func(st *state) {
		st.nextUnit++
		unit.ID = st.nextUnit
		st.inventory[unit.ID] = &unit
		id = unit.ID
	})
	return id
}

// AddRequest inserts a request directly, for seeding.
func (s *Store) AddRequest(req model.BloodRequest) int64 {
	var id int64
	s.locked(func(st *state) {
		st.nextRequest++
		req.ID = st.nextRequest
		st.requests[req.ID] = &req
		id = req.ID
	})
	return id
}

// SetDonor overwrites a donor row, for seeding.
func (s *Store) SetDonor(d model.Donor) {
	s.locked(func(st *state) {
		if d.ID > st.nextDonor {
			st.nextDonor = d.ID
		}
		st.donors[d.ID] = &d
	})
}

// DonationRecords returns a copy of every donation record ordered by id.
func (s *Store) DonationRecords() []model.DonationRecord {
	var out []model.DonationRecord
	s.locked(func(st *state) {
		for _, d := range st.donations {
			out = append(out, *d)
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// OutboxEvents returns a copy of the outbox in insertion order.
func (s *Store) OutboxEvents() []model.OutboxEvent {
	var out []model.OutboxEvent
	s.locked(func(st *state) {
		for _, e := range st.outbox {
			out = append(out, *e)
		}
	})
	return out
}

type donorRepo struct{ s *Store }

func (r donorRepo) Create(ctx context.Context, donor *model.Donor) error {
	var err error
	r.s.locked(func(st *state) {
		for _, d := range st.donors {
			if d.UserID == donor.UserID {
				err = repository.ErrDuplicate
				return
			}
		}
		st.nextDonor++
		donor.ID = st.nextDonor
		donor.CreatedAt = r.s.now()
		cp := *donor
		st.donors[donor.ID] = &cp
	})
	return err
}

func findDonorByUser(st *state, userID int64) *model.Donor {
	for _, d := range st.donors {
		if d.UserID == userID {
			return d
		}
	}
	return nil
}

func (r donorRepo) GetByUserID(ctx context.Context, userID int64) (*model.Donor, error) {
	var out *model.Donor
	r.s.locked(func(st *state) {
		if d := findDonorByUser(st, userID); d != nil {
			cp := *d
			out = &cp
		}
	})
	if out == nil {
		return nil, repository.ErrNotFound
	}
	return out, nil
}

func (r donorRepo) ListBadges(ctx context.Context, donorID int64) ([]string, error) {
	out := []string{}
	r.s.locked(func(st *state) {
		for _, b := range st.badges {
			if b.DonorID == donorID {
				out = append(out, b.BadgeName)
			}
		}
	})
	return out, nil
}

func (r donorRepo) ResetEligibility(ctx context.Context, cutoff time.Time) (int64, error) {
	var n int64
	day := model.DateOf(cutoff)
	r.s.locked(func(st *state) {
		for _, d := range st.donors {
			if !d.Eligible && d.LastDonationDate != nil && !d.LastDonationDate.After(day) {
				d.Eligible = true
				n++
			}
		}
	})
	return n, nil
}

func (r donorRepo) FindMatches(ctx context.Context, bloodGroup, city string) ([]model.DonorMatch, error) {
	out := []model.DonorMatch{}
	r.s.locked(func(st *state) {
		for _, d := range st.donors {
			u, ok := st.users[d.UserID]
			if !ok || !d.Eligible || d.BloodGroup != bloodGroup || u.City == nil || *u.City != city {
				continue
			}
			out = append(out, model.DonorMatch{DonorID: d.ID, FullName: u.FullName, Phone: u.Phone, Email: u.Email})
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].DonorID < out[j].DonorID })
	return out, nil
}

type donationRepo struct{ s *Store }

func (r donationRepo) ListByUser(ctx context.Context, userID int64) ([]*model.DonationHistoryEntry, error) {
	type row struct {
		id    int64
		entry *model.DonationHistoryEntry
	}
	var rows []row
	r.s.locked(func(st *state) {
		d := findDonorByUser(st, userID)
		if d == nil {
			return
		}
		for _, rec := range st.donations {
			if rec.DonorID != d.ID {
				continue
			}
			e := &model.DonationHistoryEntry{DonationDate: rec.DonationDate, QuantityUnits: rec.QuantityUnits}
			if b, ok := st.banks[rec.BloodBankID]; ok {
				e.BloodBankName, e.City = b.Name, b.City
			}
			rows = append(rows, row{rec.ID, e})
		}
	})
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].entry.DonationDate.Equal(rows[j].entry.DonationDate) {
			return rows[i].entry.DonationDate.After(rows[j].entry.DonationDate)
		}
		return rows[i].id > rows[j].id
	})
	out := make([]*model.DonationHistoryEntry, len(rows))
	for i, r := range rows {
		out[i] = r.entry
	}
	return out, nil
}

type requestRepo struct{ s *Store }

func (r requestRepo) Get(ctx context.Context, id int64) (*model.BloodRequest, error) {
	var out *model.BloodRequest
	r.s.locked(func(st *state) {
		if req, ok := st.requests[id]; ok {
			cp := *req
			out = &cp
		}
	})
	if out == nil {
		return nil, repository.ErrNotFound
	}
	return out, nil
}

func (r requestRepo) list(filter func(*model.BloodRequest) bool) []*model.BloodRequest {
	out := []*model.BloodRequest{}
	r.s.locked(func(st *state) {
		for _, req := range st.requests {
			if filter(req) {
				cp := *req
				out = append(out, &cp)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].RequestDate.Equal(out[j].RequestDate) {
			return out[i].RequestDate.After(out[j].RequestDate)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (r requestRepo) List(ctx context.Context) ([]*model.BloodRequest, error) {
	return r.list(func(*model.BloodRequest) bool { return true }), nil
}

func (r requestRepo) ListByUser(ctx context.Context, userID int64) ([]*model.BloodRequest, error) {
	return r.list(func(req *model.BloodRequest) bool { return req.UserID == userID }), nil
}

func (r requestRepo) UpdateStatusFrom(ctx context.Context, id int64, from, to model.RequestStatus) error {
	var err error
	r.s.locked(func(st *state) {
		req, ok := st.requests[id]
		if !ok || req.Status != from {
			err = repository.ErrNotFound
			return
		}
		req.Status = to
	})
	return err
}

func (r requestRepo) CountByStatus(ctx context.Context, status model.RequestStatus) (int, error) {
	var n int
	r.s.locked(func(st *state) {
		for _, req := range st.requests {
			if req.Status == status {
				n++
			}
		}
	})
	return n, nil
}

type outboxRepo struct{ s *Store }

func (r outboxRepo) Create(ctx context.Context, event *model.OutboxEvent) error {
	r.s.locked(func(st *state) {
		cp := *event
		st.outbox = append(st.outbox, &cp)
	})
	return nil
}

func (r outboxRepo) ProcessPending(ctx context.Context, limit int, fn func(*model.OutboxEvent) error) (int, int, error) {
	var pending []*model.OutboxEvent
	r.s.locked(func(st *state) {
		for _, e := range st.outbox {
			if e.Status == model.OutboxStatusPending && len(pending) < limit {
				pending = append(pending, e)
			}
		}
	})

	var processed, failed int
	for _, e := range pending {
		cp := *e
		err := fn(&cp)
		r.s.locked(func(st *state) {
			if err != nil {
				msg := err.Error()
				e.Status, e.ErrorMessage = model.OutboxStatusFailed, &msg
				e.RetryCount++
				failed++
				return
			}
			now := r.s.now()
			e.Status, e.ProcessedAt = model.OutboxStatusProcessed, &now
			processed++
		})
	}
	return processed, failed, nil
}

func (r outboxRepo) DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error) {
	var n int64
	r.s.locked(func(st *state) {
		kept := st.outbox[:0]
		for _, e := range st.outbox {
			if e.Status == model.OutboxStatusProcessed && e.ProcessedAt != nil && e.ProcessedAt.Before(before) {
				n++
				continue
			}
			kept = append(kept, e)
		}
		st.outbox = kept
	})
	return n, nil
}

// Package memory is an in-process implementation of the repository
// interfaces. Transactions are serialized and roll back by restoring a
// snapshot of the whole store.
package memory

import (
	"sync"
	"time"

	"github.com/jwalitptl/bloodbank-api/internal/model"
)

type state struct {
	users     map[int64]*model.User
	banks     map[int64]*model.BloodBank
	inventory map[int64]*model.InventoryUnit
	donors    map[int64]*model.Donor
	donations map[int64]*model.DonationRecord
	badges    []model.Badge
	requests  map[int64]*model.BloodRequest
	outbox    []*model.OutboxEvent

	nextUser, nextBank, nextUnit, nextDonor, nextDonation, nextRequest int64
}

func newState() *state {
	return &state{
		users:     map[int64]*model.User{},
		banks:     map[int64]*model.BloodBank{},
		inventory: map[int64]*model.InventoryUnit{},
		donors:    map[int64]*model.Donor{},
		donations: map[int64]*model.DonationRecord{},
		requests:  map[int64]*model.BloodRequest{},
	}
}

func (s *state) clone() *state {
	c := *s
	c.users = cloneMap(s.users)
	c.banks = cloneMap(s.banks)
	c.inventory = cloneMap(s.inventory)
	c.donors = cloneMap(s.donors)
	c.donations = cloneMap(s.donations)
	c.requests = cloneMap(s.requests)
	c.badges = append([]model.Badge(nil), s.badges...)
	c.outbox = make([]*model.OutboxEvent, len(s.outbox))
	for i, e := range s.outbox {
		cp := *e
		c.outbox[i] = &cp
	}
	return &c
}

func cloneMap[T any](m map[int64]*T) map[int64]*T {
	out := make(map[int64]*T, len(m))
	for k, v := range m {
		cp := *v
		out[k] = &cp
	}
	return out
}

// Store holds every table in memory.
type Store struct {
	mu    sync.Mutex
	st    *state
	fails map[string]error
	now   func() time.Time
}

func NewStore() *Store {
	return &Store{st: newState(), fails: map[string]error{}, now: time.Now}
}

// FailOn makes the named transactional operation return err until cleared
// with a nil err. Used to exercise rollback paths.
func (s *Store) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.fails, op)
		return
	}
	s.fails[op] = err
}

func (s *Store) failure(op string) error {
	return s.fails[op]
}

func (s *Store) locked(fn func(st *state)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.st)
}

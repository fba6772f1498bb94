package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"netchi-api-go/internal/models"
)

// MemoryStore is an in-process UserStore and OrderStore. A single mutex
// serializes every call, which makes UpdateBy* atomic per record.
type MemoryStore struct {
	mu     sync.Mutex
	users  map[uuid.UUID]*models.User
	orders map[uuid.UUID]*models.Order
	now    func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:  map[uuid.UUID]*models.User{},
		orders: map[uuid.UUID]*models.Order{},
		now:    time.Now,
	}
}

func (s *MemoryStore) findLocked(match func(*models.User) bool) *models.User {
	for _, u := range s.users {
		if match(u) {
			return u
		}
	}
	return nil
}

func (s *MemoryStore) lookup(match func(*models.User) bool) Lookup {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u := s.findLocked(match); u != nil {
		return Found(u.Clone())
	}
	return NotFound()
}

func (s *MemoryStore) FindByUsername(_ context.Context, username string) (Lookup, error) {
	return s.lookup(func(u *models.User) bool { return u.UserName == username }), nil
}

func (s *MemoryStore) FindByPhone(_ context.Context, phone string) (Lookup, error) {
	return s.lookup(func(u *models.User) bool { return u.PhoneNumber != nil && *u.PhoneNumber == phone }), nil
}

func (s *MemoryStore) FindByID(_ context.Context, id uuid.UUID) (Lookup, error) {
	return s.lookup(func(u *models.User) bool { return u.ID == id }), nil
}

// conflictLocked reports whether another record than u holds u's username or phone.
func (s *MemoryStore) conflictLocked(u *models.User) bool {
	return s.findLocked(func(o *models.User) bool {
		if o.ID == u.ID {
			return false
		}
		if o.UserName == u.UserName {
			return true
		}
		return u.PhoneNumber != nil && o.PhoneNumber != nil && *o.PhoneNumber == *u.PhoneNumber
	}) != nil
}

func (s *MemoryStore) Create(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.ID]; ok || s.conflictLocked(u) {
		return ErrConflict
	}
	now := s.now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	s.users[u.ID] = u.Clone()
	return nil
}

func (s *MemoryStore) update(match func(*models.User) bool, fn Mutator) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur := s.findLocked(match)
	if cur == nil {
		return nil, ErrNotFound
	}
	work := cur.Clone()
	if err := fn(work); err != nil {
		return nil, err
	}
	if s.conflictLocked(work) {
		return nil, ErrConflict
	}
	work.UpdatedAt = s.now().UTC()
	s.users[work.ID] = work
	return work.Clone(), nil
}

func (s *MemoryStore) UpdateByPhone(_ context.Context, phone string, fn Mutator) (*models.User, error) {
	return s.update(func(u *models.User) bool { return u.PhoneNumber != nil && *u.PhoneNumber == phone }, fn)
}

func (s *MemoryStore) UpdateByID(_ context.Context, id uuid.UUID, fn Mutator) (*models.User, error) {
	return s.update(func(u *models.User) bool { return u.ID == id }, fn)
}

func (s *MemoryStore) listOrders(match func(*models.Order) bool) []models.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Order{}
	for _, o := range s.orders {
		if match(o) {
			out = append(out, *o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (s *MemoryStore) ListOrders(_ context.Context) ([]models.Order, error) {
	return s.listOrders(func(*models.Order) bool { return true }), nil
}

func (s *MemoryStore) ListOrdersByUser(_ context.Context, userID uuid.UUID) ([]models.Order, error) {
	return s.listOrders(func(o *models.Order) bool { return o.UserID == userID }), nil
}

func (s *MemoryStore) GetOrder(_ context.Context, id uuid.UUID) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	c := *o
	return &c, nil
}

func (s *MemoryStore) CreateOrder(_ context.Context, o *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orders[o.ID]; ok {
		return ErrConflict
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = s.now().UTC()
	}
	c := *o
	s.orders[o.ID] = &c
	return nil
}

func (s *MemoryStore) SaveOrder(_ context.Context, o *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *o
	s.orders[o.ID] = &c
	return nil
}

func (s *MemoryStore) DeleteOrder(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orders[id]; !ok {
		return ErrNotFound
	}
	delete(s.orders, id)
	return nil
}

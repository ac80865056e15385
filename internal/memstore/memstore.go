// Package memstore keeps every repository in process memory. It backs
// STORE_DRIVER=memory and the HTTP end-to-end tests.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/tally/internal/category"
	"github.com/MrJamesThe3rd/tally/internal/matching"
	"github.com/MrJamesThe3rd/tally/internal/sale"
	"github.com/MrJamesThe3rd/tally/internal/user"
)

type Store struct {
	mu  sync.RWMutex
	seq uint64
	now func() time.Time

	users      map[uuid.UUID]*user.User
	categories map[uuid.UUID]*category.Category
	sales      map[uuid.UUID]*sale.Sale
	rules      []*matching.Rule

	// order records insertion sequence for newest-first listings.
	order map[uuid.UUID]uint64
}

func New() *Store {
	return &Store{
		now:        time.Now,
		users:      make(map[uuid.UUID]*user.User),
		categories: make(map[uuid.UUID]*category.Category),
		sales:      make(map[uuid.UUID]*sale.Sale),
		order:      make(map[uuid.UUID]uint64),
	}
}

func (s *Store) stamp(id uuid.UUID) {
	s.seq++
	s.order[id] = s.seq
}

func (s *Store) newestFirst(ids []uuid.UUID) {
	sort.Slice(ids, func(i, j int) bool { return s.order[ids[i]] > s.order[ids[j]] })
}

// Users

func (s *Store) CreateUser(_ context.Context, u *user.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Username == u.Username {
			return user.ErrUsernameTaken
		}
	}

	u.ID = uuid.New()
	u.CreatedAt = s.now()

	cp := *u
	s.users[u.ID] = &cp
	s.stamp(u.ID)

	return nil
}

func (s *Store) GetUser(_ context.Context, id uuid.UUID) (*user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, user.ErrNotFound
	}

	cp := *u

	return &cp, nil
}

func (s *Store) GetUserByUsername(_ context.Context, username string) (*user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}

	return nil, user.ErrNotFound
}

func (s *Store) UpdatePasswordHash(_ context.Context, id uuid.UUID, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return user.ErrNotFound
	}

	now := s.now()
	u.PasswordHash = hash
	u.UpdatedAt = &now

	return nil
}

// Categories

func (s *Store) nameTaken(name string, except uuid.UUID) bool {
	for id, c := range s.categories {
		if id != except && c.Name == name {
			return true
		}
	}

	return false
}

func (s *Store) CreateCategory(_ context.Context, c *category.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.nameTaken(c.Name, uuid.Nil) {
		return category.ErrNameTaken
	}

	c.ID = uuid.New()
	c.CreatedAt = s.now()

	cp := *c
	s.categories[c.ID] = &cp
	s.stamp(c.ID)

	return nil
}

func (s *Store) GetCategory(_ context.Context, id uuid.UUID) (*category.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.categories[id]
	if !ok {
		return nil, category.ErrNotFound
	}

	cp := *c

	return &cp, nil
}

func (s *Store) GetCategoryByName(_ context.Context, name string) (*category.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var match *category.Category

	for _, c := range s.categories {
		if c.Name == name {
			match = c
			break
		}

		if strings.EqualFold(c.Name, name) && (match == nil || c.CreatedAt.Before(match.CreatedAt)) {
			match = c
		}
	}

	if match == nil {
		return nil, category.ErrNotFound
	}

	cp := *match

	return &cp, nil
}

func (s *Store) ListCategories(_ context.Context) ([]*category.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]uuid.UUID, 0, len(s.categories))
	for id := range s.categories {
		ids = append(ids, id)
	}

	s.newestFirst(ids)

	out := make([]*category.Category, 0, len(ids))
	for _, id := range ids {
		cp := *s.categories[id]
		out = append(out, &cp)
	}

	return out, nil
}

func (s *Store) UpdateCategory(_ context.Context, c *category.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.categories[c.ID]
	if !ok {
		return category.ErrNotFound
	}

	if s.nameTaken(c.Name, c.ID) {
		return category.ErrNameTaken
	}

	now := s.now()
	stored.Name = c.Name
	stored.UpdatedAt = &now
	c.UpdatedAt = &now

	return nil
}

func (s *Store) DeleteCategory(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.categories[id]; !ok {
		return category.ErrNotFound
	}

	delete(s.categories, id)
	delete(s.order, id)

	return nil
}

// Sales

// withCategory returns a copy of sl with its category resolved, as the
// Postgres store's LEFT JOIN does.
func (s *Store) withCategory(sl *sale.Sale) *sale.Sale {
	cp := *sl
	cp.Category = nil

	if cp.CategoryID != nil {
		id := *cp.CategoryID
		cp.CategoryID = &id

		if c, ok := s.categories[id]; ok {
			cat := *c
			cp.Category = &cat
		}
	}

	return &cp
}

func (s *Store) insertSale(sl *sale.Sale) {
	now := s.now()
	sl.ID = uuid.New()
	sl.CreatedAt = now
	sl.UpdatedAt = now

	stored := *sl
	stored.Category = nil
	s.sales[sl.ID] = &stored
	s.stamp(sl.ID)
}

func (s *Store) CreateSale(_ context.Context, sl *sale.Sale) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.insertSale(sl)

	return nil
}

func (s *Store) GetSale(_ context.Context, id uuid.UUID) (*sale.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sl, ok := s.sales[id]
	if !ok {
		return nil, sale.ErrNotFound
	}

	return s.withCategory(sl), nil
}

func (s *Store) ListSales(_ context.Context, filter sale.ListFilter) ([]*sale.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]uuid.UUID, 0, len(s.sales))

	for id, sl := range s.sales {
		if filter.StartDate != nil && sl.Date.Before(*filter.StartDate) {
			continue
		}

		if filter.EndDate != nil && sl.Date.After(*filter.EndDate) {
			continue
		}

		ids = append(ids, id)
	}

	s.newestFirst(ids)

	out := make([]*sale.Sale, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.withCategory(s.sales[id]))
	}

	return out, nil
}

func (s *Store) UpdateSale(_ context.Context, sl *sale.Sale) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sales[sl.ID]; !ok {
		return sale.ErrNotFound
	}

	sl.UpdatedAt = s.now()

	stored := *sl
	stored.Category = nil
	s.sales[sl.ID] = &stored

	return nil
}

func (s *Store) DeleteSale(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sales[id]; !ok {
		return sale.ErrNotFound
	}

	delete(s.sales, id)
	delete(s.order, id)

	return nil
}

// importTx buffers sales and inserts them all at once on Commit.
type importTx struct {
	store   *Store
	pending []*sale.Sale
	done    bool
}

func (s *Store) BeginImport(_ context.Context) (sale.ImportTx, error) {
	return &importTx{store: s}, nil
}

func (t *importTx) CreateSales(_ context.Context, sales []*sale.Sale) error {
	t.pending = append(t.pending, sales...)
	return nil
}

func (t *importTx) Commit() error {
	if t.done {
		return nil
	}

	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	for _, sl := range t.pending {
		t.store.insertSale(sl)
	}

	t.done = true

	return nil
}

func (t *importTx) Rollback() error {
	t.pending = nil
	t.done = true

	return nil
}

// Category rules

func (s *Store) FindMatch(_ context.Context, itemName string) (*uuid.UUID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	name := strings.ToLower(itemName)

	var best *matching.Rule

	for _, r := range s.rules {
		if !strings.Contains(name, strings.ToLower(r.Pattern)) {
			continue
		}

		// Later rules win ties, matching created_at DESC.
		if best == nil || len(r.Pattern) >= len(best.Pattern) {
			best = r
		}
	}

	if best == nil {
		return nil, nil
	}

	id := best.CategoryID

	return &id, nil
}

func (s *Store) CreateRule(_ context.Context, r *matching.Rule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r.ID = uuid.New()
	r.CreatedAt = s.now()

	cp := *r
	s.rules = append(s.rules, &cp)

	return nil
}

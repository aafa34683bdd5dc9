// Package memory is an in-process implementation of the repository
// interfaces. It is safe for concurrent use and backs tests and the
// STORAGE=memory development mode.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"store-rating-server/entities"
	"store-rating-server/repositories"
)

type Store struct {
	mu      sync.RWMutex
	users   map[string]entities.User
	stores  map[string]entities.Store
	ratings map[string]entities.Rating
	now     func() time.Time
}

var (
	_ repositories.UserRepository   = userRepo{}
	_ repositories.StoreRepository  = storeRepo{}
	_ repositories.RatingRepository = ratingRepo{}
)

func New() *Store {
	return &Store{
		users:   make(map[string]entities.User),
		stores:  make(map[string]entities.Store),
		ratings: make(map[string]entities.Rating),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) Users() repositories.UserRepository     { return userRepo{s} }
func (s *Store) Stores() repositories.StoreRepository   { return storeRepo{s} }
func (s *Store) Ratings() repositories.RatingRepository { return ratingRepo{s} }

// tickLocked returns a strictly increasing timestamp so newest-first ordering is
// deterministic even for writes within the same clock reading.
func (s *Store) tickLocked(last time.Time) time.Time {
	now := s.now()
	if !now.After(last) {
		now = last.Add(time.Microsecond)
	}
	return now
}

func (s *Store) latestLocked() time.Time {
	var latest time.Time
	for _, r := range s.ratings {
		if r.UpdatedAt.After(latest) {
			latest = r.UpdatedAt
		}
	}
	return latest
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

// Users ----------------------------------------------------------------------

type userRepo struct{ s *Store }

func (r userRepo) Create(_ context.Context, user *entities.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if u.Email == user.Email {
			return repositories.ErrDuplicate
		}
	}
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.Role == "" {
		user.Role = entities.RoleNormalUser
	}
	user.CreatedAt = r.s.now()
	user.UpdatedAt = user.CreatedAt
	r.s.users[user.ID] = *user
	return nil
}

func (r userRepo) GetByID(_ context.Context, id string) (*entities.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &u, nil
}

func (r userRepo) GetByEmail(_ context.Context, email string) (*entities.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r userRepo) List(_ context.Context, filter repositories.UserFilter) ([]entities.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]entities.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		if filter.Role != "" && u.Role != filter.Role {
			continue
		}
		if filter.Search != "" && !containsFold(u.Name, filter.Search) &&
			!containsFold(u.Email, filter.Search) && !containsFold(u.Address, filter.Search) {
			continue
		}
		out = append(out, u)
	}

	key := func(u entities.User) string { return u.Name }
	switch filter.SortBy {
	case repositories.SortByEmail:
		key = func(u entities.User) string { return u.Email }
	case repositories.SortByRole:
		key = func(u entities.User) string { return string(u.Role) + "\x00" + u.Name }
	case repositories.SortByAddress:
		key = func(u entities.User) string { return u.Address }
	}
	sort.SliceStable(out, func(i, j int) bool { return key(out[i]) < key(out[j]) })
	return out, nil
}

func (r userRepo) UpdatePassword(_ context.Context, id, hash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return repositories.ErrNotFound
	}
	u.PasswordHash = hash
	u.UpdatedAt = r.s.now()
	r.s.users[id] = u
	return nil
}

func (r userRepo) Count(_ context.Context) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return int64(len(r.s.users)), nil
}

// Stores ---------------------------------------------------------------------

type storeRepo struct{ s *Store }

func (r storeRepo) Create(_ context.Context, store *entities.Store) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if store.ID == "" {
		store.ID = uuid.New().String()
	}
	store.CreatedAt = r.s.now()
	store.UpdatedAt = store.CreatedAt
	r.s.stores[store.ID] = *store
	return nil
}

func (r storeRepo) GetByID(_ context.Context, id string) (*entities.Store, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	st, ok := r.s.stores[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &st, nil
}

func (r storeRepo) List(_ context.Context, filter repositories.StoreFilter) ([]entities.Store, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]entities.Store, 0, len(r.s.stores))
	for _, st := range r.s.stores {
		if filter.Search != "" && !containsFold(st.Name, filter.Search) && !containsFold(st.Address, filter.Search) {
			continue
		}
		out = append(out, st)
	}
	if filter.SortBy == repositories.SortByAddress {
		sort.SliceStable(out, func(i, j int) bool { return out[i].Address < out[j].Address })
	} else {
		sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	}
	return out, nil
}

func (r storeRepo) ListByOwner(_ context.Context, ownerID string) ([]entities.Store, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []entities.Store
	for _, st := range r.s.stores {
		if st.OwnerID != nil && *st.OwnerID == ownerID {
			out = append(out, st)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r storeRepo) Count(_ context.Context) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return int64(len(r.s.stores)), nil
}

// Ratings --------------------------------------------------------------------

type ratingRepo struct{ s *Store }

// Upsert holds the write lock across lookup and write, matching the
// single-statement guarantee of the Postgres implementation.
func (r ratingRepo) Upsert(_ context.Context, userID, storeID string, rating int) (repositories.UpsertResult, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := r.s.tickLocked(r.s.latestLocked())
	for id, existing := range r.s.ratings {
		if existing.UserID == userID && existing.StoreID == storeID {
			existing.Rating = rating
			existing.UpdatedAt = now
			r.s.ratings[id] = existing
			return repositories.UpsertResult{ID: id, Inserted: false}, nil
		}
	}

	rt := entities.Rating{
		ID:        uuid.New().String(),
		UserID:    userID,
		StoreID:   storeID,
		Rating:    rating,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.s.ratings[rt.ID] = rt
	return repositories.UpsertResult{ID: rt.ID, Inserted: true}, nil
}

func (r ratingRepo) GetByUserAndStore(_ context.Context, userID, storeID string) (*entities.Rating, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, rt := range r.s.ratings {
		if rt.UserID == userID && rt.StoreID == storeID {
			return &rt, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r ratingRepo) ValuesByStore(_ context.Context, storeID string) ([]int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var values []int
	for _, rt := range r.s.ratings {
		if rt.StoreID == storeID {
			values = append(values, rt.Rating)
		}
	}
	return values, nil
}

func (r ratingRepo) ListByStoreWithUser(_ context.Context, storeID string) ([]entities.RatingWithUser, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []entities.RatingWithUser{}
	for _, rt := range r.s.ratings {
		if rt.StoreID != storeID {
			continue
		}
		u, ok := r.s.users[rt.UserID]
		if !ok {
			continue
		}
		out = append(out, entities.RatingWithUser{
			ID:        rt.ID,
			Rating:    rt.Rating,
			CreatedAt: rt.CreatedAt,
			UpdatedAt: rt.UpdatedAt,
			Name:      u.Name,
			Email:     u.Email,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r ratingRepo) Count(_ context.Context) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return int64(len(r.s.ratings)), nil
}

package repositories

import (
	"context"
	"errors"
	"strings"

	"store-rating-server/entities"
)

var (
	// ErrNotFound is returned when a single-row lookup matches nothing.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when an insert violates a unique key.
	ErrDuplicate = errors.New("duplicate record")
)

// Sort keys accepted by the list operations.
const (
	SortByName    = "name"
	SortByEmail   = "email"
	SortByRole    = "role"
	SortByAddress = "address"
	SortByRating  = "rating"
)

type UserFilter struct {
	Role   entities.Role
	Search string
	SortBy string
}

type StoreFilter struct {
	Search string
	SortBy string
}

// UpsertResult tells whether Upsert created the row or overwrote an existing one.
type UpsertResult struct {
	ID       string
	Inserted bool
}

type UserRepository interface {
	Create(ctx context.Context, user *entities.User) error
	GetByID(ctx context.Context, id string) (*entities.User, error)
	GetByEmail(ctx context.Context, email string) (*entities.User, error)
	List(ctx context.Context, filter UserFilter) ([]entities.User, error)
	UpdatePassword(ctx context.Context, id, hash string) error
	Count(ctx context.Context) (int64, error)
}

type StoreRepository interface {
	Create(ctx context.Context, store *entities.Store) error
	GetByID(ctx context.Context, id string) (*entities.Store, error)
	List(ctx context.Context, filter StoreFilter) ([]entities.Store, error)
	ListByOwner(ctx context.Context, ownerID string) ([]entities.Store, error)
	Count(ctx context.Context) (int64, error)
}

type RatingRepository interface {
	Upsert(ctx context.Context, userID, storeID string, rating int) (UpsertResult, error)
	GetByUserAndStore(ctx context.Context, userID, storeID string) (*entities.Rating, error)
	ValuesByStore(ctx context.Context, storeID string) ([]int, error)
	ListByStoreWithUser(ctx context.Context, storeID string) ([]entities.RatingWithUser, error)
	Count(ctx context.Context) (int64, error)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern turns a search term into an ILIKE substring pattern.
func containsPattern(search string) string {
	return "%" + likeEscaper.Replace(search) + "%"
}

package usecases

import (
	"context"
	"errors"

	"store-rating-server/auth"
	"store-rating-server/entities"
	"store-rating-server/repositories"
	"store-rating-server/validation"
)

type UserUseCase struct {
	users   repositories.UserRepository
	stores  repositories.StoreRepository
	ratings repositories.RatingRepository
	hasher  *auth.PasswordHasher
}

func NewUserUseCase(users repositories.UserRepository, stores repositories.StoreRepository, ratings repositories.RatingRepository, hasher *auth.PasswordHasher) *UserUseCase {
	return &UserUseCase{users: users, stores: stores, ratings: ratings, hasher: hasher}
}

// UpdatePassword replaces the password after verifying the current one.
func (uc *UserUseCase) UpdatePassword(ctx context.Context, userID, current, next string) error {
	user, err := uc.users.GetByID(ctx, userID)
	if errors.Is(err, repositories.ErrNotFound) {
		return notFoundError("User not found")
	}
	if err != nil {
		return internalError("Failed to update password", err)
	}
	if !uc.hasher.Check(current, user.PasswordHash) {
		return authError("Current password is incorrect")
	}
	var verr *validation.Error
	if err := validation.ValidatePassword(next); errors.As(err, &verr) {
		return validationError(verr.Message)
	}

	hash, err := uc.hasher.Hash(next)
	if err != nil {
		return internalError("Failed to update password", err)
	}
	if err := uc.users.UpdatePassword(ctx, userID, hash); errors.Is(err, repositories.ErrNotFound) {
		return notFoundError("User not found")
	} else if err != nil {
		return internalError("Failed to update password", err)
	}
	return nil
}

type ListUsersInput struct {
	SortBy     string
	FilterRole string
	Search     string
}

func (uc *UserUseCase) List(ctx context.Context, in ListUsersInput) ([]entities.User, error) {
	filter := repositories.UserFilter{SortBy: in.SortBy, Search: in.Search}
	if in.FilterRole != "" {
		role, err := entities.ParseRole(in.FilterRole)
		if err != nil {
			return nil, validationError("Invalid role filter")
		}
		filter.Role = role
	}
	users, err := uc.users.List(ctx, filter)
	if err != nil {
		return nil, internalError("Failed to fetch users", err)
	}
	if users == nil {
		users = []entities.User{}
	}
	return users, nil
}

// UserDetail is a user as shown on its detail page. Store owners also list
// the stores they own with their rating aggregates.
type UserDetail struct {
	entities.User
	Stores []entities.StoreSummary `json:"stores,omitempty"`
}

func (uc *UserUseCase) Get(ctx context.Context, id string) (*UserDetail, error) {
	user, err := uc.users.GetByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, notFoundError("User not found")
	}
	if err != nil {
		return nil, internalError("Failed to fetch user", err)
	}

	detail := &UserDetail{User: *user}
	if user.Role == entities.RoleStoreOwner {
		stores, err := uc.stores.ListByOwner(ctx, user.ID)
		if err != nil {
			return nil, internalError("Failed to fetch user", err)
		}
		detail.Stores, err = summarize(ctx, uc.ratings, stores, DefaultFanOut)
		if err != nil {
			return nil, internalError("Failed to fetch user", err)
		}
	}
	return detail, nil
}

// Create is the admin path for adding an account of any role.
func (uc *UserUseCase) Create(ctx context.Context, in SignupInput) (*entities.User, error) {
	role, err := roleOrDefault(in.Role)
	if err != nil {
		return nil, err
	}
	if _, err := uc.users.GetByEmail(ctx, in.Email); err == nil {
		return nil, conflictError("Email already exists")
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, internalError("Failed to create user", err)
	}

	user, err := createUser(ctx, uc.users, uc.hasher, in, role)
	if errors.Is(err, repositories.ErrDuplicate) {
		return nil, conflictError("Email already exists")
	}
	if err != nil {
		return nil, internalError("Failed to create user", err)
	}
	return user, nil
}

type Stats struct {
	TotalUsers   int64 `json:"total_users"`
	TotalStores  int64 `json:"total_stores"`
	TotalRatings int64 `json:"total_ratings"`
}

func (uc *UserUseCase) Stats(ctx context.Context) (*Stats, error) {
	var (
		s   Stats
		err error
	)
	if s.TotalUsers, err = uc.users.Count(ctx); err != nil {
		return nil, internalError("Failed to fetch stats", err)
	}
	if s.TotalStores, err = uc.stores.Count(ctx); err != nil {
		return nil, internalError("Failed to fetch stats", err)
	}
	if s.TotalRatings, err = uc.ratings.Count(ctx); err != nil {
		return nil, internalError("Failed to fetch stats", err)
	}
	return &s, nil
}

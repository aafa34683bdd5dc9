package usecases

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"store-rating-server/entities"
	"store-rating-server/repositories"
	"store-rating-server/validation"
)

// DefaultFanOut bounds the concurrent per-store rating queries of a listing.
const DefaultFanOut = 8

type StoreUseCase struct {
	stores  repositories.StoreRepository
	users   repositories.UserRepository
	ratings repositories.RatingRepository
	fanOut  int
}

func NewStoreUseCase(stores repositories.StoreRepository, users repositories.UserRepository, ratings repositories.RatingRepository) *StoreUseCase {
	return &StoreUseCase{stores: stores, users: users, ratings: ratings, fanOut: DefaultFanOut}
}

type CreateStoreInput struct {
	Name    string
	Address string
	Email   string
	OwnerID string
}

func (uc *StoreUseCase) Create(ctx context.Context, in CreateStoreInput) (*entities.Store, error) {
	var verr *validation.Error
	if err := validation.ValidateStore(in.Name, in.Address); errors.As(err, &verr) {
		return nil, validationError(verr.Message)
	}
	if in.Email != "" {
		if err := validation.ValidateEmail(in.Email); errors.As(err, &verr) {
			return nil, validationError(verr.Message)
		}
	}

	store := &entities.Store{Name: in.Name, Address: in.Address, Email: in.Email}
	if in.OwnerID != "" {
		if _, err := uc.users.GetByID(ctx, in.OwnerID); errors.Is(err, repositories.ErrNotFound) {
			return nil, validationError("Owner not found")
		} else if err != nil {
			return nil, internalError("Failed to create store", err)
		}
		owner := in.OwnerID
		store.OwnerID = &owner
	}

	if err := uc.stores.Create(ctx, store); err != nil {
		return nil, internalError("Failed to create store", err)
	}
	return store, nil
}

// List returns stores with their derived rating aggregates. sortBy "rating"
// orders by average rating, highest first.
func (uc *StoreUseCase) List(ctx context.Context, search, sortBy string) ([]entities.StoreSummary, error) {
	stores, err := uc.stores.List(ctx, repositories.StoreFilter{Search: search, SortBy: sortBy})
	if err != nil {
		return nil, internalError("Failed to fetch stores", err)
	}
	summaries, err := summarize(ctx, uc.ratings, stores, uc.fanOut)
	if err != nil {
		return nil, internalError("Failed to fetch stores", err)
	}
	if sortBy == repositories.SortByRating {
		sort.SliceStable(summaries, func(i, j int) bool {
			return summaries[i].AverageRating > summaries[j].AverageRating
		})
	}
	return summaries, nil
}

func (uc *StoreUseCase) Get(ctx context.Context, id string) (*entities.StoreSummary, error) {
	store, err := uc.stores.GetByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, notFoundError("Store not found")
	}
	if err != nil {
		return nil, internalError("Failed to fetch store", err)
	}
	summaries, err := summarize(ctx, uc.ratings, []entities.Store{*store}, 1)
	if err != nil {
		return nil, internalError("Failed to fetch store", err)
	}
	return &summaries[0], nil
}

// OwnedStore is a store on its owner's dashboard, with every rating it received.
type OwnedStore struct {
	entities.StoreSummary
	Ratings []entities.RatingWithUser `json:"ratings"`
}

func (uc *StoreUseCase) OwnerDashboard(ctx context.Context, ownerID string) ([]OwnedStore, error) {
	stores, err := uc.stores.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, internalError("Failed to fetch stores", err)
	}
	summaries, err := summarize(ctx, uc.ratings, stores, uc.fanOut)
	if err != nil {
		return nil, internalError("Failed to fetch stores", err)
	}

	out := make([]OwnedStore, len(summaries))
	for i, s := range summaries {
		ratings, err := uc.ratings.ListByStoreWithUser(ctx, s.ID)
		if err != nil {
			return nil, internalError("Failed to fetch ratings", err)
		}
		out[i] = OwnedStore{StoreSummary: s, Ratings: ratings}
	}
	return out, nil
}

// summarize fetches each store's ratings concurrently and attaches count and
// mean. Any failed fetch fails the whole call.
func summarize(ctx context.Context, ratings repositories.RatingRepository, stores []entities.Store, limit int) ([]entities.StoreSummary, error) {
	out := make([]entities.StoreSummary, len(stores))
	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i := range stores {
		i := i
		g.Go(func() error {
			values, err := ratings.ValuesByStore(gctx, stores[i].ID)
			if err != nil {
				return fmt.Errorf("ratings of store %s: %w", stores[i].ID, err)
			}
			agg := entities.Aggregate(values)
			out[i] = entities.StoreSummary{Store: stores[i], TotalRatings: agg.Total, AverageRating: agg.Average}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

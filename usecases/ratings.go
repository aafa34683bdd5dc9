package usecases

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"store-rating-server/entities"
	"store-rating-server/metrics"
	"store-rating-server/repositories"
)

// SummaryPublisher receives a store's fresh aggregate after each rating write.
type SummaryPublisher interface {
	Publish(storeID string, agg entities.RatingAggregate)
}

type RatingUseCase struct {
	ratings   repositories.RatingRepository
	stores    repositories.StoreRepository
	publisher SummaryPublisher
	log       logrus.FieldLogger
}

func NewRatingUseCase(ratings repositories.RatingRepository, stores repositories.StoreRepository, publisher SummaryPublisher, log logrus.FieldLogger) *RatingUseCase {
	return &RatingUseCase{ratings: ratings, stores: stores, publisher: publisher, log: log}
}

// Submit creates the caller's rating for the store or overwrites the one they
// already gave. created reports which of the two happened.
func (uc *RatingUseCase) Submit(ctx context.Context, userID, storeID string, rating int) (created bool, err error) {
	if storeID == "" {
		return false, validationError("storeId is required")
	}
	if !entities.ValidRating(rating) {
		return false, validationError("Rating must be between 1 and 5")
	}
	if _, err := uc.stores.GetByID(ctx, storeID); errors.Is(err, repositories.ErrNotFound) {
		return false, notFoundError("Store not found")
	} else if err != nil {
		return false, internalError("Failed to submit rating", err)
	}

	res, err := uc.ratings.Upsert(ctx, userID, storeID, rating)
	if err != nil {
		metrics.RatingWritten("error")
		return false, internalError("Failed to submit rating", err)
	}
	if res.Inserted {
		metrics.RatingWritten("created")
	} else {
		metrics.RatingWritten("updated")
	}

	uc.publish(ctx, storeID)
	return res.Inserted, nil
}

// publish is best effort; the rating is already stored.
func (uc *RatingUseCase) publish(ctx context.Context, storeID string) {
	if uc.publisher == nil {
		return
	}
	values, err := uc.ratings.ValuesByStore(ctx, storeID)
	if err != nil {
		uc.log.WithError(err).WithField("store_id", storeID).Warn("could not refresh rating summary")
		return
	}
	uc.publisher.Publish(storeID, entities.Aggregate(values))
}

func (uc *RatingUseCase) GetUserRating(ctx context.Context, userID, storeID string) (*entities.Rating, error) {
	rating, err := uc.ratings.GetByUserAndStore(ctx, userID, storeID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, notFoundError("No rating found")
	}
	if err != nil {
		return nil, internalError("Failed to fetch rating", err)
	}
	return rating, nil
}

func (uc *RatingUseCase) ListForStore(ctx context.Context, storeID string) ([]entities.RatingWithUser, error) {
	ratings, err := uc.ratings.ListByStoreWithUser(ctx, storeID)
	if err != nil {
		return nil, internalError("Failed to fetch ratings", err)
	}
	if ratings == nil {
		ratings = []entities.RatingWithUser{}
	}
	return ratings, nil
}

// Summary is the current aggregate of a store, or NotFound.
func (uc *RatingUseCase) Summary(ctx context.Context, storeID string) (entities.RatingAggregate, error) {
	if _, err := uc.stores.GetByID(ctx, storeID); errors.Is(err, repositories.ErrNotFound) {
		return entities.RatingAggregate{}, notFoundError("Store not found")
	} else if err != nil {
		return entities.RatingAggregate{}, internalError("Failed to fetch store", err)
	}
	values, err := uc.ratings.ValuesByStore(ctx, storeID)
	if err != nil {
		return entities.RatingAggregate{}, internalError("Failed to fetch ratings", err)
	}
	return entities.Aggregate(values), nil
}

package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"

	"store-rating-server/db"
	"store-rating-server/entities"
)

type ratingPgRepository struct {
	db db.Database
}

func NewRatingPgRepository(database db.Database) RatingRepository {
	return &ratingPgRepository{db: database}
}

// xmax is zero only for a freshly inserted row version.
const upsertRatingSQL = `INSERT INTO ratings (id, user_id, store_id, rating, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (user_id, store_id) DO UPDATE SET rating = EXCLUDED.rating, updated_at = EXCLUDED.updated_at
RETURNING id, (xmax = 0) AS inserted`

// Upsert writes the rating in one statement keyed by the (user_id, store_id)
// unique index, so concurrent submissions never produce a second row.
func (r *ratingPgRepository) Upsert(ctx context.Context, userID, storeID string, rating int) (UpsertResult, error) {
	now := time.Now().UTC()
	var res UpsertResult
	err := r.db.GetDB().WithContext(ctx).
		Raw(upsertRatingSQL, uuid.New().String(), userID, storeID, rating, now, now).
		Scan(&res).Error
	return res, err
}

func (r *ratingPgRepository) GetByUserAndStore(ctx context.Context, userID, storeID string) (*entities.Rating, error) {
	var rating entities.Rating
	err := r.db.GetDB().WithContext(ctx).
		Where("user_id = ? AND store_id = ?", userID, storeID).
		First(&rating).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &rating, nil
}

func (r *ratingPgRepository) ValuesByStore(ctx context.Context, storeID string) ([]int, error) {
	var values []int
	err := r.db.GetDB().WithContext(ctx).Model(&entities.Rating{}).
		Where("store_id = ?", storeID).
		Pluck("rating", &values).Error
	return values, err
}

// ListByStoreWithUser returns the store's ratings with their authors, newest first.
func (r *ratingPgRepository) ListByStoreWithUser(ctx context.Context, storeID string) ([]entities.RatingWithUser, error) {
	var out []entities.RatingWithUser
	err := r.db.GetDB().WithContext(ctx).
		Table("ratings").
		Select("ratings.id, ratings.rating, ratings.created_at, ratings.updated_at, users.name, users.email").
		Joins("JOIN users ON users.id = ratings.user_id").
		Where("ratings.store_id = ?", storeID).
		Order("ratings.created_at DESC").
		Scan(&out).Error
	return out, err
}

func (r *ratingPgRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.GetDB().WithContext(ctx).Model(&entities.Rating{}).Count(&n).Error
	return n, err
}

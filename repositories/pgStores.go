package repositories

import (
	"context"

	"store-rating-server/db"
	"store-rating-server/entities"
)

type storePgRepository struct {
	db db.Database
}

func NewStorePgRepository(database db.Database) StoreRepository {
	return &storePgRepository{db: database}
}

func (r *storePgRepository) Create(ctx context.Context, store *entities.Store) error {
	return r.db.GetDB().WithContext(ctx).Create(store).Error
}

func (r *storePgRepository) GetByID(ctx context.Context, id string) (*entities.Store, error) {
	var store entities.Store
	err := r.db.GetDB().WithContext(ctx).Where("id = ?", id).First(&store).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &store, nil
}

// List applies search and the SQL-side sort keys. Sorting by rating happens
// after aggregation, so here it falls back to name order.
func (r *storePgRepository) List(ctx context.Context, filter StoreFilter) ([]entities.Store, error) {
	q := r.db.GetDB().WithContext(ctx).Model(&entities.Store{})
	if filter.Search != "" {
		p := containsPattern(filter.Search)
		q = q.Where("name ILIKE ? OR address ILIKE ?", p, p)
	}
	if filter.SortBy == SortByAddress {
		q = q.Order("address ASC")
	} else {
		q = q.Order("name ASC")
	}

	var stores []entities.Store
	err := q.Find(&stores).Error
	return stores, err
}

func (r *storePgRepository) ListByOwner(ctx context.Context, ownerID string) ([]entities.Store, error) {
	var stores []entities.Store
	err := r.db.GetDB().WithContext(ctx).Where("owner_id = ?", ownerID).Order("name ASC").Find(&stores).Error
	return stores, err
}

func (r *storePgRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.GetDB().WithContext(ctx).Model(&entities.Store{}).Count(&n).Error
	return n, err
}

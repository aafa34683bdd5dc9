package repositories

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"store-rating-server/db"
	"store-rating-server/entities"
)

type userPgRepository struct {
	db db.Database
}

func NewUserPgRepository(database db.Database) UserRepository {
	return &userPgRepository{db: database}
}

func (r *userPgRepository) Create(ctx context.Context, user *entities.User) error {
	err := r.db.GetDB().WithContext(ctx).Create(user).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	return err
}

func (r *userPgRepository) GetByID(ctx context.Context, id string) (*entities.User, error) {
	var user entities.User
	err := r.db.GetDB().WithContext(ctx).Where("id = ?", id).First(&user).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (r *userPgRepository) GetByEmail(ctx context.Context, email string) (*entities.User, error) {
	var user entities.User
	err := r.db.GetDB().WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (r *userPgRepository) List(ctx context.Context, filter UserFilter) ([]entities.User, error) {
	q := r.db.GetDB().WithContext(ctx).Model(&entities.User{})
	if filter.Role != "" {
		q = q.Where("role = ?", filter.Role)
	}
	if filter.Search != "" {
		p := containsPattern(filter.Search)
		q = q.Where("name ILIKE ? OR email ILIKE ? OR address ILIKE ?", p, p, p)
	}

	switch filter.SortBy {
	case SortByEmail:
		q = q.Order("email ASC")
	case SortByRole:
		q = q.Order("role ASC").Order("name ASC")
	case SortByAddress:
		q = q.Order("address ASC")
	default:
		q = q.Order("name ASC")
	}

	var users []entities.User
	err := q.Find(&users).Error
	return users, err
}

func (r *userPgRepository) UpdatePassword(ctx context.Context, id, hash string) error {
	res := r.db.GetDB().WithContext(ctx).Model(&entities.User{}).Where("id = ?", id).Update("password", hash)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *userPgRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.GetDB().WithContext(ctx).Model(&entities.User{}).Count(&n).Error
	return n, err
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	return err
}

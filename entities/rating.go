package entities

import (
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	MinRating = 1
	MaxRating = 5
)

// Rating is one user's star rating of one store. (user_id, store_id) is unique.
type Rating struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID    string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_ratings_user_store" json:"user_id"`
	StoreID   string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_ratings_user_store;index" json:"store_id"`
	Rating    int       `gorm:"not null;check:chk_ratings_range,rating >= 1 AND rating <= 5" json:"rating"`
	User      *User     `gorm:"foreignKey:UserID" json:"-"`
	Store     *Store    `gorm:"foreignKey:StoreID" json:"-"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (r *Rating) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return
}

// ValidRating reports whether v is an accepted star value.
func ValidRating(v int) bool {
	return v >= MinRating && v <= MaxRating
}

// RatingWithUser is a rating joined with the name and email of its author.
type RatingWithUser struct {
	ID        string    `json:"id"`
	Rating    int       `json:"rating"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
}

// RatingAggregate is the derived count and mean of a store's ratings.
type RatingAggregate struct {
	Total   int
	Average float64
}

// Aggregate computes count and mean rounded to one decimal. An empty set
// yields zero for both.
func Aggregate(values []int) RatingAggregate {
	if len(values) == 0 {
		return RatingAggregate{}
	}
	sum := 0
	for _, v := range values {
		sum += v
	}
	mean := float64(sum) / float64(len(values))
	return RatingAggregate{
		Total:   len(values),
		Average: math.Round(mean*10) / 10,
	}
}

package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Store struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(60);not null;index" json:"name"`
	Address   string    `gorm:"type:varchar(400);not null" json:"address"`
	Email     string    `gorm:"type:varchar(255)" json:"email"`
	OwnerID   *string   `gorm:"type:varchar(36);index" json:"owner_id"`
	Owner     *User     `gorm:"foreignKey:OwnerID" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *Store) BeforeCreate(tx *gorm.DB) (err error) {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	return
}

// StoreSummary is a store together with its derived rating aggregate.
type StoreSummary struct {
	Store
	TotalRatings  int     `json:"total_ratings"`
	AverageRating float64 `json:"average_rating"`
}

package repository // repository defines data access for seats

import (
	"context"

	"gorm.io/gorm"

	"github.com/iliyamo/cinema-backoffice/internal/model"
)

// SeatRepo adds show-time availability to the generic seat repository.
type SeatRepo struct {
	*Repo[model.Seat]
}

// NewSeatRepo constructs a SeatRepo with the given DB handle.
func NewSeatRepo(db *gorm.DB) *SeatRepo {
	return &SeatRepo{Repo: NewRepo[model.Seat](db)}
}

// Available returns the live seats without a live ticket for the show time,
// ordered by row_label then seat_number.  ErrNotFound when the show time is
// missing or soft-deleted.
func (r *SeatRepo) Available(ctx context.Context, showTimeID uint64) ([]model.Seat, error) {
	var seats []model.Seat
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var show model.ShowTime
		if err := tx.Select("id").First(&show, showTimeID).Error; err != nil {
			return err
		}
		sold := tx.Model(&model.Ticket{}).Select("seat_id").Where("show_time_id = ?", showTimeID)
		return tx.Where("id NOT IN (?)", sold).
			Order("row_label").Order("seat_number").
			Find(&seats).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return seats, nil
}

package model

// Seat describes a physical seat.  Seats are uniquely identified by their
// row label and seat number.  The seat_type indicates whether the seat is
// standard, VIP or accessible.
type Seat struct {
	Base
	RowLabel   string `gorm:"size:10;not null;uniqueIndex:idx_seat_position" json:"row_label"`
	SeatNumber uint32 `gorm:"not null;uniqueIndex:idx_seat_position" json:"seat_number"`
	SeatType   string `gorm:"size:20;not null;default:'STANDARD'" json:"seat_type"`
}

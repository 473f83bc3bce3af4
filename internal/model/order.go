package model

import "time"

// Order belongs to a Customer and groups the Tickets bought together.
type Order struct {
	Base
	CustomerID    uint64       `gorm:"index;not null" json:"customer_id"`
	Customer      *Customer    `json:"customer,omitempty"`
	OrderStatusID uint64       `gorm:"index;not null" json:"order_status_id"`
	OrderStatus   *OrderStatus `json:"order_status,omitempty"`
	TotalAmount   float64      `gorm:"type:decimal(12,2)" json:"total_amount"`
	Note          string       `gorm:"size:500" json:"note"`
	Tickets       []Ticket     `json:"tickets,omitempty"`
}

// Ticket sells one Seat for one ShowTime.  The (show_time_id, seat_id) pair
// is unique so the same seat cannot be sold twice for a screening.
type Ticket struct {
	Base
	ShowTimeID uint64    `gorm:"not null;uniqueIndex:idx_ticket_show_seat" json:"show_time_id"`
	ShowTime   *ShowTime `json:"show_time,omitempty"`
	SeatID     uint64    `gorm:"not null;uniqueIndex:idx_ticket_show_seat" json:"seat_id"`
	Seat       *Seat     `json:"seat,omitempty"`
	OrderID    uint64    `gorm:"index;not null" json:"order_id"`
	Order      *Order    `json:"order,omitempty"`
	Price      float64   `gorm:"type:decimal(12,2)" json:"price"`
}

// ShowTime is a single screening.
type ShowTime struct {
	Base
	MovieTitle string    `gorm:"size:255;not null" json:"movie_title"`
	Hall       string    `gorm:"size:100" json:"hall"`
	StartsAt   time.Time `gorm:"index;not null" json:"starts_at"`
	EndsAt     time.Time `gorm:"not null" json:"ends_at"`
}

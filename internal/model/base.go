package model

import (
	"time"

	"gorm.io/gorm"
)

// Base carries the columns every table shares.  DeletedAt is the soft-delete
// marker: a NULL value means the row is live, a timestamp means it was
// soft-deleted and is hidden from default-mode queries.
type Base struct {
	ID        uint64         `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at"`
}

// PrimaryKey returns the row id.
func (b Base) PrimaryKey() uint64 { return b.ID }

// Trashed reports whether the row is currently soft-deleted.
func (b Base) Trashed() bool { return b.DeletedAt.Valid }

// Entity is satisfied by every model embedding Base.
type Entity interface {
	PrimaryKey() uint64
	Trashed() bool
}

// Registry lists every persisted model, parents before children, so that
// migrations create referenced tables first.  It is built on each call and
// handed to the database layer explicitly.
func Registry() []any {
	return []any{
		&AccountStatus{},
		&OrderStatus{},
		&UserStatus{},
		&Category{},
		&Product{},
		&Customer{},
		&User{},
		&Employee{},
		&ShowTime{},
		&Seat{},
		&Order{},
		&Ticket{},
	}
}

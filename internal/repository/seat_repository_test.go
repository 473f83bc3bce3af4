package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-backoffice/internal/database/dbtest"
	"github.com/iliyamo/cinema-backoffice/internal/model"
	"github.com/iliyamo/cinema-backoffice/internal/repository"
)

func TestSeatRepo_Available(t *testing.T) {
	ctx := context.Background()
	db := dbtest.Open(t)
	seats := repository.NewSeatRepo(db)
	customers := repository.NewCustomerRepo(db)
	orders := repository.NewRepo[model.Order](db)
	shows := repository.NewRepo[model.ShowTime](db)
	tickets := repository.NewRepo[model.Ticket](db)

	_, err := seats.Available(ctx, 42)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	start := time.Date(2026, 2, 1, 20, 0, 0, 0, time.UTC)
	show, err := shows.Create(ctx, &model.ShowTime{MovieTitle: "Alien", StartsAt: start, EndsAt: start.Add(2 * time.Hour)})
	require.NoError(t, err)
	b1, err := seats.Create(ctx, &model.Seat{RowLabel: "B", SeatNumber: 1})
	require.NoError(t, err)
	a2, err := seats.Create(ctx, &model.Seat{RowLabel: "A", SeatNumber: 2})
	require.NoError(t, err)
	a1, err := seats.Create(ctx, &model.Seat{RowLabel: "A", SeatNumber: 1})
	require.NoError(t, err)

	_, err = seats.Create(ctx, &model.Seat{RowLabel: "A", SeatNumber: 1})
	assert.ErrorIs(t, err, repository.ErrConflict)

	c := signUp(t, customers, "ann", "ann@example.com")
	o, err := orders.Create(ctx, &model.Order{CustomerID: c.ID, OrderStatusID: orderStatusID(t, db, model.OrderPaid)})
	require.NoError(t, err)
	sold, err := tickets.Create(ctx, &model.Ticket{ShowTimeID: show.ID, SeatID: a2.ID, OrderID: o.ID})
	require.NoError(t, err)

	// The same seat cannot be sold twice for one screening.
	_, err = tickets.Create(ctx, &model.Ticket{ShowTimeID: show.ID, SeatID: a2.ID, OrderID: o.ID})
	assert.ErrorIs(t, err, repository.ErrConflict)

	free, err := seats.Available(ctx, show.ID)
	require.NoError(t, err)
	require.Len(t, free, 2)
	assert.Equal(t, a1.ID, free[0].ID)
	assert.Equal(t, b1.ID, free[1].ID)
	assert.Equal(t, "STANDARD", free[0].SeatType)

	require.NoError(t, tickets.SoftDelete(ctx, sold.ID))
	free, err = seats.Available(ctx, show.ID)
	require.NoError(t, err)
	assert.Len(t, free, 3)
}

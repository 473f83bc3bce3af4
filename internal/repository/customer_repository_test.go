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

const testCode = "0123456789abcdef0123456789abcdef"

func signUp(t *testing.T, repo *repository.CustomerRepo, account, email string) model.Customer {
	t.Helper()
	c, err := repo.SignUp(context.Background(), &model.Customer{
		Account:          account,
		Password:         "hashed",
		Email:            email,
		ConfirmationCode: testCode,
	})
	require.NoError(t, err)
	return c
}

func TestCustomerRepo_SignUpStartsPending(t *testing.T) {
	repo := repository.NewCustomerRepo(dbtest.Open(t))

	c := signUp(t, repo, " ann ", " Ann@Example.com ")
	require.NotNil(t, c.AccountStatus)
	assert.Equal(t, model.AccountPendingVerification, c.AccountStatus.Code)
	assert.Equal(t, "ann", c.Account)
	assert.Equal(t, "ann@example.com", c.Email)

	_, err := repo.SignUp(context.Background(), &model.Customer{Account: "ann", Password: "x", Email: "other@example.com"})
	assert.ErrorIs(t, err, repository.ErrConflict)
	_, err = repo.SignUp(context.Background(), &model.Customer{Account: "bob", Password: "x", Email: "ann@example.com"})
	assert.ErrorIs(t, err, repository.ErrConflict)
}

func TestCustomerRepo_FindByAccount(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewCustomerRepo(dbtest.Open(t))
	c := signUp(t, repo, "ann", "ann@example.com")

	got, err := repo.FindByAccount(ctx, "ann")
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)
	assert.Equal(t, "hashed", got.Password)

	require.NoError(t, repo.SoftDelete(ctx, c.ID))
	_, err = repo.FindByAccount(ctx, "ann")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestCustomerRepo_Verify(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewCustomerRepo(dbtest.Open(t))
	c := signUp(t, repo, "ann", "ann@example.com")

	assert.ErrorIs(t, repo.Verify(ctx, 999, testCode), repository.ErrNotFound)
	assert.ErrorIs(t, repo.Verify(ctx, c.ID, "wrong"), repository.ErrCodeMismatch)

	require.NoError(t, repo.Verify(ctx, c.ID, testCode))
	got, err := repo.Get(ctx, c.ID, false)
	require.NoError(t, err)
	assert.Equal(t, model.AccountVerified, got.AccountStatus.Code)
	assert.Empty(t, got.ConfirmationCode)

	// A second verification with the same code is rejected.
	assert.ErrorIs(t, repo.Verify(ctx, c.ID, testCode), repository.ErrNotPending)
}

func TestCustomerRepo_Orders(t *testing.T) {
	ctx := context.Background()
	db := dbtest.Open(t)
	repo := repository.NewCustomerRepo(db)
	orders := repository.NewRepo[model.Order](db)
	shows := repository.NewRepo[model.ShowTime](db)
	seats := repository.NewRepo[model.Seat](db)
	tickets := repository.NewRepo[model.Ticket](db)

	_, err := repo.Orders(ctx, 999)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	c := signUp(t, repo, "ann", "ann@example.com")
	none, err := repo.Orders(ctx, c.ID)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	pending := orderStatusID(t, db, model.OrderPending)
	first, err := orders.Create(ctx, &model.Order{CustomerID: c.ID, OrderStatusID: pending})
	require.NoError(t, err)
	second, err := orders.Create(ctx, &model.Order{CustomerID: c.ID, OrderStatusID: pending})
	require.NoError(t, err)

	start := time.Date(2026, 1, 1, 19, 0, 0, 0, time.UTC)
	show, err := shows.Create(ctx, &model.ShowTime{MovieTitle: "Heat", StartsAt: start, EndsAt: start.Add(3 * time.Hour)})
	require.NoError(t, err)
	seat, err := seats.Create(ctx, &model.Seat{RowLabel: "A", SeatNumber: 1})
	require.NoError(t, err)
	_, err = tickets.Create(ctx, &model.Ticket{ShowTimeID: show.ID, SeatID: seat.ID, OrderID: first.ID, Price: 9.5})
	require.NoError(t, err)

	got, err := repo.Orders(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, second.ID, got[0].ID)
	assert.Equal(t, first.ID, got[1].ID)
	require.NotNil(t, got[1].OrderStatus)
	assert.Equal(t, model.OrderPending, got[1].OrderStatus.Code)
	assert.Len(t, got[1].Tickets, 1)

	require.NoError(t, orders.SoftDelete(ctx, second.ID))
	got, err = repo.Orders(ctx, c.ID)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-backoffice/internal/handler"
	"github.com/iliyamo/cinema-backoffice/internal/model"
	"github.com/iliyamo/cinema-backoffice/internal/repository"
)

// RegisterResources mounts the generic CRUD resources.
func RegisterResources(e *echo.Echo, d Deps) {
	db := d.DB

	handler.NewEmployeeResource(repository.NewEmployeeRepo(db), d.Cfg.Argon2).
		Register(group(e, d, "employees"))

	handler.NewStatusResource("Order status", repository.NewRepo[model.OrderStatus](db),
		func(code int, name string) model.OrderStatus {
			return model.OrderStatus{Code: code, Name: name}
		}).Register(group(e, d, "order-statuses", "orders"))
	handler.NewStatusResource("Account status", repository.NewRepo[model.AccountStatus](db),
		func(code int, name string) model.AccountStatus {
			return model.AccountStatus{Code: code, Name: name}
		}).Register(group(e, d, "account-statuses", "customers"))
	handler.NewStatusResource("User status", repository.NewRepo[model.UserStatus](db),
		func(code int, name string) model.UserStatus {
			return model.UserStatus{Code: code, Name: name}
		}).Register(group(e, d, "user-statuses", "employees"))

	handler.NewProductResource(repository.NewRepo[model.Product](db, "Category")).
		Register(group(e, d, "products"))
	handler.NewCategoryResource(repository.NewRepo[model.Category](db)).
		Register(group(e, d, "categories", "products"))

	seats := repository.NewSeatRepo(db)
	// Availability follows ticket writes, so it is never cached.
	e.GET("/v1/seats/available", (&handler.SeatHandler{Repo: seats}).Available)
	handler.NewSeatResource(seats).Register(group(e, d, "seats"))

	handler.NewShowTimeResource(repository.NewRepo[model.ShowTime](db)).
		Register(group(e, d, "show-times"))
	handler.NewOrderResource(repository.NewRepo[model.Order](db, "OrderStatus", "Tickets")).
		Register(group(e, d, "orders"))
	handler.NewTicketResource(repository.NewRepo[model.Ticket](db)).
		Register(group(e, d, "tickets", "orders"))
}

package handler

import (
    "context"
    "net/http"
    "strings"
    "time"

    "github.com/iliyamo/cinema-backoffice/internal/config"
    "github.com/iliyamo/cinema-backoffice/internal/model"
    "github.com/iliyamo/cinema-backoffice/internal/query"
    "github.com/iliyamo/cinema-backoffice/internal/repository"
    "github.com/iliyamo/cinema-backoffice/internal/utils"
)

// ----- customers -----

type customerInput struct {
    Account         string `json:"account" validate:"required,max=100"`
    Password        string `json:"password" validate:"required,min=6,max=128"`
    FullName        string `json:"full_name" validate:"max=200"`
    Email           string `json:"email" validate:"required,email,max=255"`
    Phone           string `json:"phone" validate:"max=30"`
    Address         string `json:"address" validate:"max=500"`
    AccountStatusID uint64 `json:"account_status_id"` // 0 means pending verification
}

type customerPatch struct {
    Account         *string `json:"account" validate:"omitempty,min=1,max=100"`
    Password        *string `json:"password" validate:"omitempty,min=6,max=128"`
    FullName        *string `json:"full_name" validate:"omitempty,max=200"`
    Email           *string `json:"email" validate:"omitempty,email,max=255"`
    Phone           *string `json:"phone" validate:"omitempty,max=30"`
    Address         *string `json:"address" validate:"omitempty,max=500"`
    AccountStatusID *uint64 `json:"account_status_id" validate:"omitempty,min=1"`
}

var customerQuery = query.Spec{
    Filters: map[string]query.Filter{
        "ids":          {Column: "id", Op: query.In},
        "status_ids":   {Column: "account_status_id", Op: query.In},
        "accounts":     {Column: "account", Op: query.Like},
        "emails":       {Column: "email", Op: query.Like},
        "address":      {Column: "address", Op: query.Like},
        "full_name":    {Column: "full_name", Op: query.Like, Sep: " "},
        "phone_number": {Column: "phone", Op: query.Like, Sep: " "},
    },
    Sortable: []string{"id", "account", "full_name", "email", "phone", "address", "created_at", "updated_at"},
}

// NewCustomerResource serves /v1/customers.  Rows created without a status
// start pending verification and get the confirmation mail, exactly like a
// sign-up.
func NewCustomerResource(h *CustomerHandler) *Resource[model.Customer, customerInput, customerPatch] {
    repo, argon := h.Repo, h.Cfg.Argon2
    return &Resource[model.Customer, customerInput, customerPatch]{
        Name:  "Customer",
        Repo:  repo.Repo,
        Query: customerQuery,
        NewRow: func(in customerInput) (model.Customer, error) {
            hash, err := utils.HashPassword(in.Password, argon)
            if err != nil {
                return model.Customer{}, internalError(err)
            }
            return model.Customer{
                Account:         strings.TrimSpace(in.Account),
                Password:        hash,
                FullName:        in.FullName,
                Email:           strings.ToLower(strings.TrimSpace(in.Email)),
                Phone:           in.Phone,
                Address:         in.Address,
                AccountStatusID: in.AccountStatusID,
            }, nil
        },
        Insert: func(ctx context.Context, row *model.Customer) (model.Customer, error) {
            if row.AccountStatusID == 0 {
                code, err := utils.RandomHex(16)
                if err != nil {
                    return model.Customer{}, err
                }
                row.ConfirmationCode = code
                created, err := repo.SignUp(ctx, row)
                if err != nil {
                    return model.Customer{}, err
                }
                h.registered(created, code)
                return created, nil
            }
            return repo.Create(ctx, row)
        },
        Changes: func(in customerPatch) (map[string]any, error) {
            m := map[string]any{}
            if in.Account != nil {
                m["account"] = strings.TrimSpace(*in.Account)
            }
            if in.Password != nil {
                hash, err := utils.HashPassword(*in.Password, argon)
                if err != nil {
                    return nil, internalError(err)
                }
                m["password"] = hash
            }
            if in.Email != nil {
                m["email"] = strings.ToLower(strings.TrimSpace(*in.Email))
            }
            setIf(m, "full_name", in.FullName)
            setIf(m, "phone", in.Phone)
            setIf(m, "address", in.Address)
            setIf(m, "account_status_id", in.AccountStatusID)
            return m, nil
        },
    }
}

// ----- employees -----

type userInput struct {
    Account  string `json:"account" validate:"required,max=100"`
    Email    string `json:"email" validate:"required,email,max=255"`
    Password string `json:"password" validate:"required,min=6,max=128"`
}

type employeeInput struct {
    FullName string    `json:"full_name" validate:"required,max=200"`
    Address  string    `json:"address" validate:"max=500"`
    Phone    string    `json:"phone" validate:"max=30"`
    User     userInput `json:"user"`
}

type employeePatch struct {
    FullName *string `json:"full_name" validate:"omitempty,min=1,max=200"`
    Address  *string `json:"address" validate:"omitempty,max=500"`
    Phone    *string `json:"phone" validate:"omitempty,max=30"`
}

var employeeQuery = query.Spec{
    Filters: map[string]query.Filter{
        "ids":          {Column: "id", Op: query.In},
        "user_ids":     {Column: "user_id", Op: query.In},
        "address":      {Column: "address", Op: query.Like},
        "full_name":    {Column: "full_name", Op: query.Like, Sep: " "},
        "phone_number": {Column: "phone", Op: query.Like, Sep: " "},
    },
    Sortable: []string{"id", "full_name", "address", "phone", "created_at", "updated_at"},
}

// NewEmployeeResource serves /v1/employees.  The employee and its login user
// are created together.
func NewEmployeeResource(repo *repository.EmployeeRepo, argon config.Argon2Config) *Resource[model.Employee, employeeInput, employeePatch] {
    return &Resource[model.Employee, employeeInput, employeePatch]{
        Name:  "Employee",
        Repo:  repo.Repo,
        Query: employeeQuery,
        NewRow: func(in employeeInput) (model.Employee, error) {
            hash, err := utils.HashPassword(in.User.Password, argon)
            if err != nil {
                return model.Employee{}, internalError(err)
            }
            return model.Employee{
                FullName: in.FullName,
                Address:  in.Address,
                Phone:    in.Phone,
                User: &model.User{
                    Account:  in.User.Account,
                    Email:    in.User.Email,
                    Password: hash,
                },
            }, nil
        },
        Insert: func(ctx context.Context, row *model.Employee) (model.Employee, error) {
            u := row.User
            row.User = nil
            return repo.CreateWithUser(ctx, row, u)
        },
        Changes: func(in employeePatch) (map[string]any, error) {
            m := map[string]any{}
            setIf(m, "full_name", in.FullName)
            setIf(m, "address", in.Address)
            setIf(m, "phone", in.Phone)
            return m, nil
        },
    }
}

// ----- reference tables -----

type statusInput struct {
    Code int    `json:"code" validate:"required,min=1"`
    Name string `json:"name" validate:"required,max=100"`
}

type statusPatch struct {
    Code *int    `json:"code" validate:"omitempty,min=1"`
    Name *string `json:"name" validate:"omitempty,min=1,max=100"`
}

var statusQuery = query.Spec{
    Filters: map[string]query.Filter{
        "ids":   {Column: "id", Op: query.In},
        "codes": {Column: "code", Op: query.In},
        "names": {Column: "name", Op: query.Like},
    },
    Sortable: []string{"id", "code", "name"},
}

// NewStatusResource serves one of the code/name reference tables.  Duplicate
// codes or names are conflicts.
func NewStatusResource[T model.Entity](name string, repo *repository.Repo[T], build func(code int, name string) T) *Resource[T, statusInput, statusPatch] {
    return &Resource[T, statusInput, statusPatch]{
        Name:  name,
        Repo:  repo,
        Query: statusQuery,
        NewRow: func(in statusInput) (T, error) {
            return build(in.Code, strings.TrimSpace(in.Name)), nil
        },
        Changes: func(in statusPatch) (map[string]any, error) {
            m := map[string]any{}
            setIf(m, "code", in.Code)
            if in.Name != nil {
                m["name"] = strings.TrimSpace(*in.Name)
            }
            return m, nil
        },
    }
}

// ----- products and categories -----

type productInput struct {
    Name        string  `json:"name" validate:"required,max=200"`
    AvatarURL   string  `json:"avatar_url" validate:"omitempty,url"`
    Price       float64 `json:"price" validate:"gte=0"`
    Description string  `json:"description"`
    CategoryID  *uint64 `json:"category_id" validate:"omitempty,min=1"`
}

type productPatch struct {
    Name        *string  `json:"name" validate:"omitempty,min=1,max=200"`
    AvatarURL   *string  `json:"avatar_url" validate:"omitempty,url"`
    Price       *float64 `json:"price" validate:"omitempty,gte=0"`
    Description *string  `json:"description"`
    CategoryID  *uint64  `json:"category_id" validate:"omitempty,min=1"`
}

func NewProductResource(repo *repository.Repo[model.Product]) *Resource[model.Product, productInput, productPatch] {
    return &Resource[model.Product, productInput, productPatch]{
        Name: "Product",
        Repo: repo,
        Query: query.Spec{
            Filters: map[string]query.Filter{
                "ids":          {Column: "id", Op: query.In},
                "category_ids": {Column: "category_id", Op: query.In},
                "name":         {Column: "name", Op: query.Like, Sep: " "},
            },
            Sortable: []string{"id", "name", "price", "created_at"},
        },
        NewRow: func(in productInput) (model.Product, error) {
            return model.Product{
                Name:        in.Name,
                AvatarURL:   in.AvatarURL,
                Price:       in.Price,
                Description: in.Description,
                CategoryID:  in.CategoryID,
            }, nil
        },
        Changes: func(in productPatch) (map[string]any, error) {
            m := map[string]any{}
            setIf(m, "name", in.Name)
            setIf(m, "avatar_url", in.AvatarURL)
            setIf(m, "price", in.Price)
            setIf(m, "description", in.Description)
            setIf(m, "category_id", in.CategoryID)
            return m, nil
        },
    }
}

type categoryInput struct {
    Name string `json:"name" validate:"required,max=200"`
}

type categoryPatch struct {
    Name *string `json:"name" validate:"omitempty,min=1,max=200"`
}

func NewCategoryResource(repo *repository.Repo[model.Category]) *Resource[model.Category, categoryInput, categoryPatch] {
    return &Resource[model.Category, categoryInput, categoryPatch]{
        Name: "Category",
        Repo: repo,
        Query: query.Spec{
            Filters: map[string]query.Filter{
                "ids":  {Column: "id", Op: query.In},
                "name": {Column: "name", Op: query.Like},
            },
            Sortable: []string{"id", "name"},
        },
        NewRow: func(in categoryInput) (model.Category, error) {
            return model.Category{Name: strings.TrimSpace(in.Name)}, nil
        },
        Changes: func(in categoryPatch) (map[string]any, error) {
            m := map[string]any{}
            setIf(m, "name", in.Name)
            return m, nil
        },
    }
}

// ----- seats, show times, orders, tickets -----

type seatInput struct {
    RowLabel   string `json:"row_label" validate:"required,max=10"`
    SeatNumber uint32 `json:"seat_number" validate:"required,min=1"`
    SeatType   string `json:"seat_type" validate:"omitempty,oneof=STANDARD VIP ACCESSIBLE"`
}

type seatPatch struct {
    RowLabel   *string `json:"row_label" validate:"omitempty,min=1,max=10"`
    SeatNumber *uint32 `json:"seat_number" validate:"omitempty,min=1"`
    SeatType   *string `json:"seat_type" validate:"omitempty,oneof=STANDARD VIP ACCESSIBLE"`
}

func NewSeatResource(repo *repository.SeatRepo) *Resource[model.Seat, seatInput, seatPatch] {
    return &Resource[model.Seat, seatInput, seatPatch]{
        Name: "Seat",
        Repo: repo.Repo,
        Query: query.Spec{
            Filters: map[string]query.Filter{
                "ids":        {Column: "id", Op: query.In},
                "row_labels": {Column: "row_label", Op: query.In},
                "seat_types": {Column: "seat_type", Op: query.In},
            },
            Sortable: []string{"id", "row_label", "seat_number", "seat_type"},
        },
        NewRow: func(in seatInput) (model.Seat, error) {
            s := model.Seat{RowLabel: strings.ToUpper(strings.TrimSpace(in.RowLabel)), SeatNumber: in.SeatNumber, SeatType: in.SeatType}
            if s.SeatType == "" {
                s.SeatType = "STANDARD"
            }
            return s, nil
        },
        Changes: func(in seatPatch) (map[string]any, error) {
            m := map[string]any{}
            if in.RowLabel != nil {
                m["row_label"] = strings.ToUpper(strings.TrimSpace(*in.RowLabel))
            }
            setIf(m, "seat_number", in.SeatNumber)
            setIf(m, "seat_type", in.SeatType)
            return m, nil
        },
    }
}

type showTimeInput struct {
    MovieTitle string    `json:"movie_title" validate:"required,max=255"`
    Hall       string    `json:"hall" validate:"max=100"`
    StartsAt   time.Time `json:"starts_at" validate:"required"`
    EndsAt     time.Time `json:"ends_at" validate:"required,gtfield=StartsAt"`
}

type showTimePatch struct {
    MovieTitle *string    `json:"movie_title" validate:"omitempty,min=1,max=255"`
    Hall       *string    `json:"hall" validate:"omitempty,max=100"`
    StartsAt   *time.Time `json:"starts_at"`
    EndsAt     *time.Time `json:"ends_at"`
}

func NewShowTimeResource(repo *repository.Repo[model.ShowTime]) *Resource[model.ShowTime, showTimeInput, showTimePatch] {
    return &Resource[model.ShowTime, showTimeInput, showTimePatch]{
        Name: "Show time",
        Repo: repo,
        Query: query.Spec{
            Filters: map[string]query.Filter{
                "ids":         {Column: "id", Op: query.In},
                "movie_title": {Column: "movie_title", Op: query.Like, Sep: " "},
                "halls":       {Column: "hall", Op: query.In},
            },
            Sortable: []string{"id", "movie_title", "hall", "starts_at", "ends_at"},
        },
        NewRow: func(in showTimeInput) (model.ShowTime, error) {
            return model.ShowTime{MovieTitle: in.MovieTitle, Hall: in.Hall, StartsAt: in.StartsAt, EndsAt: in.EndsAt}, nil
        },
        Changes: func(in showTimePatch) (map[string]any, error) {
            m := map[string]any{}
            setIf(m, "movie_title", in.MovieTitle)
            setIf(m, "hall", in.Hall)
            setIf(m, "starts_at", in.StartsAt)
            setIf(m, "ends_at", in.EndsAt)
            return m, nil
        },
        Check: func(s model.ShowTime) error {
            if !s.EndsAt.After(s.StartsAt) {
                return newError(http.StatusBadRequest, "validation failed: ends_at must be greater than starts_at")
            }
            return nil
        },
    }
}

type orderInput struct {
    CustomerID    uint64  `json:"customer_id" validate:"required"`
    OrderStatusID uint64  `json:"order_status_id" validate:"required"`
    TotalAmount   float64 `json:"total_amount" validate:"gte=0"`
    Note          string  `json:"note" validate:"max=500"`
}

type orderPatch struct {
    OrderStatusID *uint64  `json:"order_status_id" validate:"omitempty,min=1"`
    TotalAmount   *float64 `json:"total_amount" validate:"omitempty,gte=0"`
    Note          *string  `json:"note" validate:"omitempty,max=500"`
}

func NewOrderResource(repo *repository.Repo[model.Order]) *Resource[model.Order, orderInput, orderPatch] {
    return &Resource[model.Order, orderInput, orderPatch]{
        Name: "Order",
        Repo: repo,
        Query: query.Spec{
            Filters: map[string]query.Filter{
                "ids":          {Column: "id", Op: query.In},
                "customer_ids": {Column: "customer_id", Op: query.In},
                "status_ids":   {Column: "order_status_id", Op: query.In},
            },
            Sortable: []string{"id", "customer_id", "total_amount", "created_at"},
        },
        NewRow: func(in orderInput) (model.Order, error) {
            return model.Order{
                CustomerID:    in.CustomerID,
                OrderStatusID: in.OrderStatusID,
                TotalAmount:   in.TotalAmount,
                Note:          in.Note,
            }, nil
        },
        Changes: func(in orderPatch) (map[string]any, error) {
            m := map[string]any{}
            setIf(m, "order_status_id", in.OrderStatusID)
            setIf(m, "total_amount", in.TotalAmount)
            setIf(m, "note", in.Note)
            return m, nil
        },
    }
}

type ticketInput struct {
    ShowTimeID uint64  `json:"show_time_id" validate:"required"`
    SeatID     uint64  `json:"seat_id" validate:"required"`
    OrderID    uint64  `json:"order_id" validate:"required"`
    Price      float64 `json:"price" validate:"gte=0"`
}

type ticketPatch struct {
    Price *float64 `json:"price" validate:"omitempty,gte=0"`
}

func NewTicketResource(repo *repository.Repo[model.Ticket]) *Resource[model.Ticket, ticketInput, ticketPatch] {
    return &Resource[model.Ticket, ticketInput, ticketPatch]{
        Name: "Ticket",
        Repo: repo,
        Query: query.Spec{
            Filters: map[string]query.Filter{
                "ids":           {Column: "id", Op: query.In},
                "order_ids":     {Column: "order_id", Op: query.In},
                "show_time_ids": {Column: "show_time_id", Op: query.In},
                "seat_ids":      {Column: "seat_id", Op: query.In},
            },
            Sortable: []string{"id", "price", "created_at"},
        },
        NewRow: func(in ticketInput) (model.Ticket, error) {
            return model.Ticket{ShowTimeID: in.ShowTimeID, SeatID: in.SeatID, OrderID: in.OrderID, Price: in.Price}, nil
        },
        Changes: func(in ticketPatch) (map[string]any, error) {
            m := map[string]any{}
            setIf(m, "price", in.Price)
            return m, nil
        },
    }
}

func setIf[V any](m map[string]any, col string, v *V) {
    if v != nil {
        m[col] = *v
    }
}

package handler

import (
    "context"
    "errors"
    "net/http"
    "sync"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/sirupsen/logrus"

    "github.com/iliyamo/cinema-backoffice/internal/config"
    "github.com/iliyamo/cinema-backoffice/internal/model"
    "github.com/iliyamo/cinema-backoffice/internal/queue"
    "github.com/iliyamo/cinema-backoffice/internal/repository"
    "github.com/iliyamo/cinema-backoffice/internal/utils"
)

// SignupNotifier receives new customers once their row is committed.
type SignupNotifier interface {
    NotifySignup(ctx context.Context, ev queue.CustomerRegisteredEvent) error
}

// notifyTimeout bounds the background hand-off after sign-up.
const notifyTimeout = 10 * time.Second

// CustomerHandler bundles the customer account endpoints.
type CustomerHandler struct {
    Cfg      config.Config
    Repo     *repository.CustomerRepo
    Notifier SignupNotifier
    Log      *logrus.Logger

    dummyOnce sync.Once
    dummyHash string
}

func NewCustomerHandler(cfg config.Config, repo *repository.CustomerRepo, n SignupNotifier, log *logrus.Logger) *CustomerHandler {
    return &CustomerHandler{Cfg: cfg, Repo: repo, Notifier: n, Log: log}
}

// ----- DTOs -----

type signUpReq struct {
    Account  string `json:"account" validate:"required,max=100"`
    Password string `json:"password" validate:"required,min=6,max=128"`
    FullName string `json:"full_name" validate:"max=200"`
    Email    string `json:"email" validate:"required,email,max=255"`
    Phone    string `json:"phone" validate:"max=30"`
    Address  string `json:"address" validate:"max=500"`
}

type signInReq struct {
    Account  string `json:"account" validate:"required"`
    Password string `json:"password" validate:"required"`
}

type tokenResp struct {
    Token     string    `json:"token"`
    ExpiresAt time.Time `json:"expires_at"`
}

// SignUp: create a pending customer and queue the confirmation mail.
func (h *CustomerHandler) SignUp(c echo.Context) error {
    var req signUpReq
    if err := bindValid(c, &req); err != nil {
        return err
    }
    hash, err := utils.HashPassword(req.Password, h.Cfg.Argon2)
    if err != nil {
        return internalError(err)
    }
    code, err := utils.RandomHex(16)
    if err != nil {
        return internalError(err)
    }

    created, err := h.Repo.SignUp(c.Request().Context(), &model.Customer{
        Account:          req.Account,
        Password:         hash,
        FullName:         req.FullName,
        Email:            req.Email,
        Phone:            req.Phone,
        Address:          req.Address,
        ConfirmationCode: code,
    })
    if err != nil {
        return repoError(err, "Customer")
    }

    h.registered(created, code)
    return respond(c, http.StatusCreated, "Customer created successfully", 1, created)
}

// registered queues the confirmation mail for a committed pending customer.
func (h *CustomerHandler) registered(created model.Customer, code string) {
    h.notify(queue.CustomerRegisteredEvent{
        CustomerID:       created.ID,
        Account:          created.Account,
        Email:            created.Email,
        FullName:         created.FullName,
        ConfirmationCode: code,
        RegisteredAt:     created.CreatedAt.UTC().Format(time.RFC3339),
    })
}

// notify runs detached from the request: a slow or failing broker neither
// delays the response nor undoes the sign-up.
func (h *CustomerHandler) notify(ev queue.CustomerRegisteredEvent) {
    if h.Notifier == nil {
        return
    }
    go func() {
        ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
        defer cancel()
        if err := h.Notifier.NotifySignup(ctx, ev); err != nil {
            h.Log.WithError(err).WithField("customer_id", ev.CustomerID).Warn("signup notification failed")
        }
    }()
}

// Verify: GET /verify/:id/:confirmationCode
func (h *CustomerHandler) Verify(c echo.Context) error {
    id, err := parseID(c, "id")
    if err != nil {
        return err
    }
    err = h.Repo.Verify(c.Request().Context(), id, c.Param("confirmationCode"))
    switch {
    case err == nil:
        return respond(c, http.StatusOK, "Customer verified successfully", 1, nil)
    case errors.Is(err, repository.ErrNotPending):
        return newError(http.StatusBadRequest, "Customer does not need verification")
    case errors.Is(err, repository.ErrCodeMismatch):
        return newError(http.StatusBadRequest, "Confirmation code not accepted")
    }
    return repoError(err, "Customer")
}

// SignIn: every credential failure looks the same to the caller.
func (h *CustomerHandler) SignIn(c echo.Context) error {
    var req signInReq
    if err := bindValid(c, &req); err != nil {
        return err
    }
    invalid := newError(http.StatusUnauthorized, "invalid credentials")

    cust, err := h.Repo.FindByAccount(c.Request().Context(), req.Account)
    if errors.Is(err, repository.ErrNotFound) {
        // Spend the same hashing time as a real check.
        utils.VerifyPassword(h.dummy(), req.Password)
        return invalid
    }
    if err != nil {
        return internalError(err)
    }
    if !utils.VerifyPassword(cust.Password, req.Password) {
        return invalid
    }

    access, err := utils.NewAccessToken(h.Cfg.JWTSecret, cust.ID, cust.Account, utils.RoleCustomer, h.Cfg.AccessTTLMin)
    if err != nil {
        return internalError(err)
    }
    return respond(c, http.StatusOK, "Sign in successfully", 1, tokenResp{Token: access.Token, ExpiresAt: access.Exp})
}

func (h *CustomerHandler) dummy() string {
    h.dummyOnce.Do(func() {
        h.dummyHash, _ = utils.HashPassword("dummy-password", h.Cfg.Argon2)
    })
    return h.dummyHash
}

// Me returns the customer named by the access token.
func (h *CustomerHandler) Me(c echo.Context) error {
    id, err := getUserID(c)
    if err != nil {
        return newError(http.StatusUnauthorized, "unauthorized")
    }
    cust, err := h.Repo.Get(c.Request().Context(), id, false)
    if err != nil {
        return repoError(err, "Customer")
    }
    return respond(c, http.StatusOK, "Get Customer successfully", 1, cust)
}

// Orders: GET /:id/orders
func (h *CustomerHandler) Orders(c echo.Context) error {
    id, err := parseID(c, "id")
    if err != nil {
        return err
    }
    orders, err := h.Repo.Orders(c.Request().Context(), id)
    if err != nil {
        return repoError(err, "Customer")
    }
    return respond(c, http.StatusOK, "Get all order successfully", len(orders), orders)
}

// getUserID extracts the user_id set by JWTAuth.
func getUserID(c echo.Context) (uint64, error) {
    switch t := c.Get("user_id").(type) {
    case uint64:
        return t, nil
    case float64:
        return uint64(t), nil
    }
    return 0, errors.New("invalid user_id in context")
}

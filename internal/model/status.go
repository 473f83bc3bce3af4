package model

// Reference tables.  Each row is identified by a small integer code that the
// application treats as a sentinel, and a human-readable name.  Both are
// unique.

// Account status codes used by the sign-up / verify flow.
const (
	AccountPendingVerification = 1
	AccountVerified            = 2
)

// User status codes applied to employee logins.
const (
	UserActive   = 1
	UserInactive = 2
)

// Order status codes seeded on first start; more can be added through the API.
const (
	OrderPending   = 1
	OrderPaid      = 2
	OrderCancelled = 3
)

type AccountStatus struct {
	Base
	Code int    `gorm:"uniqueIndex;not null" json:"code"`
	Name string `gorm:"size:100;uniqueIndex;not null" json:"name"`
}

type OrderStatus struct {
	Base
	Code int    `gorm:"uniqueIndex;not null" json:"code"`
	Name string `gorm:"size:100;uniqueIndex;not null" json:"name"`
}

type UserStatus struct {
	Base
	Code int    `gorm:"uniqueIndex;not null" json:"code"`
	Name string `gorm:"size:100;uniqueIndex;not null" json:"name"`
}

// Seeds returns the reference rows the application logic depends on.
func Seeds() []any {
	return []any{
		&AccountStatus{Code: AccountPendingVerification, Name: "pending verification"},
		&AccountStatus{Code: AccountVerified, Name: "verified"},
		&UserStatus{Code: UserActive, Name: "active"},
		&UserStatus{Code: UserInactive, Name: "inactive"},
		&OrderStatus{Code: OrderPending, Name: "pending"},
		&OrderStatus{Code: OrderPaid, Name: "paid"},
		&OrderStatus{Code: OrderCancelled, Name: "cancelled"},
	}
}

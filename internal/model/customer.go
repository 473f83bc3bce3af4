package model

// Customer is a ticket buyer account.  Account and Email are unique across
// live and soft-deleted rows alike, so a soft-deleted account name cannot be
// reused until the row is force-deleted.
//
// Password holds an argon2id PHC string and is never serialised.  The
// confirmation code is mailed on sign-up and cleared once the account moves
// from pending to verified.
type Customer struct {
	Base
	Account          string         `gorm:"size:100;uniqueIndex;not null" json:"account"`
	Password         string         `gorm:"size:255;not null" json:"-"`
	FullName         string         `gorm:"size:200" json:"full_name"`
	Email            string         `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Phone            string         `gorm:"size:30" json:"phone"`
	Address          string         `gorm:"size:500" json:"address"`
	AccountStatusID  uint64         `gorm:"index;not null" json:"account_status_id"`
	AccountStatus    *AccountStatus `json:"account_status,omitempty"`
	ConfirmationCode string         `gorm:"size:64" json:"-"`
	Orders           []Order        `json:"orders,omitempty"`
}

package repository

import (
	"context"
	"crypto/subtle"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/iliyamo/cinema-backoffice/internal/model"
)

// CustomerRepo adds the account lifecycle (sign-up, verification, lookup by
// account) and order history to the generic customer repository.
type CustomerRepo struct {
	*Repo[model.Customer]
}

func NewCustomerRepo(db *gorm.DB) *CustomerRepo {
	return &CustomerRepo{Repo: NewRepo[model.Customer](db, "AccountStatus")}
}

// SignUp stores c in the pending-verification state.  The caller supplies the
// hashed password and confirmation code.
func (r *CustomerRepo) SignUp(ctx context.Context, c *model.Customer) (model.Customer, error) {
	c.Email = strings.ToLower(strings.TrimSpace(c.Email))
	c.Account = strings.TrimSpace(c.Account)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		id, err := statusID[model.AccountStatus](tx, model.AccountPendingVerification)
		if err != nil {
			return err
		}
		c.AccountStatusID = id
		return tx.Omit(clause.Associations).Create(c).Error
	})
	if err != nil {
		return model.Customer{}, translateWrite(err)
	}
	return r.Get(ctx, c.ID, false)
}

// FindByAccount returns the live customer with the given account name.
func (r *CustomerRepo) FindByAccount(ctx context.Context, account string) (model.Customer, error) {
	var c model.Customer
	err := r.db.WithContext(ctx).
		Preload("AccountStatus").
		Where("account = ?", strings.TrimSpace(account)).
		First(&c).Error
	return c, translate(err)
}

// Verify moves a pending customer to verified when code matches the stored
// confirmation code, and clears the code.  The final UPDATE re-checks every
// precondition so two concurrent verifications cannot both succeed.
func (r *CustomerRepo) Verify(ctx context.Context, id uint64, code string) error {
	return translate(r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var c model.Customer
		if err := tx.Preload("AccountStatus").First(&c, id).Error; err != nil {
			return err
		}
		if c.AccountStatus == nil || c.AccountStatus.Code != model.AccountPendingVerification {
			return ErrNotPending
		}
		if c.ConfirmationCode == "" || subtle.ConstantTimeCompare([]byte(c.ConfirmationCode), []byte(code)) != 1 {
			return ErrCodeMismatch
		}

		verifiedID, err := statusID[model.AccountStatus](tx, model.AccountVerified)
		if err != nil {
			return err
		}
		res := tx.Model(&model.Customer{}).
			Where("id = ? AND account_status_id = ? AND confirmation_code = ?", id, c.AccountStatusID, code).
			Updates(map[string]any{
				"account_status_id": verifiedID,
				"confirmation_code": "",
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			return ErrNotPending
		}
		return nil
	}))
}

// Orders lists the live orders of a live customer, newest first, with their
// status and tickets.
func (r *CustomerRepo) Orders(ctx context.Context, customerID uint64) ([]model.Order, error) {
	orders := []model.Order{}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var c model.Customer
		if err := tx.Select("id").First(&c, customerID).Error; err != nil {
			return err
		}
		return tx.Preload("OrderStatus").Preload("Tickets").
			Where("customer_id = ?", customerID).
			Order("id DESC").
			Find(&orders).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return orders, nil
}

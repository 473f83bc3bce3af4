package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/iliyamo/cinema-backoffice/internal/model"
)

type EmployeeRepo struct {
	*Repo[model.Employee]
}

func NewEmployeeRepo(db *gorm.DB) *EmployeeRepo {
	return &EmployeeRepo{Repo: NewRepo[model.Employee](db, "User", "User.UserStatus")}
}

// CreateWithUser inserts the login user (status inactive until activated)
// and the employee in one transaction.  Either both rows exist afterwards or
// neither does.
func (r *EmployeeRepo) CreateWithUser(ctx context.Context, e *model.Employee, u *model.User) (model.Employee, error) {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	u.Account = strings.TrimSpace(u.Account)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if u.UserStatusID == 0 {
			id, err := statusID[model.UserStatus](tx, model.UserInactive)
			if err != nil {
				return err
			}
			u.UserStatusID = id
		}
		if err := tx.Omit(clause.Associations).Create(u).Error; err != nil {
			return err
		}
		e.UserID = u.ID
		return tx.Omit(clause.Associations).Create(e).Error
	})
	if err != nil {
		return model.Employee{}, translateWrite(err)
	}
	return r.Get(ctx, e.ID, false)
}

package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/iliyamo/cinema-backoffice/internal/model"
	"github.com/iliyamo/cinema-backoffice/internal/query"
)

// Repo implements the CRUD and soft-delete lifecycle shared by every table.
// Preconditions such as "must be soft-deleted" are folded into the WHERE
// clause of the statement that acts on them, so they hold even under
// concurrent requests; a follow-up read only explains why nothing changed.
type Repo[T model.Entity] struct {
	db       *gorm.DB
	preloads []string
}

// NewRepo returns a Repo that eager-loads the given associations on reads.
func NewRepo[T model.Entity](db *gorm.DB, preloads ...string) *Repo[T] {
	return &Repo[T]{db: db, preloads: preloads}
}

// DB exposes the handle for resource-specific queries.
func (r *Repo[T]) DB() *gorm.DB { return r.db }

func (r *Repo[T]) reader(ctx context.Context, withDeleted bool) *gorm.DB {
	q := r.db.WithContext(ctx)
	if withDeleted {
		q = q.Unscoped()
	}
	for _, p := range r.preloads {
		q = q.Preload(p)
	}
	return q
}

// List returns one page of live rows matching d and the total match count.
func (r *Repo[T]) List(ctx context.Context, d query.Descriptor) ([]T, int64, error) {
	var total int64
	if err := d.Where(r.db.WithContext(ctx).Model(new(T))).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	rows := make([]T, 0, d.Limit())
	if err := d.Apply(r.reader(ctx, false).Model(new(T))).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// Get fetches a row by id.  withDeleted includes soft-deleted rows.
func (r *Repo[T]) Get(ctx context.Context, id uint64, withDeleted bool) (T, error) {
	var row T
	err := r.reader(ctx, withDeleted).First(&row, id).Error
	return row, translate(err)
}

// Create inserts row without touching its associations and returns the
// stored row.  Unique index collisions surface as ErrConflict.
func (r *Repo[T]) Create(ctx context.Context, row *T) (T, error) {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(row).Error; err != nil {
		var zero T
		return zero, translateWrite(err)
	}
	return r.Get(ctx, (*row).PrimaryKey(), false)
}

// Update applies the column changes to a live row and returns it.  Each
// check sees the merged row before commit; a failing check rolls back and its
// error is returned as is.
func (r *Repo[T]) Update(ctx context.Context, id uint64, changes map[string]any, checks ...func(T) error) (T, error) {
	var failed error
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row T
		if err := tx.First(&row, id).Error; err != nil {
			return err
		}
		if len(changes) == 0 {
			return nil
		}
		if err := tx.Model(&row).Omit(clause.Associations).Updates(changes).Error; err != nil {
			return err
		}
		if len(checks) == 0 {
			return nil
		}
		var merged T
		if err := tx.First(&merged, id).Error; err != nil {
			return err
		}
		for _, check := range checks {
			if failed = check(merged); failed != nil {
				return failed
			}
		}
		return nil
	})
	if failed != nil {
		var zero T
		return zero, failed
	}
	if err != nil {
		var zero T
		return zero, translateWrite(err)
	}
	return r.Get(ctx, id, false)
}

// SoftDelete stamps deleted_at on a live row.
func (r *Repo[T]) SoftDelete(ctx context.Context, id uint64) error {
	res := r.db.WithContext(ctx).Delete(new(T), id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Restore clears deleted_at on a soft-deleted row.
func (r *Repo[T]) Restore(ctx context.Context, id uint64) error {
	return translate(r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Unscoped().Model(new(T)).
			Where("id = ? AND deleted_at IS NOT NULL", id).
			Update("deleted_at", nil)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 1 {
			return nil
		}
		return explainMiss[T](tx, id)
	}))
}

// ForceDelete permanently removes a soft-deleted row.
func (r *Repo[T]) ForceDelete(ctx context.Context, id uint64) error {
	return translate(r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Unscoped().Where("deleted_at IS NOT NULL").Delete(new(T), id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 1 {
			return nil
		}
		return explainMiss[T](tx, id)
	}))
}

// explainMiss tells apart a missing row from a live one after a conditional
// statement matched nothing.
func explainMiss[T model.Entity](tx *gorm.DB, id uint64) error {
	var row T
	if err := tx.Unscoped().First(&row, id).Error; err != nil {
		return err
	}
	if !row.Trashed() {
		return ErrNotSoftDeleted
	}
	// Soft-deleted after all: another request raced us. Report it as absent.
	return ErrNotFound
}

// statusID resolves a reference-table code to its row id.
func statusID[S model.Entity](tx *gorm.DB, code int) (uint64, error) {
	var row S
	if err := tx.Where("code = ?", code).First(&row).Error; err != nil {
		return 0, err
	}
	return row.PrimaryKey(), nil
}

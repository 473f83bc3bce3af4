package handler

import (
    "context"
    "net/http"
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/cinema-backoffice/internal/model"
    "github.com/iliyamo/cinema-backoffice/internal/query"
    "github.com/iliyamo/cinema-backoffice/internal/repository"
)

// Resource serves the CRUD and soft-delete lifecycle of one table.  C is the
// create body and U the partial update body; NewRow and Changes convert them.
type Resource[T model.Entity, C any, U any] struct {
    Name    string // shown in messages, e.g. "Customer"
    Repo    *repository.Repo[T]
    Query   query.Spec
    NewRow  func(C) (T, error)
    Changes func(U) (map[string]any, error)

    // Insert replaces Repo.Create when the row needs more than one statement.
    Insert func(ctx context.Context, row *T) (T, error)

    // Check validates the row after an update is merged, before commit.
    Check func(T) error
}

// Register mounts the routes on g.  The legacy POST /:id alias restores.
func (r *Resource[T, C, U]) Register(g *echo.Group) {
    g.GET("", r.List)
    g.GET("/:id", r.Get)
    g.POST("", r.Create)
    g.PUT("/:id", r.Update)
    g.PATCH("/:id", r.Update)
    g.DELETE("/:id", r.SoftDelete)
    g.POST("/:id/restore", r.Restore)
    g.POST("/:id", r.Restore)
    g.DELETE("/:id/destroy", r.ForceDelete)
}

// List handles GET / with filter, sort and pagination query parameters.
func (r *Resource[T, C, U]) List(c echo.Context) error {
    d, err := query.Parse(c.QueryParams(), r.Query)
    if err != nil {
        return err
    }
    rows, total, err := r.Repo.List(c.Request().Context(), d)
    if err != nil {
        return internalError(err)
    }
    return respondList(c, "Get all "+r.Name+" successfully", rows, d, total)
}

// Get handles GET /:id.  ?with_deleted=true also finds soft-deleted rows.
func (r *Resource[T, C, U]) Get(c echo.Context) error {
    id, err := parseID(c, "id")
    if err != nil {
        return err
    }
    withDeleted := false
    if raw := c.QueryParam("with_deleted"); raw != "" {
        if withDeleted, err = strconv.ParseBool(raw); err != nil {
            return newError(http.StatusBadRequest, "invalid with_deleted")
        }
    }
    row, err := r.Repo.Get(c.Request().Context(), id, withDeleted)
    if err != nil {
        return repoError(err, r.Name)
    }
    return respond(c, http.StatusOK, "Get "+r.Name+" successfully", 1, row)
}

func (r *Resource[T, C, U]) Create(c echo.Context) error {
    var in C
    if err := bindValid(c, &in); err != nil {
        return err
    }
    row, err := r.NewRow(in)
    if err != nil {
        return err
    }
    insert := r.Insert
    if insert == nil {
        insert = r.Repo.Create
    }
    created, err := insert(c.Request().Context(), &row)
    if err != nil {
        return repoError(err, r.Name)
    }
    return respond(c, http.StatusCreated, r.Name+" created successfully", 1, created)
}

// Update handles PUT and PATCH alike: only fields present in the body change.
func (r *Resource[T, C, U]) Update(c echo.Context) error {
    id, err := parseID(c, "id")
    if err != nil {
        return err
    }
    var in U
    if err := bindValid(c, &in); err != nil {
        return err
    }
    changes, err := r.Changes(in)
    if err != nil {
        return err
    }
    var checks []func(T) error
    if r.Check != nil {
        checks = append(checks, r.Check)
    }
    row, err := r.Repo.Update(c.Request().Context(), id, changes, checks...)
    if err != nil {
        return repoError(err, r.Name)
    }
    return respond(c, http.StatusOK, r.Name+" updated successfully", 1, row)
}

func (r *Resource[T, C, U]) SoftDelete(c echo.Context) error {
    id, err := parseID(c, "id")
    if err != nil {
        return err
    }
    if err := r.Repo.SoftDelete(c.Request().Context(), id); err != nil {
        return repoError(err, r.Name)
    }
    return respond(c, http.StatusOK, r.Name+" deleted successfully", 1, nil)
}

func (r *Resource[T, C, U]) Restore(c echo.Context) error {
    id, err := parseID(c, "id")
    if err != nil {
        return err
    }
    if err := r.Repo.Restore(c.Request().Context(), id); err != nil {
        return repoError(err, r.Name)
    }
    row, err := r.Repo.Get(c.Request().Context(), id, false)
    if err != nil {
        return repoError(err, r.Name)
    }
    return respond(c, http.StatusOK, r.Name+" restored successfully", 1, row)
}

func (r *Resource[T, C, U]) ForceDelete(c echo.Context) error {
    id, err := parseID(c, "id")
    if err != nil {
        return err
    }
    if err := r.Repo.ForceDelete(c.Request().Context(), id); err != nil {
        return repoError(err, r.Name)
    }
    return respond(c, http.StatusOK, r.Name+" destroyed successfully", 1, nil)
}

// bindValid decodes the body into dst and runs the registered validator.
func bindValid(c echo.Context, dst any) error {
    if err := c.Bind(dst); err != nil {
        return newError(http.StatusBadRequest, "invalid request body")
    }
    return c.Validate(dst)
}

package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/cinema-backoffice/internal/query"
)

// Envelope is the only response shape the API produces, for success and
// failure alike.  List responses carry the pagination fields at the top
// level; errors omit data.
type Envelope struct {
    Status  int    `json:"status"`
    Message string `json:"message"`
    *Pagination
    Count int `json:"count"`
    Data  any `json:"data,omitempty"`
}

// Pagination describes the page a list response holds.
type Pagination struct {
    Page        int   `json:"page"`
    PerPage     int   `json:"per_page"`
    TotalPage   int   `json:"total_page"`
    TotalRecord int64 `json:"total_record"`
}

func respond(c echo.Context, status int, message string, count int, data any) error {
    return c.JSON(status, Envelope{Status: status, Message: message, Count: count, Data: data})
}

func respondList[T any](c echo.Context, message string, rows []T, d query.Descriptor, total int64) error {
    if rows == nil {
        rows = []T{}
    }
    return c.JSON(http.StatusOK, Envelope{
        Status:  http.StatusOK,
        Message: message,
        Pagination: &Pagination{
            Page:        d.Page,
            PerPage:     d.PerPage,
            TotalPage:   d.TotalPages(total),
            TotalRecord: total,
        },
        Count: len(rows),
        Data:  rows,
    })
}

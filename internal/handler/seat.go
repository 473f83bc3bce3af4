package handler

import (
    "net/http"
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/cinema-backoffice/internal/repository"
)

type SeatHandler struct {
    Repo *repository.SeatRepo
}

// Available handles GET /v1/seats/available?show_time_id=
func (h *SeatHandler) Available(c echo.Context) error {
    id, err := strconv.ParseUint(c.QueryParam("show_time_id"), 10, 64)
    if err != nil || id == 0 {
        return newError(http.StatusBadRequest, "show_time_id is required")
    }
    seats, err := h.Repo.Available(c.Request().Context(), id)
    if err != nil {
        return repoError(err, "Show time")
    }
    return respond(c, http.StatusOK, "Get available seats successfully", len(seats), seats)
}

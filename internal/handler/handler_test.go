package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-backoffice/internal/query"
	"github.com/iliyamo/cinema-backoffice/internal/repository"
)

func render(t *testing.T, err error) (*httptest.ResponseRecorder, *logtest.Hook) {
	t.Helper()
	log, hook := logtest.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	e := echo.New()
	e.Validator = NewValidator()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	rec := c.Response().Writer.(*httptest.ResponseRecorder)
	ErrorHandler(log)(err, c)
	return rec, hook
}

func TestErrorHandler(t *testing.T) {
	v := NewValidator()
	vErr := v.Validate(&struct {
		Name string `json:"name" validate:"required"`
	}{})
	require.Error(t, vErr)

	cases := []struct {
		err     error
		status  int
		message string
	}{
		{newError(http.StatusConflict, "Seat already exists"), http.StatusConflict, "Seat already exists"},
		{fmt.Errorf("wrapped: %w", newError(http.StatusNotFound, "Order not found")), http.StatusNotFound, "Order not found"},
		{&query.ValidationError{Param: "page", Reason: "must be a positive integer"}, http.StatusBadRequest, `invalid query parameter "page": must be a positive integer`},
		{vErr, http.StatusBadRequest, "validation failed: name is required"},
		{echo.ErrNotFound, http.StatusNotFound, "Not Found"},
		{echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded"), http.StatusTooManyRequests, "rate limit exceeded"},
		{errors.New("dial tcp: connection refused"), http.StatusInternalServerError, "internal server error"},
	}
	for _, tc := range cases {
		rec, _ := render(t, tc.err)
		assert.Equal(t, tc.status, rec.Code, tc.err.Error())

		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.EqualValues(t, tc.status, body["status"])
		assert.Equal(t, tc.message, body["message"])
		assert.NotContains(t, body, "data")
		assert.NotContains(t, body, "page")
	}
}

func TestErrorHandler_LogsServerErrors(t *testing.T) {
	_, hook := render(t, internalError(errors.New("deadlock")))
	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.ErrorLevel, entry.Level)
	assert.Contains(t, entry.Data[logrus.ErrorKey].(error).Error(), "deadlock")
}

func TestRepoError(t *testing.T) {
	cases := map[error]int{
		repository.ErrNotFound:         http.StatusNotFound,
		repository.ErrConflict:         http.StatusConflict,
		repository.ErrNotSoftDeleted:   http.StatusBadRequest,
		repository.ErrStillReferenced:  http.StatusConflict,
		repository.ErrInvalidReference: http.StatusBadRequest,
		errors.New("boom"):             http.StatusInternalServerError,
	}
	for in, want := range cases {
		var appErr *Error
		require.True(t, errors.As(repoError(in, "Ticket"), &appErr))
		assert.Equal(t, want, appErr.Status, in.Error())
	}
	assert.NoError(t, repoError(nil, "Ticket"))
}

func TestEnvelopeShape(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	require.NoError(t, respondList(c, "Get all Seat successfully", []int(nil), query.Descriptor{Page: 2, PerPage: 5}, 11))

	assert.JSONEq(t, `{
		"status": 200,
		"message": "Get all Seat successfully",
		"page": 2,
		"per_page": 5,
		"total_page": 3,
		"total_record": 11,
		"count": 0,
		"data": []
	}`, rec.Body.String())

	rec = httptest.NewRecorder()
	c = e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	require.NoError(t, respond(c, http.StatusOK, "Seat deleted successfully", 1, nil))
	assert.JSONEq(t, `{"status":200,"message":"Seat deleted successfully","count":1}`, rec.Body.String())
}

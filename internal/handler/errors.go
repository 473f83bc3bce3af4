package handler

import (
    "errors"
    "fmt"
    "net/http"
    "strconv"

    "github.com/go-playground/validator/v10"
    "github.com/labstack/echo/v4"
    "github.com/sirupsen/logrus"

    "github.com/iliyamo/cinema-backoffice/internal/query"
    "github.com/iliyamo/cinema-backoffice/internal/repository"
)

// Error is a failure with the status and message to show the client.
// Internal, when set, is logged but never rendered.
type Error struct {
    Status   int
    Message  string
    Internal error
}

func (e *Error) Error() string {
    if e.Internal != nil {
        return fmt.Sprintf("%d %s: %v", e.Status, e.Message, e.Internal)
    }
    return fmt.Sprintf("%d %s", e.Status, e.Message)
}

func (e *Error) Unwrap() error { return e.Internal }

func newError(status int, message string) *Error {
    return &Error{Status: status, Message: message}
}

func internalError(err error) *Error {
    return &Error{Status: http.StatusInternalServerError, Message: "internal server error", Internal: err}
}

// repoError maps repository sentinels onto client errors for resource name.
func repoError(err error, name string) error {
    switch {
    case err == nil:
        return nil
    case errors.As(err, new(*Error)):
        return err
    case errors.Is(err, repository.ErrNotFound):
        return newError(http.StatusNotFound, name+" not found")
    case errors.Is(err, repository.ErrConflict):
        return newError(http.StatusConflict, name+" already exists")
    case errors.Is(err, repository.ErrNotSoftDeleted):
        return newError(http.StatusBadRequest, name+" must be soft deleted first")
    case errors.Is(err, repository.ErrStillReferenced):
        return newError(http.StatusConflict, name+" is still referenced by other records")
    case errors.Is(err, repository.ErrInvalidReference):
        return newError(http.StatusBadRequest, "referenced record does not exist")
    }
    return internalError(err)
}

// parseID reads the :id path parameter.
func parseID(c echo.Context, param string) (uint64, error) {
    id, err := strconv.ParseUint(c.Param(param), 10, 64)
    if err != nil || id == 0 {
        return 0, newError(http.StatusBadRequest, "invalid "+param)
    }
    return id, nil
}

// ErrorHandler renders every error returned by a handler or middleware as an
// Envelope.  Server-side failures are logged with their cause and shown to
// the client as a bare 500.
func ErrorHandler(log *logrus.Logger) echo.HTTPErrorHandler {
    return func(err error, c echo.Context) {
        if c.Response().Committed {
            return
        }

        status, message := http.StatusInternalServerError, "internal server error"
        var (
            appErr  *Error
            httpErr *echo.HTTPError
            qErr    *query.ValidationError
            vErr    validator.ValidationErrors
        )
        switch {
        case errors.As(err, &appErr):
            status, message = appErr.Status, appErr.Message
        case errors.As(err, &qErr):
            status, message = http.StatusBadRequest, qErr.Error()
        case errors.As(err, &vErr):
            status, message = http.StatusBadRequest, validationMessage(vErr)
        case errors.As(err, &httpErr):
            status = httpErr.Code
            message = http.StatusText(status)
            if m, ok := httpErr.Message.(string); ok && m != "" {
                message = m
            }
        }

        entry := log.WithFields(logrus.Fields{
            "method": c.Request().Method,
            "path":   c.Path(),
            "status": status,
            "id":     c.Response().Header().Get(echo.HeaderXRequestID),
        })
        if status >= http.StatusInternalServerError {
            entry.WithError(err).Error("request failed")
        } else {
            entry.WithError(err).Debug("request rejected")
        }

        var werr error
        if c.Request().Method == http.MethodHead {
            werr = c.NoContent(status)
        } else {
            werr = c.JSON(status, Envelope{Status: status, Message: message})
        }
        if werr != nil {
            log.WithError(werr).Warn("write error response")
        }
    }
}

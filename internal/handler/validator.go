package handler

import (
    "fmt"
    "reflect"
    "strings"

    "github.com/go-playground/validator/v10"
)

// Validator adapts validator/v10 to echo.Validator.  Field names in messages
// use the json tag so they match the request body.
type Validator struct {
    v *validator.Validate
}

func NewValidator() *Validator {
    v := validator.New(validator.WithRequiredStructEnabled())
    v.RegisterTagNameFunc(func(f reflect.StructField) string {
        name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
        if name == "-" {
            return ""
        }
        return name
    })
    return &Validator{v: v}
}

func (cv *Validator) Validate(i interface{}) error {
    return cv.v.Struct(i)
}

func validationMessage(errs validator.ValidationErrors) string {
    parts := make([]string, 0, len(errs))
    for _, fe := range errs {
        parts = append(parts, fieldMessage(fe))
    }
    return "validation failed: " + strings.Join(parts, "; ")
}

func fieldMessage(fe validator.FieldError) string {
    field := fe.Namespace()
    // Drop the Go type name that prefixes the namespace.
    if _, rest, ok := strings.Cut(field, "."); ok {
        field = rest
    }
    switch fe.Tag() {
    case "required":
        return field + " is required"
    case "email":
        return field + " must be a valid email"
    case "url":
        return field + " must be a valid URL"
    case "min", "gte":
        return fmt.Sprintf("%s must be at least %s", field, fe.Param())
    case "max", "lte":
        return fmt.Sprintf("%s must be at most %s", field, fe.Param())
    case "oneof":
        return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
    case "gtfield":
        return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
    }
    return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
}

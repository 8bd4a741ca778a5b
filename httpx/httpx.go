// Package httpx holds the request/response plumbing shared by every handler
// package: JSON encoding, standardized error responses, body decoding, and
// struct validation. Keeping these in one place means every endpoint speaks
// the same dialect.
package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/user/mealvault-go/apperror"
)

// validate is the shared validator instance. Field names in error detail are
// taken from json struct tags so clients see the names they actually sent.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return v
}

// WriteJSON serializes data to JSON and writes it with the given status.
// A nil data writes only the status line, never a literal "null" body.
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, `{"error":"failed to encode response"}`, http.StatusInternalServerError)
	}
}

// WriteError converts any error into a standardized error response. Errors
// that are not *AppError are wrapped as internal errors so nothing leaks to
// the client, and server-side failures are logged with request context.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	appErr, ok := apperror.FromError(err)
	if !ok {
		appErr = apperror.NewInternalError("an unexpected error occurred", err)
	}
	if appErr.StatusCode() >= http.StatusInternalServerError {
		log.Printf("error handling %s %s: %v", r.Method, r.URL.Path, appErr)
	}
	WriteJSON(w, appErr.StatusCode(), appErr.ToResponse())
}

// DecodeJSON reads the request body into dst, reporting malformed payloads
// as a bad request.
func DecodeJSON(r *http.Request, dst interface{}) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperror.NewBadRequestError("invalid request body: "+err.Error(), err)
	}
	return nil
}

// ValidateStruct runs validator tags over v and translates any failures into
// a field-keyed validation error.
func ValidateStruct(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperror.NewInternalError("validation failed", err)
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fieldMessage(fe)
	}
	return apperror.NewFieldValidationError("invalid input", fields)
}

// fieldMessage renders a single validator failure as a short human-readable
// sentence fragment.
func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be %s or more", fe.Param())
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

// MethodNotAllowed is the router-wide fallback for unsupported methods, so a
// POST to a read-only endpoint gets the same JSON error shape as everything
// else.
func MethodNotAllowed() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, r, apperror.NewMethodNotAllowedError(
			fmt.Sprintf("method %s is not allowed on this endpoint", r.Method)))
	}
}

// NotFound is the router-wide fallback for unknown paths.
func NotFound() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, r, apperror.NewNotFoundError("resource not found", nil))
	}
}

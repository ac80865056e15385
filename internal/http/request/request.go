// Package request decodes and validates request bodies.
package request

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/tally/internal/apperr"
)

// MaxJSONBytes caps the size of a JSON request body.
const MaxJSONBytes = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}

		return name
	})

	return v
}

// DecodeJSON strictly decodes the body into dst and validates it.
// Unknown fields, trailing data and bodies over MaxJSONBytes are rejected.
func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, MaxJSONBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return apperr.Wrap(apperr.KindValidation, describe(err), err)
	}

	if dec.More() {
		return apperr.Validation("request body must contain a single JSON object")
	}

	return Validate(dst)
}

// Validate runs the struct's validate tags.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return apperr.Wrap(apperr.KindValidation, fieldMessage(verrs[0]), err)
	}

	return apperr.Wrap(apperr.KindValidation, "invalid request", err)
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters long", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters long", fe.Field(), fe.Param())
	case "uuid":
		return fe.Field() + " must be a valid id"
	}

	return fe.Field() + " is invalid"
}

func describe(err error) string {
	var (
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
		maxErr    *http.MaxBytesError
	)

	switch {
	case errors.As(err, &maxErr):
		return "request body is too large"
	case errors.Is(err, io.EOF):
		return "request body is required"
	case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
		return "malformed JSON body"
	case errors.As(err, &typeErr):
		if typeErr.Field != "" {
			return typeErr.Field + " has the wrong type"
		}

		return "request body has the wrong type"
	case strings.HasPrefix(err.Error(), "json: unknown field "):
		return "unknown field " + strings.TrimPrefix(err.Error(), "json: unknown field ")
	}

	var fieldErr *FieldError
	if errors.As(err, &fieldErr) {
		return fieldErr.Error()
	}

	return "invalid request body"
}

// FieldError reports a value that could not be decoded into a named field.
type FieldError struct {
	Field string
	Want  string
}

func (e *FieldError) Error() string {
	return e.Field + " must be " + e.Want
}

// ID parses the {id} URL parameter. A malformed id cannot name an existing
// record, so it is reported with notFound.
func ID(r *http.Request, notFound error) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, notFound
	}

	return id, nil
}

// Date accepts RFC 3339 timestamps and plain YYYY-MM-DD dates.
type Date struct {
	time.Time
}

func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}

	return time.Parse(time.DateOnly, s)
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return &FieldError{Field: "date", Want: "a date string"}
	}

	t, err := ParseDate(s)
	if err != nil {
		return &FieldError{Field: "date", Want: "an RFC 3339 timestamp or YYYY-MM-DD"}
	}

	d.Time = t

	return nil
}

// OptionalID distinguishes an absent id from an explicit null or "".
type OptionalID struct {
	Set bool
	ID  *uuid.UUID
}

func (o *OptionalID) UnmarshalJSON(b []byte) error {
	o.Set = true

	if string(b) == "null" {
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return &FieldError{Field: "category", Want: "an id string"}
	}

	id, err := parseID(s)
	if err != nil {
		return err
	}

	o.ID = id

	return nil
}

// ParseOptionalID reads an id from a form value. "" and "null" clear it.
func ParseOptionalID(s string) (OptionalID, error) {
	id, err := parseID(s)
	if err != nil {
		return OptionalID{}, err
	}

	return OptionalID{Set: true, ID: id}, nil
}

func parseID(s string) (*uuid.UUID, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "null" {
		return nil, nil
	}

	id, err := uuid.Parse(s)
	if err != nil {
		return nil, &FieldError{Field: "category", Want: "a valid id"}
	}

	return &id, nil
}

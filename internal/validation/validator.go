// Package validation checks content records against their schema using
// go-playground/validator. A single validator instance is shared because it
// caches struct metadata and is safe for concurrent use.
package validation

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"
	"sync"

	"engagement-optimizer/internal/model"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// RecordError describes the first schema violation found in a record.
// It wraps model.ErrInvalidRecord.
type RecordError struct {
	// Row is the caller's position for the record (a file line, a slice index).
	Row   int
	ID    string
	Field string
	Tag   string
	Value any
	msg   string
}

func (e *RecordError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("record %d (%s): %s", e.Row, e.ID, e.msg)
	}
	return fmt.Sprintf("record %d: %s", e.Row, e.msg)
}

func (e *RecordError) Unwrap() error { return model.ErrInvalidRecord }

// NewRecordError builds a RecordError for a field that failed before struct
// validation could run (for example, a cell that is not an integer).
func NewRecordError(row int, field string, value any, format string, args ...any) *RecordError {
	return &RecordError{
		Row:   row,
		Field: field,
		Tag:   "parse",
		Value: value,
		msg:   field + ": " + fmt.Sprintf(format, args...),
	}
}

// GetValidator returns the shared validator with the custom tags registered.
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})
		// finite rejects NaN and ±Inf.
		_ = validate.RegisterValidation("finite", func(fl validator.FieldLevel) bool {
			switch fl.Field().Kind() {
			case reflect.Float32, reflect.Float64:
				v := fl.Field().Float()
				return !math.IsNaN(v) && !math.IsInf(v, 0)
			default:
				return true
			}
		})
	})
	return validate
}

// ValidateRecord checks one record. It returns nil or a *RecordError.
func ValidateRecord(row int, r model.ContentRecord) error {
	err := GetValidator().Struct(r)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &RecordError{Row: row, ID: r.ID, msg: err.Error()}
	}
	fe := verrs[0]
	return &RecordError{
		Row:   row,
		ID:    r.ID,
		Field: fe.Field(),
		Tag:   fe.Tag(),
		Value: fe.Value(),
		msg:   formatMessage(fe),
	}
}

func formatMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "gte":
		return fmt.Sprintf("%s must be >= %s, got %v", fe.Field(), fe.Param(), fe.Value())
	case "finite":
		return fmt.Sprintf("%s must be a finite number, got %v", fe.Field(), fe.Value())
	default:
		return fmt.Sprintf("%s failed %q validation", fe.Field(), fe.Tag())
	}
}

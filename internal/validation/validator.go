// Palate - Taste Profile Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// CodeValidationError is the API error code for rejected request bodies.
const CodeValidationError = "VALIDATION_ERROR"

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// FieldError is one failed rule on one field.
type FieldError struct {
	field   string
	tag     string
	param   string
	value   any
	message string
}

// Field returns the JSON path of the field, e.g. "preferences.cuisines[1]".
func (e *FieldError) Field() string { return e.field }

// Tag returns the rule that failed.
func (e *FieldError) Tag() string { return e.tag }

// Param returns the rule parameter ("100" for "max=100").
func (e *FieldError) Param() string { return e.param }

// Value returns the rejected value.
func (e *FieldError) Value() any { return e.value }

func (e *FieldError) Error() string { return e.message }

// RequestValidationError collects every failed rule of one struct.
type RequestValidationError struct {
	errors []FieldError
}

// Errors returns the individual field failures.
func (ve *RequestValidationError) Errors() []FieldError {
	return ve.errors
}

func (ve *RequestValidationError) Error() string {
	if len(ve.errors) == 0 {
		return "validation failed"
	}
	messages := make([]string, len(ve.errors))
	for i := range ve.errors {
		messages[i] = ve.errors[i].message
	}
	return strings.Join(messages, "; ")
}

// APIError mirrors models.APIError without importing models.
type APIError struct {
	Code    string
	Message string
	Details map[string]any
}

// ToAPIError converts the failures into the API error envelope.
func (ve *RequestValidationError) ToAPIError() *APIError {
	switch len(ve.errors) {
	case 0:
		return &APIError{Code: CodeValidationError, Message: "Validation failed"}
	case 1:
		fe := ve.errors[0]
		return &APIError{
			Code:    CodeValidationError,
			Message: fe.message,
			Details: map[string]any{"field": fe.field, "tag": fe.tag},
		}
	}

	fields := make([]map[string]any, len(ve.errors))
	for i, fe := range ve.errors {
		fields[i] = map[string]any{"field": fe.field, "tag": fe.tag, "message": fe.message}
	}
	return &APIError{
		Code:    CodeValidationError,
		Message: ve.Error(),
		Details: map[string]any{"fields": fields},
	}
}

// enumerated is implemented by the closed-set enums in models.
type enumerated interface {
	Valid() bool
}

// GetValidator returns the shared validator. Field names in errors are the
// JSON names, and the "known" tag accepts any value whose Valid method
// reports true.
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(jsonName)
		if err := validate.RegisterValidation("known", validateKnown); err != nil {
			panic(fmt.Sprintf("validation: register known: %v", err))
		}
	})
	return validate
}

func jsonName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	switch name {
	case "-":
		return ""
	case "":
		return f.Name
	}
	return name
}

func validateKnown(fl validator.FieldLevel) bool {
	field := fl.Field()
	if !field.CanInterface() {
		return false
	}
	e, ok := field.Interface().(enumerated)
	if !ok {
		return false
	}
	return e.Valid()
}

// ValidateStruct validates s, returning nil when every rule passes.
func ValidateStruct(s any) *RequestValidationError {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return &RequestValidationError{errors: []FieldError{{field: "body", tag: "invalid", message: err.Error()}}}
	}

	out := make([]FieldError, len(fieldErrs))
	for i, fe := range fieldErrs {
		path := fieldPath(fe)
		out[i] = FieldError{
			field:   path,
			tag:     fe.Tag(),
			param:   fe.Param(),
			value:   fe.Value(),
			message: translate(fe, path),
		}
	}
	return &RequestValidationError{errors: out}
}

// fieldPath drops the root struct name from the namespace.
func fieldPath(fe validator.FieldError) string {
	if _, rest, ok := strings.Cut(fe.Namespace(), "."); ok {
		return rest
	}
	return fe.Field()
}

var messageTemplates = map[string]string{
	"required": "%s is required",
	"known":    "%s is not a recognized value",
}

var paramTemplates = map[string]string{
	"oneof": "%s must be one of: %s",
	"gte":   "%s must be greater than or equal to %s",
	"lte":   "%s must be less than or equal to %s",
	"gt":    "%s must be greater than %s",
	"lt":    "%s must be less than %s",
}

func translate(fe validator.FieldError, field string) string {
	tag, param := fe.Tag(), fe.Param()
	if tmpl, ok := messageTemplates[tag]; ok {
		return fmt.Sprintf(tmpl, field)
	}
	if tmpl, ok := paramTemplates[tag]; ok {
		return fmt.Sprintf(tmpl, field, param)
	}

	var unit string
	switch fe.Kind() {
	case reflect.String:
		unit = " characters"
	case reflect.Slice, reflect.Array, reflect.Map:
		unit = " items"
	}
	switch tag {
	case "min":
		return fmt.Sprintf("%s must be at least %s%s", field, param, unit)
	case "max":
		return fmt.Sprintf("%s must be at most %s%s", field, param, unit)
	}
	return fmt.Sprintf("%s failed %s validation", field, tag)
}

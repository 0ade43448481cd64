// Package validation validates decoded request payloads and turns validator
// failures into short, human readable messages.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Field limits shared by the public forms.
const (
	MaxNameLength    = 100
	MinNameLength    = 2
	MaxMessageLength = 5000
	MinMessageLength = 10
	MaxPhoneLength   = 40
	MaxCompanyLength = 120
	MaxEmailLength   = 254
	MaxSourceLength  = 100
)

// DefaultLocale is used when a request carries no usable locale.
const DefaultLocale = "en"

// SupportedLocales lists the locales the site is published in.
var SupportedLocales = []string{"en", "de"}

// ServiceSlugs are the services a visitor can ask about on the contact form.
var ServiceSlugs = []string{"strategy", "operations", "growth", "finance", "franchise", "fundraising", "other"}

// Error describes the first field that failed validation.
type Error struct {
	Field   string
	Tag     string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})

	mustRegister(v, "locale", func(fl validator.FieldLevel) bool {
		return IsSupportedLocale(fl.Field().String())
	})
	mustRegister(v, "service", func(fl validator.FieldLevel) bool {
		return contains(ServiceSlugs, fl.Field().String())
	})

	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("validation: register %q: %v", tag, err))
	}
}

// Struct validates s and returns an *Error for the first failing field.
func Struct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
		return fromFieldError(validationErrors[0])
	}
	return fmt.Errorf("validation error: %w", err)
}

// Var validates a single value against tag. field names it in the message.
func Var(field string, v any, tag string) error {
	err := validate.Var(v, tag)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
		fe := validationErrors[0]
		return &Error{Field: field, Tag: fe.Tag(), Message: message(field, fe)}
	}
	return fmt.Errorf("validation error: %w", err)
}

func fromFieldError(fe validator.FieldError) *Error {
	field := fieldPath(fe)
	return &Error{
		Field:   field,
		Tag:     fe.Tag(),
		Message: message(field, fe),
	}
}

// fieldPath drops the root struct name from the namespace so nested fields
// read like "stages[1].name".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func message(field string, fe validator.FieldError) string {
	param := fe.Param()
	kind := fe.Kind()

	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email address"
	case "url", "http_url":
		return field + " must be a valid URL"
	case "locale":
		return fmt.Sprintf("%s must be one of: %s", field, strings.Join(SupportedLocales, ", "))
	case "service":
		return fmt.Sprintf("%s must be one of: %s", field, strings.Join(ServiceSlugs, ", "))
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.Join(strings.Fields(param), ", "))
	case "eq":
		if kind == reflect.Bool && param == "true" {
			return field + " must be accepted"
		}
		return fmt.Sprintf("%s must equal %s", field, param)
	case "min":
		return boundMessage(field, kind, "at least", param)
	case "max":
		return boundMessage(field, kind, "at most", param)
	case "len":
		return boundMessage(field, kind, "exactly", param)
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, param)
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, param)
	case "lt":
		return fmt.Sprintf("%s must be less than %s", field, param)
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, param)
	default:
		return field + " is invalid"
	}
}

func boundMessage(field string, kind reflect.Kind, qualifier, param string) string {
	switch kind {
	case reflect.String:
		return fmt.Sprintf("%s must be %s %s characters", field, qualifier, param)
	case reflect.Slice, reflect.Array, reflect.Map:
		return fmt.Sprintf("%s must contain %s %s items", field, qualifier, param)
	default:
		return fmt.Sprintf("%s must be %s %s", field, qualifier, param)
	}
}

// IsSupportedLocale reports whether locale is one the site is published in.
func IsSupportedLocale(locale string) bool {
	return contains(SupportedLocales, locale)
}

// NormalizeLocale returns locale, or fallback when locale is empty or
// unsupported. Request input is checked with the locale tag first, so
// "DE" or "fr" never get this far from an HTTP handler.
func NormalizeLocale(locale, fallback string) string {
	if IsSupportedLocale(locale) {
		return locale
	}
	if IsSupportedLocale(fallback) {
		return fallback
	}
	return DefaultLocale
}

// NormalizeEmail trims and lower-cases an address for storage and lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

package handler

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/searchblog/blog-auth/internal/core/domain"
)

// redactedValue replaces rejected values of write-only fields.
const redactedValue = "[redacted]"

// echoValidator wraps go-playground/validator so Echo can call c.Validate(req).
type echoValidator struct {
	v *validator.Validate
}

// NewValidator returns an echoValidator ready to be assigned to echo.Echo.Validator.
// Field names in errors are the JSON names; values of fields tagged
// `redact:"true"` are never echoed back.
func NewValidator() *echoValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		switch name {
		case "-":
			return ""
		case "":
			return f.Name
		}
		return name
	})
	// maxbytes bounds the UTF-8 encoded length; bcrypt rejects input over 72 bytes.
	_ = v.RegisterValidation("maxbytes", func(fl validator.FieldLevel) bool {
		limit, err := strconv.Atoi(fl.Param())
		if err != nil {
			return false
		}
		return len(fl.Field().String()) <= limit
	})
	return &echoValidator{v: v}
}

// Validate satisfies the echo.Validator interface. Field failures are
// returned as *domain.ValidationError.
func (ev *echoValidator) Validate(i any) error {
	err := ev.v.Struct(i)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}

	redacted := redactedFields(i)
	out := &domain.ValidationError{Fields: make([]domain.FieldError, 0, len(ve))}
	for _, fe := range ve {
		value := fmt.Sprintf("%v", fe.Value())
		if _, ok := redacted[fe.StructField()]; ok {
			value = redactedValue
		}
		out.Fields = append(out.Fields, domain.FieldError{
			Field:  fe.Field(),
			Value:  value,
			Reason: fieldReason(fe),
		})
	}
	return out
}

// redactedFields lists struct fields of i tagged redact:"true".
func redactedFields(i any) map[string]struct{} {
	t := reflect.TypeOf(i)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	out := make(map[string]struct{})
	if t == nil || t.Kind() != reflect.Struct {
		return out
	}
	for idx := 0; idx < t.NumField(); idx++ {
		if f := t.Field(idx); f.Tag.Get("redact") == "true" {
			out[f.Name] = struct{}{}
		}
	}
	return out
}

// fieldReason converts a single FieldError into a human-readable reason.
func fieldReason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "must not be empty"
	case "min":
		return fmt.Sprintf("size must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("size must be at most %s", fe.Param())
	case "maxbytes":
		return fmt.Sprintf("size must be at most %s bytes", fe.Param())
	case "email":
		return "must be a valid email"
	default:
		return fmt.Sprintf("failed validation (%s)", fe.Tag())
	}
}

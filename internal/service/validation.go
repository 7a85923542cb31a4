package service

import (
	"errors"
	"reflect"
	"strings"

	"github.com/fjod/fruitables/internal/domain"
	"github.com/go-playground/validator/v10"
)

// newValidator reports fields by their json names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateStruct runs the struct tags of s and converts failures to a *domain.ValidationError.
func validateStruct(v *validator.Validate, s any) *domain.ValidationError {
	err := v.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return domain.NewValidationError(err.Error())
	}

	out := &domain.ValidationError{Fields: make(map[string]string, len(verrs))}
	for _, fe := range verrs {
		out.Fields[fe.Field()] = fieldMessage(fe)
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "email":
		return "enter a valid email address"
	case "min":
		if isNumeric(fe.Kind()) {
			return "ensure this value is greater than or equal to " + fe.Param()
		}
		return "ensure this value has at least " + fe.Param() + " characters"
	case "max":
		if isNumeric(fe.Kind()) {
			return "ensure this value is less than or equal to " + fe.Param()
		}
		return "ensure this value has at most " + fe.Param() + " characters"
	default:
		return "invalid value"
	}
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}

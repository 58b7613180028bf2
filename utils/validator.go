package utils

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// report fields by their json names so details match the request body
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// FieldError describes one rejected field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors is returned by ValidateStruct when the input breaks at
// least one rule
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	msgs := make([]string, 0, len(v))
	for _, fe := range v {
		msgs = append(msgs, fe.Message)
	}
	return strings.Join(msgs, ", ")
}

func ValidateStruct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	out := make(ValidationErrors, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Field()
		param := fe.Param()

		var msg string
		switch fe.Tag() {
		case "required":
			msg = field + " is required"
		case "min":
			if isNumeric(fe.Kind()) {
				msg = field + " must be at least " + param
			} else {
				msg = field + " must be at least " + param + " characters"
			}
		case "max":
			if isNumeric(fe.Kind()) {
				msg = field + " must be at most " + param
			} else {
				msg = field + " must be at most " + param + " characters"
			}
		case "gt":
			msg = field + " must be greater than " + param
		case "gte":
			msg = field + " must be at least " + param
		case "oneof":
			msg = field + " must be one of: " + strings.ReplaceAll(param, " ", ", ")
		case "email":
			msg = field + " must be a valid email"
		default:
			msg = field + " is invalid"
		}
		out = append(out, FieldError{Field: field, Message: msg})
	}
	return out
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

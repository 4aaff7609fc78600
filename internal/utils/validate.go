package utils

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their JSON names so messages match the request body.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return strings.ToLower(f.Name)
		}
		return name
	})
	return v
}

// ValidateStruct checks s against its `validate` tags and returns a single
// error listing every violation, or nil.
func ValidateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return errors.New(strings.Join(msgs, ", "))
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	param := fe.Param()
	numeric := isNumeric(fe.Kind())

	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min", "gte":
		if numeric {
			return field + " must be at least " + param
		}
		return field + " must be at least " + param + " characters"
	case "max", "lte":
		if numeric {
			return field + " must be at most " + param
		}
		return field + " must be at most " + param + " characters"
	case "email":
		return field + " must be a valid email"
	case "len":
		return field + " must be exactly " + param + " characters"
	}
	return field + " is invalid"
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

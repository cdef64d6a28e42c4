package config

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/idelchi/gogen/pkg/validator"
)

// registerExclusive adds a custom validator ensuring a field is not set
// together with any of the fields whose labels its parameter lists.
// Field names in messages are taken from the label tag.
func registerExclusive(validator *validator.Validator) error {
	if err := validator.RegisterValidationAndTranslation(
		"exclusive",
		validateExclusive,
		"{0} is mutually exclusive with {1}",
	); err != nil {
		return fmt.Errorf("registering exclusive validation: %w", err)
	}

	validator.Validator().RegisterTagNameFunc(func(fld reflect.StructField) string {
		const splitSize = 2

		name := strings.SplitN(fld.Tag.Get("label"), ",", splitSize)[0]
		if name == "-" || name == "" {
			return fld.Name
		}

		return name
	})

	return nil
}

// validateExclusive returns false if the field and any of the labelled
// fields are set.
func validateExclusive(fl validator.FieldLevel) bool {
	if !isSet(fl.Field()) {
		return true
	}

	for _, label := range strings.Fields(fl.Param()) {
		if isSet(fieldByLabel(fl.Parent(), label)) {
			return false
		}
	}

	return true
}

func fieldByLabel(parent reflect.Value, label string) reflect.Value {
	if parent.Kind() == reflect.Pointer {
		parent = parent.Elem()
	}

	if parent.Kind() != reflect.Struct {
		return reflect.Value{}
	}

	typ := parent.Type()

	for i := range typ.NumField() {
		if typ.Field(i).Tag.Get("label") == label {
			return parent.Field(i)
		}
	}

	return reflect.Value{}
}

func isSet(v reflect.Value) bool {
	if !v.IsValid() {
		return false
	}

	switch v.Kind() { //nolint:exhaustive
	case reflect.Bool:
		return v.Bool()
	case reflect.String:
		return v.String() != ""
	default:
		return !v.IsZero()
	}
}

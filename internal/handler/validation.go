package handler

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/kursadbilgin/bulk-submission-engine/internal/domain"
)

type requestValidator struct{ v *validator.Validate }

func newRequestValidator() *requestValidator {
	v := validator.New()

	// Report fields by their JSON names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &requestValidator{v: v}
}

// validate checks a request body and returns an ErrBadRequest listing every
// failed field.
func (rv *requestValidator) validate(req any) error {
	err := rv.v.Struct(req)
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return fmt.Errorf("%w: %v", domain.ErrBadRequest, err)
	}

	messages := make([]string, 0, len(ve))
	for _, e := range ve {
		field := e.Namespace()
		if i := strings.IndexByte(field, '.'); i >= 0 {
			field = field[i+1:]
		}
		switch e.Tag() {
		case "required":
			messages = append(messages, field+" is required")
		case "oneof":
			messages = append(messages, field+" must be one of "+e.Param())
		case "gte", "min":
			messages = append(messages, field+" must be greater than or equal to "+e.Param())
		case "lte", "max":
			messages = append(messages, field+" must be less than or equal to "+e.Param())
		default:
			messages = append(messages, field+" "+e.Tag()+" validation failed")
		}
	}
	return fmt.Errorf("%w: %s", domain.ErrBadRequest, strings.Join(messages, "; "))
}

// Package validate checks request contracts before they reach a service.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var v *validator.Validate

func init() {
	v = validator.New(validator.WithRequiredStructEnabled())

	// report fields by their JSON names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
}

// Error lists every field that failed.
type Error struct {
	Fields []string
}

func (e *Error) Error() string {
	return "invalid request: " + strings.Join(e.Fields, "; ")
}

// Struct validates s against its validate tags. It returns *Error on failure.
func Struct(s interface{}) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &Error{}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, describe(fe))
	}
	return out
}

func describe(fe validator.FieldError) string {
	field := strings.SplitN(fe.Namespace(), ".", 2)
	path := fe.Namespace()
	if len(field) == 2 {
		path = field[1]
	}
	switch fe.Tag() {
	case "required", "notblank":
		return fmt.Sprintf("%s is required", path)
	case "uuid", "uuid4":
		return fmt.Sprintf("%s must be a UUID", path)
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", path, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s", path, fe.Tag())
	}
}

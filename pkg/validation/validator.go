package validation

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate *validator.Validate
	once     sync.Once
)

// Validator returns the shared validator with the custom tags registered
func Validator() *validator.Validate {
	once.Do(func() {
		validate = validator.New()

		// report fields by their query/json name
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			for _, tag := range []string{"form", "json"} {
				name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
				if name != "" && name != "-" {
					return name
				}
			}
			return fld.Name
		})

		_ = validate.RegisterValidation("time_window", oneOfFunc("daily", "weekly", "monthly", "all"))
		_ = validate.RegisterValidation("granularity", oneOfFunc("daily", "weekly", "monthly"))
		_ = validate.RegisterValidation("attribution", oneOfFunc("start", "end"))
		_ = validate.RegisterValidation("sort_dir", oneOfFunc("asc", "desc"))
		_ = validate.RegisterValidation("history_window", oneOfFunc("today", "week", "month", "all"))
	})
	return validate
}

func oneOfFunc(allowed ...string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		value := fl.Field().String()
		if value == "" {
			return true
		}
		for _, a := range allowed {
			if value == a {
				return true
			}
		}
		return false
	}
}

// ValidateStruct validates s and converts failures into a ValidationError
func ValidateStruct(s interface{}) error {
	err := Validator().Struct(s)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		return NewValidationError(validationErrs)
	}
	return err
}

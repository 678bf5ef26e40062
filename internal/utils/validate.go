package utils

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/ArthurDelaporte/CommunityFeed-Back/internal/apperr"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		// Les messages utilisent le nom JSON du champ
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "" || name == "-" {
				return f.Name
			}
			return name
		})
	})
	return validate
}

// Validate applique les tags `validate` et retourne une erreur InvalidInput
// portant le premier champ en faute. max= compte les caractères (runes).
func Validate(v interface{}) error {
	err := validatorInstance().Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return apperr.Invalid("invalid input")
	}

	fe := fieldErrs[0]
	switch fe.Tag() {
	case "required":
		return apperr.Invalid(fmt.Sprintf("%s is required", fe.Field()))
	case "max":
		return apperr.Invalid(fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param()))
	case "oneof":
		return apperr.Invalid(fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param()))
	default:
		return apperr.Invalid(fmt.Sprintf("%s is invalid", fe.Field()))
	}
}

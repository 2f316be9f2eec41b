package validator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type ErrorResponse struct {
	FailedField string
	Tag         string
	Value       string
}

var validate = validator.New()

func init() {
	// Register custom validation for UUID
	validate.RegisterValidation("uuid_required", func(fl validator.FieldLevel) bool {
		if id, ok := fl.Field().Interface().(uuid.UUID); ok {
			return id != uuid.Nil
		}
		return false
	})

	// Custom metadata keys must not collide with the reserved "_" namespace.
	validate.RegisterValidation("meta_key", func(fl validator.FieldLevel) bool {
		key := fl.Field().String()
		return key != "" && len(key) <= 255 && !strings.HasPrefix(key, "_")
	})
}

func ValidateStruct(data interface{}) []*ErrorResponse {
	var errs []*ErrorResponse
	err := validate.Struct(data)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []*ErrorResponse{{FailedField: "", Tag: "invalid", Value: err.Error()}}
	}
	for _, fe := range verrs {
		errs = append(errs, &ErrorResponse{
			FailedField: fe.StructNamespace(),
			Tag:         fe.Tag(),
			Value:       fe.Param(),
		})
	}
	return errs
}

// FirstError validates data and returns the first failure as an error, or nil.
func FirstError(data interface{}) error {
	errs := ValidateStruct(data)
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("Validation failed: Field '%s' failed on tag '%s'", errs[0].FailedField, errs[0].Tag)
}

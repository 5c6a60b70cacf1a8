package validator

import (
	"errors"
	"regexp"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type ErrorResponse struct {
	FailedField string `json:"field"`
	Tag         string `json:"tag"`
	Value       string `json:"param,omitempty"`
}

var (
	validate      = validator.New()
	invoicePrefix = regexp.MustCompile(`^[A-Z0-9]{1,10}$`)
)

func init() {
	validate.RegisterValidation("uuid_required", func(fl validator.FieldLevel) bool {
		if id, ok := fl.Field().Interface().(uuid.UUID); ok {
			return id != uuid.Nil
		}
		return false
	})

	// Invoice prefixes end up inside PREFIX-YEAR-NN, so they may not contain
	// the separator or anything lower case.
	validate.RegisterValidation("invoice_prefix", func(fl validator.FieldLevel) bool {
		return invoicePrefix.MatchString(fl.Field().String())
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
		return []*ErrorResponse{{FailedField: "", Tag: err.Error()}}
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

// ValidateVar checks a single value against a tag list such as
// "required,invoice_prefix".
func ValidateVar(field interface{}, tag string) error {
	return validate.Var(field, tag)
}

package dto

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/bibbank/appraisal/internal/domain/valueobject"
	"github.com/bibbank/appraisal/pkg/money"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("iso4217", validateISO4217)
	_ = v.RegisterValidation("stage", validateStage)
	_ = v.RegisterValidation("decision", validateDecision)
	_ = v.RegisterValidation("guarantee_type", validateGuaranteeType)
	_ = v.RegisterValidation("application_status", validateApplicationStatus)
	return v
}

// Validate checks req against its validate tags. The first failing field is
// returned as a *valueobject.ValidationError.
func Validate(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return valueobject.NewValidationError(fieldPath(fe), describe(fe))
	}
	return fmt.Errorf("validate request: %w", err)
}

// fieldPath drops the top-level struct name from the namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		if fe.Kind() == reflect.String {
			return "must be at most " + fe.Param() + " characters"
		}
		return "must be at most " + fe.Param()
	case "iso4217":
		return fmt.Sprintf("%q is not an ISO 4217 currency code", fe.Value())
	case "stage":
		return fmt.Sprintf("%q is not a decision stage", fe.Value())
	case "decision":
		return fmt.Sprintf("%q is not a decision", fe.Value())
	case "guarantee_type":
		return fmt.Sprintf("%q is not a guarantee type", fe.Value())
	case "application_status":
		return fmt.Sprintf("%q is not an application status", fe.Value())
	default:
		return "failed " + fe.Tag() + " check"
	}
}

func validateISO4217(fl validator.FieldLevel) bool {
	_, err := money.NewCurrency(fl.Field().String())
	return err == nil
}

func validateStage(fl validator.FieldLevel) bool {
	_, err := valueobject.NewDecisionStage(fl.Field().String())
	return err == nil
}

func validateDecision(fl validator.FieldLevel) bool {
	_, err := valueobject.NewDecision(fl.Field().String())
	return err == nil
}

func validateGuaranteeType(fl validator.FieldLevel) bool {
	_, err := valueobject.NewGuaranteeType(fl.Field().String())
	return err == nil
}

func validateApplicationStatus(fl validator.FieldLevel) bool {
	_, err := valueobject.NewApplicationStatus(fl.Field().String())
	return err == nil
}

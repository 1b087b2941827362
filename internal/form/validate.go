package form

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Messages shown for local validation failures, keyed by field then rule.
var messages = map[string]map[string]string{
	FieldEmail:                {"required": "Email is required"},
	FieldUsername:             {"required": "Username is required"},
	FieldPassword:             {"required": "Password is required"},
	FieldPasswordConfirmation: {"required": "Confirm your password", "eqfield": "Passwords do not match"},
	FieldFirstName:            {"required": "First Name is required"},
	FieldLastName:             {"required": "Last Name is required"},
	FieldContactNo:            {"required": "Contact Number is required"},
	FieldPhoto:                {"required": "Profile photo is required"},
	FieldSignaturePhoto:       {"required": "Signature photo is required"},
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report errors under the wire name so local and server errors share keys.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidateStep checks the fields entered on step against their rules.
// It returns nil when the step may be left, or a *ValidationError.
func ValidateStep(step Step, d Data) error {
	var target any
	switch step {
	case StepAccount:
		target = d.Account
	case StepPersonal:
		target = d.Personal
	case StepImages:
		target = d.Images
	default:
		return nil
	}

	err := validate.Struct(target)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		// InvalidValidationError only happens for non-struct targets.
		return &ValidationError{Step: step, Fields: FieldErrors{"": {err.Error()}}}
	}

	fields := make(FieldErrors, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = append(fields[fe.Field()], messageFor(fe.Field(), fe.Tag()))
	}
	return &ValidationError{Step: step, Fields: fields}
}

func messageFor(field, rule string) string {
	if msg, ok := messages[field][rule]; ok {
		return msg
	}
	return field + " is invalid"
}

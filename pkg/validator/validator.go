package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/jwalitptl/bloodbank-api/internal/model"
)

// Register installs the custom tags on gin's binding engine. It is safe to
// call more than once.
func Register() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("unexpected binding engine")
	}
	return RegisterOn(v)
}

// RegisterOn installs the custom tags on v. Field errors report the json name
// of the field.
func RegisterOn(v *validator.Validate) error {
	v.RegisterTagNameFunc(jsonName)
	if err := v.RegisterValidation("bloodgroup", bloodGroup); err != nil {
		return fmt.Errorf("failed to register bloodgroup: %w", err)
	}
	return nil
}

func jsonName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	return name
}

func bloodGroup(fl validator.FieldLevel) bool {
	return model.ValidBloodGroup(fl.Field().String())
}

// Message turns a binding error into a short client-facing message.
func Message(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "invalid request body"
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return strings.Join(msgs, "; ")
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "bloodgroup":
		return fmt.Sprintf("%s must be one of: %s", field, strings.Join(model.BloodGroups, " "))
	default:
		return field + " is invalid"
	}
}

package internal

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateStruct validates the given struct using its validation tags and converts
// any violations into a client error carrying a field-to-problem map
func ValidateStruct(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return MakeError(http.StatusInternalServerError, ErrCodeUnknown, "Validation failed unexpectedly")
	}
	details := map[string]string{}
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field()[:1]) + fe.Field()[1:]
		switch fe.Tag() {
		case "required":
			details[field] = "This field is required"
		case "email":
			details[field] = "Not a valid email address"
		case "url":
			details[field] = "Not a valid URL"
		default:
			details[field] = fmt.Sprintf("Failed validation rule '%s'", fe.Tag())
		}
	}
	return MakeErrorWithData(
		http.StatusBadRequest,
		ErrCodeValidationFailed,
		"The provided data did not validate",
		details,
	)
}

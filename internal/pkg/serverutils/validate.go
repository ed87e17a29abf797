package serverutils

import (
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateRequest runs struct validation on a DTO. The returned
// validator.ValidationErrors are mapped to 400 by the error handler.
func ValidateRequest(req interface{}) error {
	return validate.Struct(req)
}

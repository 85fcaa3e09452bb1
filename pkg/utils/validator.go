package utils

import (
	"sync"

	"github.com/go-playground/validator/v10"
)

// CustomValidator adapts go-playground/validator to echo.Validator.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate validates a struct using its `validate` tags.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

var (
	validatorOnce sync.Once
	instance      *CustomValidator
)

// GetValidator returns the shared validator.
func GetValidator() *CustomValidator {
	validatorOnce.Do(func() {
		instance = &CustomValidator{validator: validator.New()}
	})
	return instance
}

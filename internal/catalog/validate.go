package catalog

import (
	"fmt"

	"github.com/rcliao/learning-beast/internal/model"
	"github.com/rcliao/learning-beast/internal/validation"
)

// validateStruct checks struct tags and reports failures as ErrInvalidInput.
func validateStruct(s interface{}) error {
	if err := validation.ValidateStruct(s); err != nil {
		return fmt.Errorf("%s: %w", err.Error(), model.ErrInvalidInput)
	}
	return nil
}

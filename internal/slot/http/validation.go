package http

import (
	"fmt"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/nekogravitycat/slot-swap-backend/internal/slot"
)

// RegisterValidators adds the slot binding tags to gin's validator engine.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected binding engine %T", binding.Validator.Engine())
	}
	if err := v.RegisterValidation("slotstatus", func(fl validator.FieldLevel) bool {
		return slot.Status(fl.Field().String()).Valid()
	}); err != nil {
		return fmt.Errorf("register slotstatus validator: %w", err)
	}
	return nil
}

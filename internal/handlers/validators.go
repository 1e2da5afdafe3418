package handlers

import (
	"fmt"

	"github.com/bookmarks/bookmarks/internal/services"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterValidators installs the "imageurl" binding rule, which accepts
// URLs whose path ends in one of allowed.
func RegisterValidators(allowed []string) error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
	}
	return v.RegisterValidation("imageurl", func(fl validator.FieldLevel) bool {
		return services.AllowedExtension(fl.Field().String(), allowed)
	})
}

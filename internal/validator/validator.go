// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("gender_scope", validateGenderScope)
		_ = v.RegisterValidation("request_status", validateRequestStatus)
	}
}

func validateGenderScope(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "all", "male", "female":
		return true
	}
	return false
}

func validateRequestStatus(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "pending", "approved", "rejected", "cancelled":
		return true
	}
	return false
}

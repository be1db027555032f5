package dto

import (
	"regexp"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var phMobile = regexp.MustCompile(`^(09|\+639)\d{9}$`)

// IsPHMobile accepts 09XXXXXXXXX or +639XXXXXXXXX, ignoring spaces and dashes.
func IsPHMobile(s string) bool {
	s = strings.NewReplacer(" ", "", "-", "").Replace(s)
	return phMobile.MatchString(s)
}

func validatePHMobile(fl validator.FieldLevel) bool {
	return IsPHMobile(fl.Field().String())
}

// RegisterValidators installs the custom binding rules on gin's validator.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	return v.RegisterValidation("ph_mobile", validatePHMobile)
}

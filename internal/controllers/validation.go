package controllers

import (
	"errors"
	"regexp"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	carnetPattern = regexp.MustCompile(`^\d+$`)
	registerOnce  sync.Once
)

// RegisterValidators installs the custom binding rules on gin's validator.
func RegisterValidators() {
	registerOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			_ = v.RegisterValidation("carnet", func(fl validator.FieldLevel) bool {
				return carnetPattern.MatchString(fl.Field().String())
			})
		}
	})
}

// ValidCarnet reports whether s is a well-formed carnet.
func ValidCarnet(s string) bool {
	return carnetPattern.MatchString(s)
}

// bindingMessage turns a ShouldBindJSON error into a client message using
// messages keyed by "Field.tag" (or "Field" for any tag on that field).
func bindingMessage(err error, messages map[string]string, fallback string) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fallback
	}
	fe := verrs[0]
	if msg, ok := messages[fe.Field()+"."+fe.Tag()]; ok {
		return msg
	}
	if msg, ok := messages[fe.Field()]; ok {
		return msg
	}
	return fallback
}

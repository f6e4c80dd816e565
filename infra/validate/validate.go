// Package validate holds the shared request validator with the gateway's
// custom rules registered.
package validate

import (
	"regexp"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	instance *validator.Validate
	once     sync.Once

	msisdnRe    = regexp.MustCompile(`^254\d{9}$`)
	shortcodeRe = regexp.MustCompile(`^\d{5,7}$`)
)

// Get returns the shared validator instance with the msisdn and shortcode
// rules registered.
func Get() *validator.Validate {
	once.Do(func() {
		instance = validator.New()
		_ = instance.RegisterValidation("msisdn", func(fl validator.FieldLevel) bool {
			return msisdnRe.MatchString(fl.Field().String())
		})
		_ = instance.RegisterValidation("shortcode", func(fl validator.FieldLevel) bool {
			return shortcodeRe.MatchString(fl.Field().String())
		})
	})
	return instance
}

// Struct validates v against its validation tags.
func Struct(v any) error {
	return Get().Struct(v)
}

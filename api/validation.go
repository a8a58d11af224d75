package api

import (
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var aggregateIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

// Stream ids end up in URLs, cache keys and bus routing keys, so the
// accepted alphabet is restricted up front.
func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("aggregate_id", func(fl validator.FieldLevel) bool {
			return aggregateIDPattern.MatchString(fl.Field().String())
		})
	}
}

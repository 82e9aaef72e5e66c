package model

import (
	"github.com/go-playground/validator/v10"

	apperrors "github.com/jwalitptl/scheduling-api/pkg/errors"
)

var validate = validator.New()

// Validate checks a request struct against its validate tags and wraps
// failures as bad-request errors.
func Validate(req interface{}) error {
	if err := validate.Struct(req); err != nil {
		return apperrors.BadRequest(err.Error(), err)
	}
	return nil
}

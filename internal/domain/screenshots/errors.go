package screenshots

import (
	"errors"
	"fmt"
)

// Error kinds. Callers match them with errors.Is.
var (
	ErrValidation   = errors.New("validation error")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("screenshot not found")
	ErrUpstream     = errors.New("upstream error")
	ErrPersistence  = errors.New("persistence error")
)

var (
	ErrNoFile         = fmt.Errorf("%w: no file uploaded", ErrValidation)
	ErrInvalidImage   = fmt.Errorf("%w: file is not a decodable image", ErrValidation)
	ErrMissingProfile = fmt.Errorf("%w: email and name are required", ErrValidation)
	ErrMissingEmail   = fmt.Errorf("%w: email is required", ErrValidation)
	ErrMissingName    = fmt.Errorf("%w: name is required", ErrValidation)
	ErrMissingOwner   = fmt.Errorf("%w: user id not found", ErrUnauthorized)
)

package loan

import "errors"

var (
	ErrValidation        = errors.New("validation failed")
	ErrPermissionDenied  = errors.New("permission denied")
	ErrNotFound          = errors.New("loan not found")
	ErrInvalidTransition = errors.New("loan not in a state that allows this action")
	ErrPersistence       = errors.New("persistence failed")
)

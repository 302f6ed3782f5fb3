package apperr

import "errors"

var (
	ErrTmpExhausted     = errors.New("temporary name attempts exhausted")
	ErrCheckUnsupported = errors.New("digest extension unsupported")
	ErrCommandNotFound  = errors.New("remote command not found")
)

package artifacts

import "errors"

var (
	ErrNotFound        = errors.New("artifact not found")
	ErrInvalidInput    = errors.New("invalid input")
	ErrEmptyFile       = errors.New("file is empty")
	ErrUnsupportedType = errors.New("unsupported media type")
)

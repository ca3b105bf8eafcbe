package soapnotes

import "errors"

var ErrShorthandRequired = errors.New("shorthand is required")

const (
	ErrorCodeValidation = "validation_error"
	ErrorCodeGeneration = "note_generation_failed"
)

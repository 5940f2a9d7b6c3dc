// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package mediacreatorlib

// MediaCreatorError is a named error used to categorize failures for
// reporting and telemetry.
type MediaCreatorError struct {
	name    string
	message string
}

func NewMediaCreatorError(name string, message string) *MediaCreatorError {
	return &MediaCreatorError{
		name:    name,
		message: message,
	}
}

func (e *MediaCreatorError) Name() string {
	return e.name
}

func (e *MediaCreatorError) Error() string {
	return e.message
}

// GetAllMediaCreatorErrors collects all named errors in the error tree, outermost first.
func GetAllMediaCreatorErrors(err error) []*MediaCreatorError {
	named := []*MediaCreatorError(nil)

	var walk func(err error)
	walk = func(err error) {
		if err == nil {
			return
		}

		if mcErr, isNamed := err.(*MediaCreatorError); isNamed {
			named = append(named, mcErr)
		}

		switch unwrapped := err.(type) {
		case interface{ Unwrap() error }:
			walk(unwrapped.Unwrap())
		case interface{ Unwrap() []error }:
			for _, child := range unwrapped.Unwrap() {
				walk(child)
			}
		}
	}
	walk(err)

	return named
}

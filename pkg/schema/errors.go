package schema

import "fmt"

// MissingRequiredFieldError reports a required property that was not supplied.
type MissingRequiredFieldError struct {
	Resource string
	Path     string
}

func (e *MissingRequiredFieldError) Error() string {
	return fmt.Sprintf("%s: missing required field %s", e.Resource, e.Path)
}

// TypeMismatchError reports a value whose shape does not match the declared type.
type TypeMismatchError struct {
	Resource string
	Path     string
	Expected string
	Got      string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("%s: field %s: expected %s, got %s", e.Resource, e.Path, e.Expected, e.Got)
}

// UnknownFieldError reports a key that is not part of the type's schema.
type UnknownFieldError struct {
	Resource string
	Path     string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("%s: unknown field %s", e.Resource, e.Path)
}

// DuplicateFieldError reports a field supplied under both its template name
// and its accessor name.
type DuplicateFieldError struct {
	Resource string
	Path     string
}

func (e *DuplicateFieldError) Error() string {
	return fmt.Sprintf("%s: field %s supplied more than once", e.Resource, e.Path)
}

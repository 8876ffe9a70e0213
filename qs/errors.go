package qs

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidOption is returned when a configuration value cannot be used.
	// It is raised before any input is read.
	ErrInvalidOption = errors.New("invalid option")

	// ErrDepthExceeded is returned when strict depth checking is enabled and
	// a key nests deeper than the configured depth.
	ErrDepthExceeded = errors.New("depth exceeded")
)

// OptionError describes a rejected option value.
type OptionError struct {
	Option string
	Value  any
	Reason string
}

func (e *OptionError) Error() string {
	return fmt.Sprintf("%s: %s %s (got %#v)", ErrInvalidOption, e.Option, e.Reason, e.Value)
}

// Unwrap returns ErrInvalidOption.
func (e *OptionError) Unwrap() error { return ErrInvalidOption }

func invalidOption(name string, value any, reason string) error {
	return &OptionError{Option: name, Value: value, Reason: reason}
}

func depthExceeded(depth int) error {
	return fmt.Errorf("%w: input depth exceeded depth option of %d and strict depth is enabled", ErrDepthExceeded, depth)
}

// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package hottoh

import (
	"errors"
	"fmt"
)

// Framing errors: the byte span is not a well-formed frame
var (
	ErrFrameStart    = errors.New("frame does not start with '#'")
	ErrFrameTooShort = errors.New("frame too short")
	ErrInvalidID     = errors.New("invalid request id")
	ErrInvalidLength = errors.New("invalid parameter length")
)

// Semantic errors: the frame is well formed but names something we cannot handle
var (
	ErrUnknownCommand     = errors.New("unknown command")
	ErrUnknownCommandType = errors.New("unknown command type")
	ErrNotImplemented     = errors.New("command not implemented")
)

// StructureError reports a payload whose arity or field contents do not match
// the record expected for its command.
type StructureError struct {
	Command Command
	Field   string
	Value   string
	Got     int // field count, set for arity errors
	Want    int
}

func (e *StructureError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("incorrect %s response structure: got %d fields, want %d", e.Command, e.Got, e.Want)
	}
	return fmt.Sprintf("incorrect %s response structure: invalid %s: %q", e.Command, e.Field, e.Value)
}

// ErrorClass groups decode failures for statistics and logging
type ErrorClass int

// Error classes
const (
	ClassNone ErrorClass = iota
	ClassFraming
	ClassStructural
	ClassSemantic
)

func (c ErrorClass) String() string {
	switch c {
	case ClassNone:
		return "none"
	case ClassFraming:
		return "framing"
	case ClassStructural:
		return "structural"
	case ClassSemantic:
		return "semantic"
	}
	return "unknown"
}

// Classify returns the class of a decode error
func Classify(err error) ErrorClass {
	if err == nil {
		return ClassNone
	}
	var se *StructureError
	switch {
	case errors.As(err, &se):
		return ClassStructural
	case errors.Is(err, ErrUnknownCommand), errors.Is(err, ErrUnknownCommandType), errors.Is(err, ErrNotImplemented):
		return ClassSemantic
	}
	return ClassFraming
}

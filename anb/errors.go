package anb

import (
	"errors"
	"fmt"
)

var (
	ErrFormat          = errors.New("anb: malformed container")
	ErrUnknownNodeType = errors.New("anb: unknown node type")
)

// FormatError describes a structural problem found at a given offset.
type FormatError struct {
	Offset uint64
	Msg    string
	Err    error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("anb: %s at offset %#x: %v", e.Msg, e.Offset, e.Err)
	}
	return fmt.Sprintf("anb: %s at offset %#x", e.Msg, e.Offset)
}

func (e *FormatError) Unwrap() error { return e.Err }

func (e *FormatError) Is(target error) bool { return target == ErrFormat }

func formatErr(offset uint64, err error, format string, args ...any) error {
	return &FormatError{Offset: offset, Msg: fmt.Sprintf(format, args...), Err: err}
}

type UnknownNodeTypeError struct {
	Code   uint32
	Offset uint64
}

func (e *UnknownNodeTypeError) Error() string {
	return fmt.Sprintf("anb: unknown node type %d at offset %#x", e.Code, e.Offset)
}

func (e *UnknownNodeTypeError) Is(target error) bool { return target == ErrUnknownNodeType }

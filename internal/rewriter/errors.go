package rewriter

import (
	"errors"
	"fmt"
)

// Sentinel errors for programmatic error checking via errors.Is().
var (
	// ErrParse indicates a missing, unreadable or malformed input document.
	ErrParse = errors.New("parse error")

	// ErrWrite indicates the output document could not be persisted.
	ErrWrite = errors.New("write error")
)

// ParseError reports a failure to load the input workflow.
// It matches both ErrParse and the underlying cause via errors.Is().
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s: %v", ErrParse.Error(), e.Path, e.Err)
}

func (e *ParseError) Unwrap() []error { return []error{ErrParse, e.Err} }

// WriteError reports a failure to persist the output workflow.
// It matches both ErrWrite and the underlying cause via errors.Is().
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s: %v", ErrWrite.Error(), e.Path, e.Err)
}

func (e *WriteError) Unwrap() []error { return []error{ErrWrite, e.Err} }

package models

import (
	"errors"
	"fmt"
)

// ErrorKind classifies input and output failures.
type ErrorKind int

const (
	EmptyOrMissingFile ErrorKind = iota + 1
	MalformedEntry
	IOWriteError
)

func (k ErrorKind) String() string {
	switch k {
	case EmptyOrMissingFile:
		return "empty or missing file"
	case MalformedEntry:
		return "malformed entry"
	case IOWriteError:
		return "write error"
	default:
		return "unknown error"
	}
}

// Sentinels for errors.Is matching against a *SourceError.
var (
	ErrEmptyInput = errors.New("empty or missing input")
	ErrMalformed  = errors.New("malformed entry")
	ErrWrite      = errors.New("write failed")
)

// Source names used in SourceError.
const (
	SourceProtocols = "protocol registry"
	SourceLookup    = "lookup table"
	SourceFlowLog   = "flow log"
	SourceReport    = "report"
)

// SourceError reports a failure tied to one input or output file.
type SourceError struct {
	Kind   ErrorKind
	Source string
	Path   string
	Line   int // 0 when the error is not tied to a line
	Err    error
}

func (e *SourceError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Source, e.Kind)
	if e.Path != "" {
		msg += fmt.Sprintf(" (%s", e.Path)
		if e.Line > 0 {
			msg += fmt.Sprintf(":%d", e.Line)
		}
		msg += ")"
	} else if e.Line > 0 {
		msg += fmt.Sprintf(" (line %d)", e.Line)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

// Is matches the kind sentinels so callers can write errors.Is(err, ErrMalformed).
func (e *SourceError) Is(target error) bool {
	switch target {
	case ErrEmptyInput:
		return e.Kind == EmptyOrMissingFile
	case ErrMalformed:
		return e.Kind == MalformedEntry
	case ErrWrite:
		return e.Kind == IOWriteError
	}
	return false
}

// EmptyInput builds an EmptyOrMissingFile error.
func EmptyInput(source, path string, err error) *SourceError {
	return &SourceError{Kind: EmptyOrMissingFile, Source: source, Path: path, Err: err}
}

// Malformed builds a MalformedEntry error for the given line.
func Malformed(source, path string, line int, err error) *SourceError {
	return &SourceError{Kind: MalformedEntry, Source: source, Path: path, Line: line, Err: err}
}

// WriteFailed builds an IOWriteError.
func WriteFailed(path string, err error) *SourceError {
	return &SourceError{Kind: IOWriteError, Source: SourceReport, Path: path, Err: err}
}

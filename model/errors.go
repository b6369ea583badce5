package model

import (
	"errors"
	"fmt"
)

var (
	ErrLastSection      = errors.New("cannot remove the last section")
	ErrSectionNotFound  = errors.New("section not found")
	ErrQuestionNotFound = errors.New("question not found")
	ErrNotBranchable    = errors.New("question type cannot carry logic")
	ErrBackwardBranch   = errors.New("logic destination must be a later section")
	ErrInvalidTrigger   = errors.New("logic trigger does not match any answer")
	ErrUnknownType      = errors.New("unknown question type")
	ErrInvalidDocument  = errors.New("invalid survey document")
	ErrImportParse      = errors.New("import parse error")
)

// ImportParseError reports malformed import input. Line is 1-based and zero
// when the input is not line oriented.
type ImportParseError struct {
	Line   int
	Reason string
	Err    error
}

func (e *ImportParseError) Error() string {
	msg := "import: " + e.Reason
	if e.Line > 0 {
		msg = fmt.Sprintf("import: line %d: %s", e.Line, e.Reason)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ImportParseError) Unwrap() error { return e.Err }

func (e *ImportParseError) Is(target error) bool { return target == ErrImportParse }

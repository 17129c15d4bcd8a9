package gql

import (
	"errors"
	"fmt"
)

// Kind categorizes translation errors. Both kinds are fatal at startup.
type Kind string

const (
	// SpecMalformed: the document references an undeclared type or declares a
	// mutation without a usable JSON request body.
	SpecMalformed Kind = "SpecMalformed"
	// Construction: the GraphQL library rejected the assembled schema.
	Construction Kind = "Construction"
)

var (
	ErrSpecMalformed = errors.New("malformed api description")
	ErrConstruction  = errors.New("schema construction failed")
	// ErrEmptyQuery is returned by Schema.Executable when no query field exists.
	ErrEmptyQuery = errors.New("schema has no query fields")
	// ErrMissingBody is returned at invocation time when a mutation has no
	// input-marked argument to send as the request body.
	ErrMissingBody = errors.New("mutation has no body argument")
)

// Error is a structured translation error.
type Error struct {
	Kind    Kind
	Subject string // type name, operation id or path the error is about
	Message string
	Cause   error
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Subject != "" {
		msg += " " + e.Subject
	}
	msg += ": " + e.Message
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Cause }

func (e *Error) Is(target error) bool {
	switch e.Kind {
	case SpecMalformed:
		return target == ErrSpecMalformed
	case Construction:
		return target == ErrConstruction
	}
	return false
}

func malformed(subject, format string, args ...any) error {
	return &Error{Kind: SpecMalformed, Subject: subject, Message: fmt.Sprintf(format, args...)}
}

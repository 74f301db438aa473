package viewmodel

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies a failure shown to the user.
type Kind int

const (
	KindUnknown Kind = iota
	KindStorage
	KindFile
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindStorage:
		return "storage"
	case KindFile:
		return "file"
	case KindValidation:
		return "validation"
	}
	return "unknown"
}

// Failure is the user-visible message of the last failed action.
type Failure struct {
	Kind    Kind
	Message string
}

func (f Failure) Error() string { return f.Message }

var ErrValidation = errors.New("invalid input")

// ValidationError names the field that was rejected.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

type kindError struct {
	kind Kind
	err  error
}

func (e *kindError) Error() string { return e.err.Error() }
func (e *kindError) Unwrap() error { return e.err }

func storageErr(err error) error {
	if err == nil {
		return nil
	}
	return &kindError{kind: KindStorage, err: err}
}

func fileErr(err error) error {
	if err == nil {
		return nil
	}
	return &kindError{kind: KindFile, err: err}
}

func classify(err error) Failure {
	var ke *kindError
	switch {
	case errors.Is(err, ErrValidation):
		return Failure{Kind: KindValidation, Message: err.Error()}
	case errors.As(err, &ke):
		return Failure{Kind: ke.kind, Message: err.Error()}
	}
	return Failure{Kind: KindUnknown, Message: err.Error()}
}

func canceled(err error) bool {
	return errors.Is(err, context.Canceled)
}

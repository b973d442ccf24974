package models

import (
	"errors"
	"fmt"
)

// ErrorCode identifies the kind of calculation failure. Codes stay precise
// inside the service; the HTTP edge collapses them to a generic failure.
type ErrorCode string

const (
	CodeValidation           ErrorCode = "validation"
	CodeDossierNotFound      ErrorCode = "dossier_not_found"
	CodePolicyNotFound       ErrorCode = "policy_not_found"
	CodeUnknownMutationKind  ErrorCode = "unknown_mutation_kind"
	CodeDuplicateHandlerKind ErrorCode = "duplicate_handler_kind"
	CodeSchemeNotFound       ErrorCode = "scheme_not_found"
	CodeExternalService      ErrorCode = "external_service"
	CodeCanceled             ErrorCode = "canceled"
)

// Sentinels for errors.Is. They match any *Error with the same code.
var (
	ErrValidation           = &Error{Code: CodeValidation}
	ErrDossierNotFound      = &Error{Code: CodeDossierNotFound}
	ErrPolicyNotFound       = &Error{Code: CodePolicyNotFound}
	ErrUnknownMutationKind  = &Error{Code: CodeUnknownMutationKind}
	ErrDuplicateHandlerKind = &Error{Code: CodeDuplicateHandlerKind}
	ErrSchemeNotFound       = &Error{Code: CodeSchemeNotFound}
	ErrExternalService      = &Error{Code: CodeExternalService}
	ErrCanceled             = &Error{Code: CodeCanceled}
)

// Error is a calculation failure. Index is the 0-based position of the
// failing mutation, or -1 when the failure is not tied to one.
type Error struct {
	Code         ErrorCode
	Message      string
	Index        int
	MutationID   string
	MutationKind Kind
	Err          error
}

func (e *Error) Error() string {
	msg := string(e.Code)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.MutationKind != "" {
		msg = fmt.Sprintf("mutation %d (%s %s): %s", e.Index, e.MutationKind, e.MutationID, msg)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches sentinels by code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Message == "" && t.Err == nil && t.Code == e.Code
}

// AtMutation returns a copy of e positioned at a mutation.
func (e *Error) AtMutation(index int, m Mutation) *Error {
	out := *e
	out.Index = index
	out.MutationID = m.MutationID
	out.MutationKind = m.Kind
	return &out
}

func newError(code ErrorCode, err error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Index: -1, Err: err}
}

func NewValidationError(format string, args ...any) *Error {
	return newError(CodeValidation, nil, format, args...)
}

func NewDossierNotFound(dossierID string) *Error {
	return newError(CodeDossierNotFound, nil, "dossier %q", dossierID)
}

func NewPolicyNotFound(dossierID, policy string) *Error {
	return newError(CodePolicyNotFound, nil, "policy %s in dossier %q", policy, dossierID)
}

func NewUnknownMutationKind(kind Kind) *Error {
	return newError(CodeUnknownMutationKind, nil, "no handler for kind %q", kind)
}

func NewDuplicateHandlerKind(kind Kind) *Error {
	return newError(CodeDuplicateHandlerKind, nil, "kind %q registered twice", kind)
}

func NewSchemeNotFound(schemeID string, err error) *Error {
	return newError(CodeSchemeNotFound, err, "scheme %q", schemeID)
}

func NewExternalServiceError(schemeID string, err error) *Error {
	return newError(CodeExternalService, err, "fetch rules for scheme %q", schemeID)
}

func NewCanceled(err error) *Error {
	return newError(CodeCanceled, err, "request canceled")
}

// CodeOf extracts the error code, or "" if err is not a calculation error.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

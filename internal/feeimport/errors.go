package feeimport

import "errors"

// Kind classifies import failures so handlers can pick a response.
type Kind string

const (
	KindUpload           Kind = "UploadError"
	KindMalformedFile    Kind = "MalformedFile"
	KindRowValidation    Kind = "RowValidationError"
	KindMalformedPayload Kind = "MalformedPayload"
	KindStore            Kind = "StoreError"
	KindForbidden        Kind = "Forbidden"
)

// Sentinels for errors.Is checks against an *Error of the same kind.
var (
	ErrUpload           = &Error{Kind: KindUpload}
	ErrMalformedFile    = &Error{Kind: KindMalformedFile}
	ErrRowValidation    = &Error{Kind: KindRowValidation}
	ErrMalformedPayload = &Error{Kind: KindMalformedPayload}
	ErrStore            = &Error{Kind: KindStore}
	ErrForbidden        = &Error{Kind: KindForbidden}
)

type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func newError(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Msg == "" && t.Err == nil && t.Kind == e.Kind
}

// KindOf reports the Kind of err, or "" if err is not an import error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

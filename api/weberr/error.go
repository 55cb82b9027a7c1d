package weberr

import (
	"net/http"
)

// ErrorResponse is the JSON body clients receive for any failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// RequestError marks an error as caused by the request rather than the
// server, so the middleware logs it without treating it as unexpected.
type RequestError struct {
	Err error
}

func (r *RequestError) Error() string { return r.Err.Error() }

func (r *RequestError) Unwrap() error { return r.Err }

// NewError wraps err as a RequestError carrying msg and status as the
// client-visible response. The cause stays available for the logs.
func NewError(err error, msg string, status int, opts ...Opt) error {
	opts = append(opts, WithResponse(&ErrorResponse{Error: msg}, status))
	return Wrap(&RequestError{Err: err}, opts...)
}

func BadRequest(err error, opts ...Opt) error {
	return NewError(err, "bad request", http.StatusBadRequest, opts...)
}

func NotAuthorized(err error, opts ...Opt) error {
	return NewError(err, "not authorized to access resource", http.StatusUnauthorized, opts...)
}

func NotFound(err error, opts ...Opt) error {
	return NewError(err, "the resource could not be found", http.StatusNotFound, opts...)
}

// Gone reports a resource that is no longer available. Every payment
// session failure resolves to this so callers cannot probe for the
// difference between an unknown token and a lapsed one.
func Gone(err error, msg string, opts ...Opt) error {
	return NewError(err, msg, http.StatusGone, opts...)
}

// Unprocessable reports a well-formed request whose content was rejected,
// with msg naming what was wrong with it.
func Unprocessable(err error, msg string, opts ...Opt) error {
	return NewError(err, msg, http.StatusUnprocessableEntity, opts...)
}

func InternalError(err error, opts ...Opt) error {
	return NewError(
		err,
		"the server encountered a problem and could not process your request",
		http.StatusInternalServerError,
		opts...,
	)
}

// Package weberr decorates errors with the HTTP response they should produce
// and with structured fields for the logs, keeping both out of handler
// signatures.
package weberr

// Opt decorates an error on its way up to the error middleware.
type Opt func(error) error

func Wrap(err error, opts ...Opt) error {
	for _, opt := range opts {
		err = opt(err)
	}
	return err
}

// WithResponse attaches the body and status the error middleware should
// write. Without it the client gets a generic 500.
func WithResponse(body any, status int) Opt {
	return func(err error) error {
		return &responseError{error: err, body: body, status: status}
	}
}

// WithFields attaches structured fields that the logger middleware emits
// alongside the error.
func WithFields(fields map[string]any) Opt {
	return func(err error) error {
		return &fieldsError{error: err, fields: fields}
	}
}

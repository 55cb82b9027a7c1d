package weberr

import "errors"

type fieldsError struct {
	error
	fields map[string]any
}

func (e *fieldsError) Fields() map[string]any { return e.fields }

func (e *fieldsError) Unwrap() error { return e.error }

// Fields extracts the log fields attached anywhere in err's chain.
func Fields(err error) (map[string]any, bool) {
	var fe interface{ Fields() map[string]any }
	if !errors.As(err, &fe) {
		return nil, false
	}
	return fe.Fields(), true
}

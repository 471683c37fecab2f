package uhdf

import "errors"

// Common errors. Errors returned by this package wrap one of these and can
// be tested with errors.Is.
var (
	ErrUnrecognizedFormat      = errors.New("unrecognized file format")
	ErrNotFound                = errors.New("object not found")
	ErrUnsupportedType         = errors.New("unsupported element type")
	ErrUnsupportedCompoundType = errors.New("compound types are not supported")
	ErrUnknownType             = errors.New("element type is unknown")
	ErrUnsupportedOperation    = errors.New("operation not supported for this format")
	ErrMetadata                = errors.New("reading metadata")
	ErrRead                    = errors.New("read failed")
	ErrWrite                   = errors.New("write failed")
	ErrClosed                  = errors.New("object is closed")
	ErrInvalidSelection        = errors.New("invalid selection")
	ErrInvalidPath             = errors.New("invalid path")
)

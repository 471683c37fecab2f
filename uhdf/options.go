package uhdf

import (
	"io"

	"github.com/sirupsen/logrus"
)

// Access is the mode a file is opened in.
type Access int

const (
	ReadOnly Access = iota
	ReadWrite
)

func (a Access) String() string {
	if a == ReadOnly {
		return "read-only"
	}
	return "read-write"
}

// Option configures Open.
type Option func(*options)

type options struct {
	access Access
	log    logrus.FieldLogger
}

func defaultOptions() *options {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return &options{access: ReadOnly, log: log}
}

// WithAccess sets the access mode. Only ReadOnly is supported.
func WithAccess(a Access) Option {
	return func(o *options) {
		o.access = a
	}
}

// WithLogger sends debug entries about probing, opening and releasing to
// log. By default nothing is logged.
func WithLogger(log logrus.FieldLogger) Option {
	return func(o *options) {
		if log != nil {
			o.log = log
		}
	}
}

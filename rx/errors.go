package rx

import "errors"

var (
	ErrNotSupported  = errors.New("rx: not supported without protocol v3")
	ErrNoTransport   = errors.New("rx: no transport attached")
	ErrUnknownSource = errors.New("rx: unknown source")
)

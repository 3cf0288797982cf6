package protocol

import "errors"

var (
	ErrFrameTooLong      = errors.New("frame exceeds maximum size")
	ErrChannelOutOfRange = errors.New("channel out of range")
	ErrShortPayload      = errors.New("payload too short")
)

package kobuki

import "errors"

var (
	ErrInvalidUnit      = errors.New("invalid led unit")
	ErrInvalidColor     = errors.New("invalid led color")
	ErrShortFrame       = errors.New("frame too short")
	ErrBadHeader        = errors.New("bad frame header")
	ErrBadLength        = errors.New("payload length mismatch")
	ErrUnknownPayload   = errors.New("unknown sub-payload id")
	ErrChecksumMismatch = errors.New("checksum mismatch")
)

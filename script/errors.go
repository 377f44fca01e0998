package script

import (
	"errors"
	"fmt"
)

var (
	ErrMalformedLine = errors.New("malformed script line")
	ErrInvalidNumber = errors.New("invalid number")
	ErrZeroSpeed     = errors.New("speed converts to 0 mm/s, move time is undefined")
	ErrOutOfRange    = errors.New("value out of range")
	ErrNegativeSleep = errors.New("negative sleep duration")
)

// LineError reports the script line a parse error happened on
type LineError struct {
	Line int
	Text string
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %v (%q)", e.Line, e.Err, e.Text)
}

func (e *LineError) Unwrap() error {
	return e.Err
}

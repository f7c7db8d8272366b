package stackmap

import (
	"errors"
	"fmt"
)

// VerifyError reports bytecode that cannot be given consistent stack map
// frames: stack underflow, bad branch targets, malformed instructions,
// unexpected dead code.
type VerifyError struct {
	Method string
	Msg    string

	err error
}

func (e *VerifyError) Error() string {
	return fmt.Sprintf("%s at %s", e.Msg, e.Method)
}

func (e *VerifyError) Unwrap() error {
	return e.err
}

// ErrTooManyPasses means the generator loop did not reach a fixed point
// within its pass bound, which indicates a frame-merge defect rather than
// bad input.
var ErrTooManyPasses = errors.New("stack map generation did not converge")

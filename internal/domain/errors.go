package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound             = errors.New("not found")
	ErrAlreadySettled       = errors.New("bet already settled")
	ErrInsufficientBankroll = errors.New("insufficient bankroll")
	ErrNoCredential         = errors.New("no usable credential")
	ErrValidation           = errors.New("validation failed")
)

// UpstreamError reports a transport failure or non-success response from the
// odds provider. Callers recover it locally: a failed fetch degrades to an
// empty result for that sport, never aborting a whole scan.
type UpstreamError struct {
	Status int    // HTTP status code; 0 for transport errors
	URL    string // request URL without credentials
	Msg    string
}

func (e *UpstreamError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("upstream: %s returned %d: %s", e.URL, e.Status, e.Msg)
	}
	return fmt.Sprintf("upstream: %s: %s", e.URL, e.Msg)
}

// IsUpstream reports whether err is (or wraps) an UpstreamError.
func IsUpstream(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue)
}

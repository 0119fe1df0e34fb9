package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidIdentifier = errors.New("invalid vehicle identifier")
	ErrInvalidReportType = errors.New("invalid report type")
	ErrNotConfigured     = errors.New("provider not configured")
	ErrReportGeneration  = errors.New("failed to generate vehicle report")
	ErrMalformedResponse = errors.New("malformed provider response")
)

// TransportError reports a network or HTTP level failure talking to a
// provider. Timeout is set when the call was aborted by its deadline.
type TransportError struct {
	Provider   string
	StatusCode int
	Timeout    bool
	Err        error
}

func (e *TransportError) Error() string {
	switch {
	case e.Timeout:
		return fmt.Sprintf("%s: request timed out", e.Provider)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: unexpected status %d", e.Provider, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Provider, e.Err)
	default:
		return e.Provider + ": transport failure"
	}
}

func (e *TransportError) Unwrap() error { return e.Err }

// FaultError is a business-level failure signalled by a provider that
// answered successfully at the transport level.
type FaultError struct {
	Provider string
	Code     string
	Message  string
}

func (e *FaultError) Error() string {
	return fmt.Sprintf("%s fault %s: %s", e.Provider, e.Code, e.Message)
}

func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

func IsFault(err error) bool {
	var fe *FaultError
	return errors.As(err, &fe)
}

package shared

import (
	"fmt"
	"strings"
)

// ErrConfiguration indicates a required external-service setting is absent for the operation.
type ErrConfiguration struct {
	Component string
	Missing   []string
}

func (e ErrConfiguration) Error() string {
	if len(e.Missing) == 0 {
		return fmt.Sprintf("%s is not configured", e.Component)
	}
	return fmt.Sprintf("%s is not configured: missing %s", e.Component, strings.Join(e.Missing, ", "))
}

// ErrValidation indicates bad or missing input.
type ErrValidation struct {
	Field   string
	Message string
}

func (e ErrValidation) Error() string {
	return e.Message
}

// ErrUpstreamMalformed indicates an external service returned a body that could not be parsed.
type ErrUpstreamMalformed struct {
	Service string
	Body    string
}

func (e ErrUpstreamMalformed) Error() string {
	return fmt.Sprintf("invalid response from %s", e.Service)
}

// ErrBusinessRejection indicates the gateway explicitly declined the charge.
type ErrBusinessRejection struct {
	Message string
	Payload any
}

func (e ErrBusinessRejection) Error() string {
	return e.Message
}

// ErrLookup wraps a store failure while resolving a payment.
type ErrLookup struct {
	Err error
}

func (e ErrLookup) Error() string {
	return fmt.Sprintf("payment lookup failed: %v", e.Err)
}

func (e ErrLookup) Unwrap() error {
	return e.Err
}

// ErrUpstreamUnavailable indicates an external service could not be reached.
type ErrUpstreamUnavailable struct {
	Service string
	Err     error
}

func (e ErrUpstreamUnavailable) Error() string {
	return fmt.Sprintf("%s unavailable: %v", e.Service, e.Err)
}

func (e ErrUpstreamUnavailable) Unwrap() error {
	return e.Err
}

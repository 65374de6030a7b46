package lookup

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidIP is returned when an address is neither IPv4 nor IPv6.
	ErrInvalidIP = errors.New("invalid ip address")

	// ErrInvalidDomain is returned when a name cannot be resolved as a domain.
	ErrInvalidDomain = errors.New("invalid domain")

	// ErrNoRecords is returned when every query succeeded without answers.
	ErrNoRecords = errors.New("no dns records")

	// ErrUnexpectedResponse is returned for non-2xx answers or bodies that
	// cannot be read.
	ErrUnexpectedResponse = errors.New("unexpected response")
)

// StatusError reports a non-2xx HTTP status from a lookup service.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: http status %d", e.URL, e.StatusCode)
}

func (e *StatusError) Unwrap() error {
	return ErrUnexpectedResponse
}

// QueryError reports a failed query for one record type.
type QueryError struct {
	Type string
	Err  error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("%s query failed: %v", e.Type, e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

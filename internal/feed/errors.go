package feed

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrorKind classifies feed-level failures. Per-item failures (a bad source
// address) are never promoted to a feed-level error; they only make that
// position unplayable.
type ErrorKind string

const (
	KindInvalidAddress    ErrorKind = "invalid_address"
	KindEmptyResult       ErrorKind = "empty_result"
	KindMalformedResponse ErrorKind = "malformed_response"
	KindTransportFailure  ErrorKind = "transport_failure"
	KindNoConnectivity    ErrorKind = "no_connectivity"
	KindUnexpected        ErrorKind = "unexpected"
)

// Error is a feed-level failure with a classification the presentation layer
// can map to a retry state.
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// NewError wraps err with a kind.
func NewError(kind ErrorKind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// KindOf extracts the classification from err, falling back to unexpected.
func KindOf(err error) ErrorKind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindUnexpected
}

// ClassifyTransport maps low-level fetch errors onto the taxonomy:
// DNS and dial failures read as no connectivity, timeouts and other network
// errors as transport failures.
func ClassifyTransport(err error) ErrorKind {
	if err == nil {
		return KindUnexpected
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return KindNoConnectivity
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if opErr.Op == "dial" {
			return KindNoConnectivity
		}
		return KindTransportFailure
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTransportFailure
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return KindTransportFailure
	}
	return KindTransportFailure
}

package feed

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"
)

func TestKindOf(t *testing.T) {
	err := NewError(KindMalformedResponse, errors.New("truncated body"))
	if got := KindOf(err); got != KindMalformedResponse {
		t.Fatalf("KindOf = %s, want malformed_response", got)
	}

	wrapped := fmt.Errorf("fetch: %w", err)
	if got := KindOf(wrapped); got != KindMalformedResponse {
		t.Fatalf("KindOf through wrapping = %s, want malformed_response", got)
	}

	if got := KindOf(errors.New("plain")); got != KindUnexpected {
		t.Fatalf("KindOf(plain) = %s, want unexpected", got)
	}
}

func TestErrorUnwrap(t *testing.T) {
	inner := errors.New("inner")
	err := NewError(KindTransportFailure, inner)
	if !errors.Is(err, inner) {
		t.Fatal("expected errors.Is to see through the classification wrapper")
	}
}

func TestClassifyTransport_DNS(t *testing.T) {
	err := &net.DNSError{Err: "no such host", Name: "feed.example"}
	if got := ClassifyTransport(err); got != KindNoConnectivity {
		t.Fatalf("DNS failure classified as %s, want no_connectivity", got)
	}
}

func TestClassifyTransport_DialRefused(t *testing.T) {
	err := &net.OpError{Op: "dial", Err: errors.New("connection refused")}
	if got := ClassifyTransport(err); got != KindNoConnectivity {
		t.Fatalf("dial failure classified as %s, want no_connectivity", got)
	}
}

func TestClassifyTransport_ReadReset(t *testing.T) {
	err := &net.OpError{Op: "read", Err: errors.New("connection reset")}
	if got := ClassifyTransport(err); got != KindTransportFailure {
		t.Fatalf("read failure classified as %s, want transport_failure", got)
	}
}

func TestClassifyTransport_Timeout(t *testing.T) {
	if got := ClassifyTransport(context.DeadlineExceeded); got != KindTransportFailure {
		t.Fatalf("deadline classified as %s, want transport_failure", got)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()
	if got := ClassifyTransport(fmt.Errorf("request: %w", ctx.Err())); got != KindTransportFailure {
		t.Fatalf("wrapped deadline classified as %s", got)
	}
}

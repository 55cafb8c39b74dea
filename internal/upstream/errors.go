// Package upstream contains the clients for the third-party provisioning
// systems this gateway fronts, plus the normalization rules that turn their
// heterogeneous payloads into the canonical models.
package upstream

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// Kind classifies every failure the upstream layer can return. Nothing in
// this layer is fatal to the process; every failure is a typed value.
type Kind string

const (
	KindInvalidRequest     Kind = "invalid_request"
	KindTimeout            Kind = "timeout"
	KindUpstreamRejected   Kind = "upstream_rejected"
	KindMalformedUpstream  Kind = "malformed_upstream"
	KindIdentityUnresolved Kind = "identity_unresolvable"
	KindNotAuthenticated   Kind = "not_authenticated"
	KindActionRequired     Kind = "action_required"
	KindInvariantViolation Kind = "internal_invariant_violation"
)

// ReplayableRequest captures enough of a failed upstream call for an
// operator to reproduce it by hand. Header values are kept verbatim,
// credentials included; this is operator tooling, not end-user output.
type ReplayableRequest struct {
	Method  string            `json:"method"`
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers,omitempty"`
	Body    string            `json:"body,omitempty"`
}

// Curl renders the request as a copy-pasteable curl command line.
func (r *ReplayableRequest) Curl() string {
	if r == nil {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "curl -v -X %s '%s'", r.Method, r.URL)
	for k, v := range r.Headers {
		fmt.Fprintf(&b, " \\\n  -H %q", k+": "+v)
	}
	if r.Body != "" {
		fmt.Fprintf(&b, " \\\n  -d '%s'", strings.ReplaceAll(r.Body, "'", `'\''`))
	}
	return b.String()
}

// Error is the single error shape crossing the upstream boundary. Raw
// transport errors never escape the clients; they are wrapped here with a
// Kind the caller can branch on.
type Error struct {
	Kind       Kind               `json:"kind"`
	Message    string             `json:"message"`
	StatusCode int                `json:"upstream_status,omitempty"`
	Body       string             `json:"upstream_body,omitempty"`
	Request    *ReplayableRequest `json:"request,omitempty"`
	Err        error              `json:"-"`
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %s (upstream status %d)", e.Kind, e.Message, e.StatusCode)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var ue *Error
	return errors.As(err, &ue) && ue.Kind == kind
}

// AsError extracts the *Error from err, or nil.
func AsError(err error) *Error {
	var ue *Error
	if errors.As(err, &ue) {
		return ue
	}
	return nil
}

func newError(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// InvalidRequest reports a caller precondition failure. No network call has
// been made when this is returned.
func InvalidRequest(format string, args ...interface{}) *Error {
	return newError(KindInvalidRequest, format, args...)
}

// Malformed reports a 2xx response whose body could not be interpreted.
func Malformed(format string, args ...interface{}) *Error {
	return newError(KindMalformedUpstream, format, args...)
}

// NotAuthenticated reports an operation attempted outside a logged-in session.
func NotAuthenticated(format string, args ...interface{}) *Error {
	return newError(KindNotAuthenticated, format, args...)
}

// ActionRequired reports that the upstream demands manual interaction before
// the account can be used programmatically.
func ActionRequired(format string, args ...interface{}) *Error {
	return newError(KindActionRequired, format, args...)
}

// rejected builds an UpstreamRejected error carrying the status, body and a
// replayable copy of the request that produced it.
func rejected(status int, body string, req *ReplayableRequest, format string, args ...interface{}) *Error {
	return &Error{
		Kind:       KindUpstreamRejected,
		Message:    fmt.Sprintf(format, args...),
		StatusCode: status,
		Body:       body,
		Request:    req,
	}
}

// transportError classifies a failed round trip. Deadline and timeout
// conditions become KindTimeout so the caller can tell a slow upstream from
// a broken one.
func transportError(err error, req *ReplayableRequest, upstreamName string) *Error {
	kind := KindUpstreamRejected
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		kind = KindTimeout
	}
	return &Error{
		Kind:    kind,
		Message: fmt.Sprintf("%s request failed: %v", upstreamName, err),
		Request: req,
		Err:     err,
	}
}

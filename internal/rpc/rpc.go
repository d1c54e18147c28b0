package rpc

import (
	"context"
	"errors"
)

// Reserved response keys used by the authority. Every other key carries a
// record.
const (
	errorKey = "ace"
	ackKey   = "UC"
)

// ErrTransport wraps network failures, timeouts, and unusable responses from
// the channel itself, as opposed to errors the authority reported.
var ErrTransport = errors.New("authority unreachable")

// AuthorityError carries a message reported by the authority, verbatim.
type AuthorityError struct {
	Message string
}

func (e *AuthorityError) Error() string { return e.Message }

// Caller is the remote procedure channel to the authority: a function name
// plus string-encoded arguments, answered by string-encoded results.
type Caller interface {
	Call(ctx context.Context, fn string, args map[string]string) (Response, error)
}

// Response is the result map of one authority call.
type Response map[string]string

// Err returns the authority-reported error carried under the reserved error
// key, or nil if the call succeeded structurally.
func (r Response) Err() error {
	if msg, ok := r[errorKey]; ok {
		return &AuthorityError{Message: msg}
	}
	return nil
}

// Acked reports whether the authority set its positive confirmation marker.
func (r Response) Acked() bool {
	_, ok := r[ackKey]
	return ok
}

// Ack returns the confirmation payload, if any.
func (r Response) Ack() (string, bool) {
	v, ok := r[ackKey]
	return v, ok
}

// Records returns the non-reserved entries of the response.
func (r Response) Records() map[string]string {
	out := make(map[string]string, len(r))
	for k, v := range r {
		if k == errorKey || k == ackKey {
			continue
		}
		out[k] = v
	}
	return out
}

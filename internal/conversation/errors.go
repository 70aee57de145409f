package conversation

import (
	"context"
	"errors"
	"net"
	"net/http"
)

// ErrorPrefix starts the content of an assistant message recording a failed turn.
const ErrorPrefix = "Error: "

// SendErrorKind classifies why a turn failed.
type SendErrorKind string

const (
	KindTransport   SendErrorKind = "transport"
	KindAuth        SendErrorKind = "auth"
	KindRateLimited SendErrorKind = "rate_limited"
	KindUpstream    SendErrorKind = "upstream"
)

// SendError is returned by Submit when the chat collaborator fails.
type SendError struct {
	Kind SendErrorKind
	Err  error
}

func (e *SendError) Error() string {
	if e == nil || e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

func (e *SendError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

type httpStatusCoder interface {
	HTTPStatusCode() int
}

type unauthenticated interface {
	Unauthenticated() bool
}

func newSendError(err error) *SendError {
	return &SendError{Kind: classify(err), Err: err}
}

func classify(err error) SendErrorKind {
	var authErr unauthenticated
	if errors.As(err, &authErr) && authErr.Unauthenticated() {
		return KindAuth
	}
	var statusErr httpStatusCoder
	if errors.As(err, &statusErr) {
		switch statusErr.HTTPStatusCode() {
		case http.StatusTooManyRequests:
			return KindRateLimited
		case http.StatusUnauthorized, http.StatusForbidden:
			return KindAuth
		}
		return KindUpstream
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return KindTransport
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return KindTransport
	}
	return KindUpstream
}

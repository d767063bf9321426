package fetch

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"syscall"
)

// Kind classifies a fetch failure
type Kind string

const (
	KindTimeout           Kind = "timeout"
	KindConnectionRefused Kind = "connection_refused"
	KindHTTPStatus        Kind = "http_status"
	KindTLS               Kind = "tls"
	KindTransport         Kind = "transport"
)

var (
	ErrTimeout           = errors.New("fetch timed out")
	ErrConnectionRefused = errors.New("connection refused")
	ErrHTTPStatus        = errors.New("non-2xx status code")
	ErrTLS               = errors.New("tls failure")
	ErrTransport         = errors.New("transport failure")

	kindErrors = map[Kind]error{
		KindTimeout:           ErrTimeout,
		KindConnectionRefused: ErrConnectionRefused,
		KindHTTPStatus:        ErrHTTPStatus,
		KindTLS:               ErrTLS,
		KindTransport:         ErrTransport,
	}
)

// FetchError is the final failure of a fetch, after all attempts
type FetchError struct {
	Err        error
	Kind       Kind
	URL        string
	StatusCode int
	Attempts   int
}

func (e *FetchError) Error() string {
	if e.Kind == KindHTTPStatus {
		return fmt.Sprintf(
			"unable to fetch %s after %d attempt(s): invalid status code received: %d",
			e.URL,
			e.Attempts,
			e.StatusCode,
		)
	}

	return fmt.Sprintf("unable to fetch %s after %d attempt(s): %s: %v", e.URL, e.Attempts, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Is matches the kind sentinel errors (ErrTimeout, ErrHTTPStatus...)
func (e *FetchError) Is(target error) bool {
	return kindErrors[e.Kind] == target
}

// classify maps a transport error onto a failure kind
func classify(err error) Kind {
	var (
		netErr       net.Error
		certErr      *tls.CertificateVerificationError
		authorityErr x509.UnknownAuthorityError
		hostErr      x509.HostnameError
		invalidErr   x509.CertificateInvalidError
		recordErr    tls.RecordHeaderError
	)

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case errors.As(err, &netErr) && netErr.Timeout():
		return KindTimeout
	case errors.Is(err, syscall.ECONNREFUSED):
		return KindConnectionRefused
	case errors.As(err, &certErr),
		errors.As(err, &authorityErr),
		errors.As(err, &hostErr),
		errors.As(err, &invalidErr),
		errors.As(err, &recordErr):
		return KindTLS
	default:
		return KindTransport
	}
}

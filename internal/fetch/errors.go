package fetch

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrBadStatus is wrapped for non-2xx responses
	ErrBadStatus = errors.New("unexpected HTTP status")
	// ErrTooLarge is wrapped when a body exceeds the configured limit
	ErrTooLarge = errors.New("response body too large")
	// ErrTooManyRedirects is returned by the redirect policy
	ErrTooManyRedirects = errors.New("too many redirects")
)

// TransportError is a terminal failure to retrieve a URL
type TransportError struct {
	URL string `json:"url"`
	Op  string `json:"operation"`
	Err error  `json:"error"`
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("fetch %s failed in %s: %v", e.URL, e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsTLSError reports whether err comes from TLS negotiation or certificate
// verification
func IsTLSError(err error) bool {
	if err == nil {
		return false
	}

	var (
		verifyErr   *tls.CertificateVerificationError
		recordErr   tls.RecordHeaderError
		alertErr    tls.AlertError
		unknownAuth x509.UnknownAuthorityError
		hostnameErr x509.HostnameError
		invalidErr  x509.CertificateInvalidError
		rootsErr    x509.SystemRootsError
	)
	switch {
	case errors.As(err, &verifyErr),
		errors.As(err, &recordErr),
		errors.As(err, &alertErr),
		errors.As(err, &unknownAuth),
		errors.As(err, &hostnameErr),
		errors.As(err, &invalidErr),
		errors.As(err, &rootsErr):
		return true
	}

	msg := err.Error()
	return strings.Contains(msg, "tls:") || strings.Contains(msg, "x509:")
}

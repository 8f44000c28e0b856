// Package fetch downloads documents behind discovered links and decides
// whether the body is a usable PDF.
package fetch

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/a3tai/bizharvest/internal/heuristics"
)

// Status is the result class of a fetch attempt
type Status string

const (
	StatusSuccess Status = "success"
	StatusSkipped Status = "skipped"
	StatusError   Status = "error"
)

const (
	DefaultTimeout      = 30 * time.Second
	DefaultMaxBodySize  = 50 * 1024 * 1024
	DefaultMaxRedirects = 10

	// LenientMinSize is the body size above which trusted domains are accepted
	// without a PDF signature or content type
	LenientMinSize = 1000
)

// DefaultTrustedDomains are served by Albanian registry and tax portals that
// often mislabel generated documents
var DefaultTrustedDomains = []string{
	"qkb.gov.al", "e-albania.al", "tatime.gov.al", "qkr.gov.al", "gov.al",
}

// browserHeaders mimic a desktop browser navigation. Accept-Encoding is left
// to the transport so compressed bodies are decoded transparently.
var browserHeaders = map[string]string{
	"User-Agent":                "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8,application/signed-exchange;v=b3;q=0.7",
	"Accept-Language":           "en-US,en;q=0.9",
	"DNT":                       "1",
	"Upgrade-Insecure-Requests": "1",
	"Sec-Fetch-Dest":            "document",
	"Sec-Fetch-Mode":            "navigate",
	"Sec-Fetch-Site":            "none",
	"Sec-Fetch-User":            "?1",
	"Cache-Control":             "max-age=0",
}

// Outcome is the immutable result of one Fetch call. Data is non-empty only
// for StatusSuccess.
type Outcome struct {
	URL         string    `json:"url" yaml:"url"`
	Status      Status    `json:"status" yaml:"status"`
	Reason      string    `json:"reason,omitempty" yaml:"reason,omitempty"`
	Data        []byte    `json:"-" yaml:"-"`
	ContentType string    `json:"content_type,omitempty" yaml:"content_type,omitempty"`
	Size        int       `json:"size" yaml:"size"`
	AcceptedBy  string    `json:"accepted_by,omitempty" yaml:"accepted_by,omitempty"`
	TLSRetry    bool      `json:"tls_retry,omitempty" yaml:"tls_retry,omitempty"`
	Timestamp   time.Time `json:"timestamp" yaml:"timestamp"`
}

// Options configures a Fetcher
type Options struct {
	Timeout        time.Duration
	MaxBodySize    int64
	MaxRedirects   int
	RateLimit      float64 // requests per second, 0 disables throttling
	TrustedDomains []string
	Logger         *log.Logger
}

// DefaultOptions returns the standard fetch settings
func DefaultOptions() Options {
	return Options{
		Timeout:        DefaultTimeout,
		MaxBodySize:    DefaultMaxBodySize,
		MaxRedirects:   DefaultMaxRedirects,
		TrustedDomains: DefaultTrustedDomains,
	}
}

// Fetcher owns the long-lived HTTP clients. It is safe for concurrent use.
type Fetcher struct {
	client   *http.Client
	insecure *http.Client
	limiter  *rate.Limiter
	opts     Options
	logger   *log.Logger
}

// New creates a Fetcher. Zero option fields take their defaults.
func New(opts Options) *Fetcher {
	defaults := DefaultOptions()
	if opts.Timeout <= 0 {
		opts.Timeout = defaults.Timeout
	}
	if opts.MaxBodySize <= 0 {
		opts.MaxBodySize = defaults.MaxBodySize
	}
	if opts.MaxRedirects <= 0 {
		opts.MaxRedirects = defaults.MaxRedirects
	}
	if opts.TrustedDomains == nil {
		opts.TrustedDomains = defaults.TrustedDomains
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	f := &Fetcher{
		client:   newClient(opts, nil),
		insecure: newClient(opts, &tls.Config{InsecureSkipVerify: true}), //nolint:gosec // only used for the retry after a certificate failure
		opts:     opts,
		logger:   logger,
	}
	if opts.RateLimit > 0 {
		f.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	}
	return f
}

func newClient(opts Options, tlsConfig *tls.Config) *http.Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   opts.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        20,
		MaxIdleConnsPerHost: 5,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		TLSClientConfig:     tlsConfig,
	}

	maxRedirects := opts.MaxRedirects
	return &http.Client{
		Transport: transport,
		Timeout:   opts.Timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return ErrTooManyRedirects
			}
			return nil
		},
	}
}

// Fetch retrieves rawURL and classifies the body. It never returns an error;
// transport failures become StatusError outcomes and unusable bodies
// StatusSkipped.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) Outcome {
	outcome := Outcome{URL: rawURL, Timestamp: time.Now().UTC()}

	data, contentType, err := f.get(ctx, f.client, rawURL)
	if err != nil && IsTLSError(err) {
		f.logger.Printf("TLS error for %s, retrying without certificate verification: %v", rawURL, err)
		outcome.TLSRetry = true
		data, contentType, err = f.get(ctx, f.insecure, rawURL)
		if err != nil {
			err = &TransportError{URL: rawURL, Op: "tls_retry", Err: err}
		}
	}
	if err != nil {
		f.logger.Printf("Request error downloading %s: %v", rawURL, err)
		outcome.Status = StatusError
		outcome.Reason = err.Error()
		return outcome
	}

	outcome.ContentType = contentType
	outcome.Size = len(data)
	f.logger.Printf("Downloaded %d bytes from %s (Content-Type: %s)", len(data), rawURL, contentType)

	acceptedBy := f.accept(rawURL, data, contentType)
	if acceptedBy == "" {
		outcome.Status = StatusSkipped
		outcome.Reason = "content is not a PDF"
		return outcome
	}

	outcome.Status = StatusSuccess
	outcome.AcceptedBy = acceptedBy
	outcome.Data = data
	return outcome
}

// accept applies the acceptance rules in priority order and names the one
// that matched, or returns "" when none did
func (f *Fetcher) accept(rawURL string, data []byte, contentType string) string {
	if len(data) == 0 {
		return ""
	}
	if bytes.HasPrefix(data, []byte("%PDF")) {
		return "signature"
	}
	if strings.Contains(strings.ToLower(contentType), "application/pdf") {
		return "content_type"
	}
	if len(data) > LenientMinSize && f.IsTrusted(rawURL) {
		return "trusted_domain"
	}
	return ""
}

// IsTrusted reports whether rawURL's host is on the trusted-domain allowlist
func (f *Fetcher) IsTrusted(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := u.Hostname()
	for _, domain := range f.opts.TrustedDomains {
		if heuristics.MatchesDomain(host, domain) {
			return true
		}
	}
	return false
}

func (f *Fetcher) get(ctx context.Context, client *http.Client, rawURL string) ([]byte, string, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, "", &TransportError{URL: rawURL, Op: "rate_limit", Err: err}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", &TransportError{URL: rawURL, Op: "request", Err: err}
	}
	for k, v := range browserHeaders {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, "", &TransportError{URL: rawURL, Op: "request", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", &TransportError{
			URL: rawURL,
			Op:  "status",
			Err: fmt.Errorf("%w: %s", ErrBadStatus, resp.Status),
		}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.opts.MaxBodySize+1))
	if err != nil {
		return nil, "", &TransportError{URL: rawURL, Op: "read", Err: err}
	}
	if int64(len(data)) > f.opts.MaxBodySize {
		return nil, "", &TransportError{
			URL: rawURL,
			Op:  "read",
			Err: fmt.Errorf("%w: more than %d bytes", ErrTooLarge, f.opts.MaxBodySize),
		}
	}

	return data, resp.Header.Get("Content-Type"), nil
}

// IsStatus reports whether err wraps a non-2xx response
func IsStatus(err error) bool {
	return errors.Is(err, ErrBadStatus)
}

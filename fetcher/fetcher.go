// Package fetcher retrieves the HTML of a page to audit, optionally through a
// CORS relay.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html/charset"
)

// Defaults used by New.
const (
	DefaultTimeout   = 15 * time.Second
	DefaultMaxBytes  = 5 << 20
	DefaultUserAgent = "SEOAnalyzer/1.0"
)

// Page is a fetched HTML document.
type Page struct {
	URL         string // URL as requested by the caller
	HTML        string
	ContentType string
	StatusCode  int
	Size        int
}

// Fetcher downloads pages over HTTP.
type Fetcher struct {
	client    *http.Client
	relayURL  string
	timeout   time.Duration
	maxBytes  int64
	userAgent string
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithRelay routes requests through relayURL; the target URL is appended
// query-escaped. An empty relay fetches pages directly.
func WithRelay(relayURL string) Option {
	return func(f *Fetcher) {
		f.relayURL = relayURL
	}
}

// WithTimeout sets the timeout for a whole fetch.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithMaxBytes limits the size of the response body.
func WithMaxBytes(n int64) Option {
	return func(f *Fetcher) {
		f.maxBytes = n
	}
}

func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithHTTPClient replaces the HTTP client. Its timeout is overridden by
// WithTimeout.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) {
		f.client = c
	}
}

// New creates a Fetcher. Without options pages are fetched directly.
func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		timeout:   DefaultTimeout,
		maxBytes:  DefaultMaxBytes,
		userAgent: DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(f)
	}

	if f.client == nil {
		f.client = &http.Client{
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		}
	} else {
		// Callers may share their client; set the timeout on a copy.
		c := *f.client
		f.client = &c
	}
	f.client.Timeout = f.timeout

	return f
}

// ValidateURL checks that rawURL is an absolute http or https URL.
func ValidateURL(rawURL string) (*url.URL, error) {
	if strings.TrimSpace(rawURL) == "" {
		return nil, &Error{Kind: KindInvalidURL, URL: rawURL, Err: errors.New("please enter a valid URL")}
	}

	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, &Error{Kind: KindInvalidURL, URL: rawURL, Err: err}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, &Error{Kind: KindInvalidURL, URL: rawURL, Err: errors.New("URL must include http:// or https://")}
	}
	if u.Host == "" {
		return nil, &Error{Kind: KindInvalidURL, URL: rawURL, Err: errors.New("URL has no host")}
	}
	return u, nil
}

// RequestURL returns the URL actually requested for target.
func (f *Fetcher) RequestURL(target string) string {
	if f.relayURL == "" {
		return target
	}
	return f.relayURL + url.QueryEscape(target)
}

// Fetch downloads target and returns its HTML decoded to UTF-8. Every failure
// is returned as an *Error.
func (f *Fetcher) Fetch(ctx context.Context, target string) (*Page, error) {
	u, err := ValidateURL(target)
	if err != nil {
		return nil, err
	}
	target = u.String()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.RequestURL(target), nil)
	if err != nil {
		return nil, &Error{Kind: KindInvalidURL, URL: target, Err: err}
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &Error{Kind: KindNetwork, URL: target, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &Error{Kind: KindStatus, URL: target, StatusCode: resp.StatusCode,
			Err: fmt.Errorf("HTTP %d", resp.StatusCode)}
	}

	// Read one byte past the limit to detect oversized pages.
	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, &Error{Kind: KindNetwork, URL: target, Err: fmt.Errorf("read body: %w", err)}
	}
	if int64(len(body)) > f.maxBytes {
		return nil, &Error{Kind: KindTooLarge, URL: target,
			Err: fmt.Errorf("page exceeds %d bytes", f.maxBytes)}
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(body)
	}
	if !isHTML(contentType) {
		return nil, &Error{Kind: KindNotHTML, URL: target,
			Err: fmt.Errorf("unexpected content type %q", contentType)}
	}

	html, err := decode(body, contentType)
	if err != nil {
		return nil, &Error{Kind: KindNotHTML, URL: target, Err: fmt.Errorf("decode body: %w", err)}
	}

	return &Page{
		URL:         target,
		HTML:        html,
		ContentType: contentType,
		StatusCode:  resp.StatusCode,
		Size:        len(body),
	}, nil
}

func isHTML(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "text/html" || mediaType == "application/xhtml+xml"
}

// decode converts body to UTF-8 using the charset from contentType or the
// document's own meta declaration.
func decode(body []byte, contentType string) (string, error) {
	r, err := charset.NewReader(strings.NewReader(string(body)), contentType)
	if err != nil {
		return "", err
	}
	decoded, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}

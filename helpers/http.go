package helpers

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	mathrand "math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html/charset"

	"budgetmanager/priceworker/pkg/errors"
)

// HTTP client and header configurations
var (
	userAgents = []string{
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/112.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/14.0.3 Safari/605.1.15",
	}

	// client never follows redirects on its own; Fetch resolves them
	// manually so the redirect cap and login detection stay under our control
	client = &http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	gzipMagic = []byte{0x1f, 0x8b}
)

const (
	// DefaultTimeout is the hard per-call timeout when none is given
	DefaultTimeout = 20 * time.Second
	// DefaultMaxRedirects caps redirect following per fetch
	DefaultMaxRedirects = 5
	// validateTimeout bounds HEAD probes issued by ValidateImageURL
	validateTimeout = 10 * time.Second
)

// FetchOptions controls a single Fetch call
type FetchOptions struct {
	Method       string
	Timeout      time.Duration
	Cookie       string
	MaxRedirects int
}

// Fetch performs an HTTP request and returns the (decompressed) body.
// Redirects are followed up to the cap, with relative Location values
// resolved against the request's origin. A redirect to a login path is
// reported as an auth failure rather than a transport failure, since it
// means the session cookie was rejected.
func Fetch(rawURL string, opts FetchOptions) ([]byte, error) {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	maxRedirects := opts.MaxRedirects
	if maxRedirects <= 0 {
		maxRedirects = DefaultMaxRedirects
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	current := rawURL
	for redirects := 0; ; redirects++ {
		req, err := http.NewRequestWithContext(ctx, method, current, nil)
		if err != nil {
			return nil, errors.NewTransport("", fmt.Sprintf("failed to create request for %s", current), err)
		}

		rnd := mathrand.New(mathrand.NewSource(time.Now().UnixNano()))
		req.Header.Set("User-Agent", userAgents[rnd.Intn(len(userAgents))])
		// set explicitly so the transport never decompresses behind our back
		req.Header.Set("Accept-Encoding", "gzip")
		if opts.Cookie != "" {
			req.Header.Set("Cookie", opts.Cookie)
		}

		resp, err := client.Do(req)
		if err != nil {
			return nil, errors.NewTransport("", fmt.Sprintf("failed to fetch %s", current), err)
		}

		if isRedirect(resp.StatusCode) {
			location := resp.Header.Get("Location")
			resp.Body.Close()

			if location == "" {
				return nil, errors.NewTransportStatus("", current, resp.StatusCode)
			}
			next, err := resolveLocation(current, location)
			if err != nil {
				return nil, errors.NewTransport("", fmt.Sprintf("bad redirect location %q", location), err)
			}
			if isLoginPath(next) {
				return nil, errors.NewAuth("", fmt.Sprintf("redirected to login page %s", next), nil)
			}
			if redirects >= maxRedirects {
				return nil, errors.NewTransport("", fmt.Sprintf("too many redirects fetching %s", rawURL), nil)
			}
			current = next
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			resp.Body.Close()
			return nil, errors.NewTransportStatus("", current, resp.StatusCode)
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, errors.NewTransport("", fmt.Sprintf("failed to read response body from %s", current), err)
		}

		return maybeDecompress(body, current, resp.Header.Get("Content-Encoding"))
	}
}

// ValidateImageURL issues a HEAD request and reports whether the target
// is a live image. It never returns an error: any failure, timeout or
// malformed URL simply yields false.
func ValidateImageURL(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), validateTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return false
	}
	req.Header.Set("User-Agent", userAgents[0])

	resp, err := client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false
	}
	return strings.HasPrefix(resp.Header.Get("Content-Type"), "image/")
}

// ToUTF8 converts a fetched body to UTF-8 using the response content type
// and the body content as hints. Provider index pages are not reliably
// UTF-8 encoded.
func ToUTF8(body []byte, contentType string) ([]byte, error) {
	encoding, name, _ := charset.DetermineEncoding(body, contentType)
	if name == "utf-8" || name == "UTF-8" {
		return body, nil
	}

	reader := encoding.NewDecoder().Reader(bytes.NewReader(body))
	converted, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to convert body to UTF-8: %w", err)
	}
	return converted, nil
}

// maybeDecompress gunzips the body when the response declares gzip encoding,
// the URL carries a compressed-file suffix, or the body starts with the gzip
// magic bytes. Suffix and header are only trusted when the magic bytes agree.
func maybeDecompress(body []byte, rawURL, contentEncoding string) ([]byte, error) {
	signalled := contentEncoding == "gzip" ||
		strings.HasSuffix(strings.ToLower(rawURL), ".gz") ||
		bytes.HasPrefix(body, gzipMagic)
	if !signalled || !bytes.HasPrefix(body, gzipMagic) {
		return body, nil
	}

	gz, err := gzip.NewReader(bytes.NewReader(body))
	if err != nil {
		return nil, errors.NewTransport("", "failed to open gzip body", err)
	}
	defer gz.Close()

	decompressed, err := io.ReadAll(gz)
	if err != nil {
		return nil, errors.NewTransport("", "failed to decompress gzip body", err)
	}
	return decompressed, nil
}

func isRedirect(statusCode int) bool {
	switch statusCode {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther,
		http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		return true
	}
	return false
}

// resolveLocation resolves a Location header value against the URL of the
// request that produced it
func resolveLocation(current, location string) (string, error) {
	base, err := url.Parse(current)
	if err != nil {
		return "", err
	}
	ref, err := url.Parse(location)
	if err != nil {
		return "", err
	}
	return base.ResolveReference(ref).String(), nil
}

func isLoginPath(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return strings.Contains(strings.ToLower(parsed.Path), "/login")
}

package provider

import (
	"bytes"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/tidwall/gjson"

	"budgetmanager/priceworker/helpers"
	"budgetmanager/priceworker/pkg/errors"
)

const (
	// jsonDirPath is the portal's authenticated file listing endpoint
	jsonDirPath = "/file/json/dir"
	// fileDirPath is the portal's plain directory page, used both to
	// resolve listed names and as the fallback scan root
	fileDirPath = "/file/d/"

	// candidate caps bound work per provider per run
	apiDirectoryLimit = 3
	anchorScanLimit   = 5
)

var (
	// priceFileName matches published price file names (PriceFull...gz,
	// Price7290...xml and friends), case-insensitive
	priceFileName = regexp.MustCompile(`(?i)price[^/\\]*\.(gz|xml)$`)

	// anchorHref extracts the anchor target from the markup fragments
	// embedded in JSON listing entries
	anchorHref = regexp.MustCompile(`href=["']([^"']+)["']`)
)

// Discover locates candidate price file URLs for a provider using its
// configured listing strategy. When the JSON directory yields nothing
// the portal's plain directory page is scanned before the provider is
// abandoned for the run.
func Discover(p Config, sess *Session, timeout time.Duration) ([]string, error) {
	switch p.Strategy {
	case StrategyAPIDirectory:
		candidates, err := apiDirectory(p, sess, timeout)
		if err == nil && len(candidates) == 0 {
			return anchorScan(p, p.BaseURL+fileDirPath, sess, timeout)
		}
		return candidates, err
	case StrategyAnchorScan:
		return anchorScan(p, p.BaseURL, sess, timeout)
	default:
		return nil, errors.NewConfiguration(
			fmt.Sprintf("provider %s has no listing strategy", p.ID), nil,
		)
	}
}

// apiDirectory calls the authenticated JSON listing endpoint and pulls
// file references out of the entries. Entries are markup fragments,
// not clean fields, so the anchor target is extracted from whatever
// string field carries one.
func apiDirectory(p Config, sess *Session, timeout time.Duration) ([]string, error) {
	opts := helpers.FetchOptions{Timeout: timeout}
	if sess != nil {
		opts.Cookie = sess.Cookie
	}

	body, err := helpers.Fetch(p.BaseURL+jsonDirPath, opts)
	if err != nil {
		return nil, err
	}

	parsed := gjson.ParseBytes(body)
	entries := parsed.Get("aaData")
	if !entries.IsArray() {
		entries = parsed.Get("files")
	}
	if !entries.IsArray() && parsed.IsArray() {
		entries = parsed
	}
	if !entries.IsArray() {
		return nil, errors.NewParse(p.ID, "unrecognized directory listing payload", nil)
	}

	var candidates []string
	entries.ForEach(func(_, entry gjson.Result) bool {
		ref := extractFileRef(entry)
		if ref == "" || !priceFileName.MatchString(helpers.FileNameFromURL(ref)) {
			return true
		}
		candidates = append(candidates, resolveFileRef(p.BaseURL, ref))
		return len(candidates) < apiDirectoryLimit
	})

	return candidates, nil
}

// extractFileRef digs a file reference out of one listing entry
func extractFileRef(entry gjson.Result) string {
	fields := []gjson.Result{entry}
	if entry.IsObject() {
		fields = []gjson.Result{
			entry.Get("fname"),
			entry.Get("name"),
			entry.Get("FileNm"),
		}
	}
	for _, field := range fields {
		text := field.String()
		if text == "" {
			continue
		}
		if m := anchorHref.FindStringSubmatch(text); m != nil {
			return m[1]
		}
		if priceFileName.MatchString(helpers.FileNameFromURL(text)) {
			return text
		}
	}
	return ""
}

// resolveFileRef turns a listed reference into an absolute file URL
func resolveFileRef(baseURL, ref string) string {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	if strings.HasPrefix(ref, "/") {
		return baseURL + ref
	}
	return baseURL + fileDirPath + ref
}

// anchorScan fetches an index page and collects anchors that look like
// price files. Same-host paths and external object-storage links are
// both accepted; one level of subdirectory links is followed.
func anchorScan(p Config, pageURL string, sess *Session, timeout time.Duration) ([]string, error) {
	candidates, err := scanPage(p, pageURL, sess, timeout, true)
	if err != nil {
		return nil, err
	}
	if len(candidates) > anchorScanLimit {
		candidates = candidates[:anchorScanLimit]
	}
	return candidates, nil
}

func scanPage(p Config, pageURL string, sess *Session, timeout time.Duration, followSubdirs bool) ([]string, error) {
	opts := helpers.FetchOptions{Timeout: timeout}
	if sess != nil {
		opts.Cookie = sess.Cookie
	}

	body, err := helpers.Fetch(pageURL, opts)
	if err != nil {
		return nil, err
	}
	utf8Body, err := helpers.ToUTF8(body, "")
	if err != nil {
		return nil, errors.NewParse(p.ID, "failed to decode index page", err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(utf8Body))
	if err != nil {
		return nil, errors.NewParse(p.ID, "failed to parse index page", err)
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, errors.NewParse(p.ID, "bad index page url", err)
	}

	var candidates []string
	var subdirs []string

	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" {
			return
		}

		if priceFileName.MatchString(helpers.FileNameFromURL(href)) {
			if resolved := resolveAnchor(base, href); resolved != "" {
				candidates = append(candidates, resolved)
			}
			return
		}

		if followSubdirs && isSubdirLink(href) {
			if resolved := resolveAnchor(base, href); resolved != "" {
				subdirs = append(subdirs, resolved)
			}
		}
	})

	for _, dir := range subdirs {
		if len(candidates) >= anchorScanLimit {
			break
		}
		nested, err := scanPage(p, dir, sess, timeout, false)
		if err != nil {
			// a broken subdirectory never fails the whole scan
			continue
		}
		candidates = append(candidates, nested...)
	}

	return candidates, nil
}

// resolveAnchor resolves an anchor target against the index page URL.
// Absolute links are kept as-is, which covers chains that park their
// files on external object storage.
func resolveAnchor(base *url.URL, href string) string {
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}

// isSubdirLink reports whether an anchor points at a subdirectory that
// is worth one level of descent (not a self or parent reference)
func isSubdirLink(href string) bool {
	if !strings.HasSuffix(href, "/") {
		return false
	}
	trimmed := strings.TrimSuffix(href, "/")
	if trimmed == "" || trimmed == "." || trimmed == ".." {
		return false
	}
	if strings.HasPrefix(href, "?") || strings.HasPrefix(href, "#") {
		return false
	}
	return !strings.Contains(href, "..")
}

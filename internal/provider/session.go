package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"budgetmanager/priceworker/pkg/errors"
)

// loginPath is the portal's form login endpoint, relative to the
// provider base URL
const loginPath = "/login/user"

// loginClient never follows redirects; the portal answers a successful
// login with a 302 whose Set-Cookie headers carry the session
var loginClient = &http.Client{
	CheckRedirect: func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	},
}

// Login submits the provider's fixed identity to the portal's login
// endpoint and returns the session built from the response cookies.
// A provider that issues no cookie yields (nil, nil): the caller skips
// it for the run, it is not a fatal condition. Login never retries.
func Login(ctx context.Context, p Config, timeout time.Duration) (*Session, error) {
	if p.Identity == nil {
		return nil, errors.NewAuth(p.ID, "provider has no login identity", nil)
	}

	form := url.Values{}
	form.Set("username", p.Identity.Username)
	form.Set("password", p.Identity.Password)

	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(
		reqCtx, http.MethodPost, p.BaseURL+loginPath, strings.NewReader(form.Encode()),
	)
	if err != nil {
		return nil, errors.NewAuth(p.ID, "failed to create login request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := loginClient.Do(req)
	if err != nil {
		return nil, errors.NewAuth(p.ID, "login request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, errors.NewAuth(p.ID, fmt.Sprintf("login rejected with status %d", resp.StatusCode), nil)
	}

	cookie := joinSetCookies(resp.Header.Values("Set-Cookie"))
	if cookie == "" {
		// no cookie means no session; the provider is skipped this run
		return nil, nil
	}

	return &Session{Cookie: cookie}, nil
}

// joinSetCookies concatenates the name=value pairs of all Set-Cookie
// headers into a single Cookie header value
func joinSetCookies(setCookies []string) string {
	var pairs []string
	for _, sc := range setCookies {
		pair := strings.TrimSpace(strings.Split(sc, ";")[0])
		if pair != "" && strings.Contains(pair, "=") {
			pairs = append(pairs, pair)
		}
	}
	return strings.Join(pairs, "; ")
}

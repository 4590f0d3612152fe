package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"budgetmanager/priceworker/pkg/errors"
)

func portalProvider(baseURL string) Config {
	return Config{
		ID:       "rami_levy",
		Name:     "רמי לוי",
		BaseURL:  baseURL,
		Auth:     AuthCookieSession,
		Strategy: StrategyAPIDirectory,
		Identity: &Identity{Username: "RamiLevi", Password: ""},
		Enabled:  true,
	}
}

func TestLoginConcatenatesSessionCookies(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/login/user", r.URL.Path)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "RamiLevi", r.PostForm.Get("username"))

		w.Header().Add("Set-Cookie", "cftpSID=abc123; Path=/; HttpOnly")
		w.Header().Add("Set-Cookie", "lang=he; Path=/")
		w.Header().Set("Location", "/file")
		w.WriteHeader(http.StatusFound)
	}))
	defer server.Close()

	sess, err := Login(context.Background(), portalProvider(server.URL), 5*time.Second)
	assert.NoError(t, err)
	assert.NotNil(t, sess)
	assert.Equal(t, "cftpSID=abc123; lang=he", sess.Cookie)
}

func TestLoginNoCookieSkipsProvider(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	sess, err := Login(context.Background(), portalProvider(server.URL), 5*time.Second)
	assert.NoError(t, err)
	assert.Nil(t, sess)
}

func TestLoginRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	sess, err := Login(context.Background(), portalProvider(server.URL), 5*time.Second)
	assert.Nil(t, sess)
	assert.Error(t, err)
	assert.Equal(t, errors.ErrorTypeAuth, errors.TypeOf(err))
}

func TestLoginWithoutIdentity(t *testing.T) {
	p := portalProvider("http://example.invalid")
	p.Identity = nil

	_, err := Login(context.Background(), p, time.Second)
	assert.Error(t, err)
	assert.Equal(t, errors.ErrorTypeAuth, errors.TypeOf(err))
}

func TestJoinSetCookies(t *testing.T) {
	assert.Equal(t, "", joinSetCookies(nil))
	assert.Equal(t, "a=1", joinSetCookies([]string{"a=1; Path=/"}))
	assert.Equal(t, "a=1; b=2", joinSetCookies([]string{"a=1; Secure", "b=2"}))
	// a header without a name=value pair contributes nothing
	assert.Equal(t, "a=1", joinSetCookies([]string{"a=1", "garbage"}))
}

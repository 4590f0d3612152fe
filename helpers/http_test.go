package helpers

import (
	"bytes"
	"compress/gzip"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"budgetmanager/priceworker/pkg/errors"
)

func gzipBytes(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, err := gz.Write(data)
	assert.NoError(t, err)
	assert.NoError(t, gz.Close())
	return buf.Bytes()
}

func TestFetchPlainBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("<root>hello</root>"))
	}))
	defer server.Close()

	body, err := Fetch(server.URL, FetchOptions{})
	assert.NoError(t, err)
	assert.Equal(t, "<root>hello</root>", string(body))
}

func TestFetchGzipContentEncoding(t *testing.T) {
	original := []byte("<Root><Items><Item/></Items></Root>")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "gzip")
		w.Write(gzipBytes(t, original))
	}))
	defer server.Close()

	body, err := Fetch(server.URL, FetchOptions{})
	assert.NoError(t, err)
	assert.Equal(t, original, body)
}

func TestFetchGzipMagicBytes(t *testing.T) {
	// no Content-Encoding and no .gz suffix; the magic bytes alone
	// must trigger decompression
	original := []byte("magic byte payload")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(gzipBytes(t, original))
	}))
	defer server.Close()

	body, err := Fetch(server.URL, FetchOptions{})
	assert.NoError(t, err)
	assert.Equal(t, original, body)
}

func TestFetchGzipSuffix(t *testing.T) {
	original := []byte("<Prices></Prices>")
	mux := http.NewServeMux()
	mux.HandleFunc("/PriceFull123.gz", func(w http.ResponseWriter, r *http.Request) {
		w.Write(gzipBytes(t, original))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	body, err := Fetch(server.URL+"/PriceFull123.gz", FetchOptions{})
	assert.NoError(t, err)
	assert.Equal(t, original, body)
}

func TestFetchUncompressedAtGzURL(t *testing.T) {
	// a .gz URL serving plain bytes comes back untouched
	mux := http.NewServeMux()
	mux.HandleFunc("/file.gz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not actually compressed"))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	body, err := Fetch(server.URL+"/file.gz", FetchOptions{})
	assert.NoError(t, err)
	assert.Equal(t, "not actually compressed", string(body))
}

func TestFetchFollowsRelativeRedirect(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/start", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/target", http.StatusFound)
	})
	mux.HandleFunc("/target", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("arrived"))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	body, err := Fetch(server.URL+"/start", FetchOptions{})
	assert.NoError(t, err)
	assert.Equal(t, "arrived", string(body))
}

func TestFetchRedirectCap(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/loop", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/loop", http.StatusFound)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	_, err := Fetch(server.URL+"/loop", FetchOptions{MaxRedirects: 2})
	assert.Error(t, err)
	assert.Equal(t, errors.ErrorTypeTransport, errors.TypeOf(err))
	assert.Contains(t, err.Error(), "too many redirects")
}

func TestFetchLoginRedirectIsAuthFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/file/json/dir", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/login/user", http.StatusFound)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	_, err := Fetch(server.URL+"/file/json/dir", FetchOptions{})
	assert.Error(t, err)
	assert.Equal(t, errors.ErrorTypeAuth, errors.TypeOf(err))
}

func TestFetchStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := Fetch(server.URL, FetchOptions{})
	assert.Error(t, err)

	var pe *errors.PriceError
	assert.ErrorAs(t, err, &pe)
	assert.Equal(t, errors.ErrorTypeTransport, pe.Type)
	assert.Equal(t, http.StatusNotFound, pe.StatusCode)
}

func TestFetchSendsCookie(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "cftpSID=abc123", r.Header.Get("Cookie"))
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	_, err := Fetch(server.URL, FetchOptions{Cookie: "cftpSID=abc123"})
	assert.NoError(t, err)
}

func TestToUTF8(t *testing.T) {
	utf8Body := []byte("<html>שלום</html>")
	converted, err := ToUTF8(utf8Body, "text/html; charset=utf-8")
	assert.NoError(t, err)
	assert.Equal(t, utf8Body, converted)

	// 0xe9 is é in windows-1252
	converted, err = ToUTF8([]byte{'c', 'a', 'f', 0xe9}, "text/html; charset=windows-1252")
	assert.NoError(t, err)
	assert.Equal(t, "café", string(converted))
}

func TestValidateImageURL(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/good.jpg", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodHead, r.Method)
		w.Header().Set("Content-Type", "image/jpeg")
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/page.html", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/missing.jpg", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	assert.True(t, ValidateImageURL(server.URL+"/good.jpg"))
	assert.False(t, ValidateImageURL(server.URL+"/page.html"))
	assert.False(t, ValidateImageURL(server.URL+"/missing.jpg"))
	assert.False(t, ValidateImageURL("not a url"))
	assert.False(t, ValidateImageURL("ftp://example.com/x.jpg"))
	assert.False(t, ValidateImageURL("http://127.0.0.1:1/unreachable.jpg"))
}

package httpclient

import (
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/kgbridge/errors"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		url     string
		private bool
		wantErr bool
	}{
		{"https://schema.org/", false, false},
		{"http://www.w3.org/ns/activitystreams", false, false},
		{"ftp://example.com/ctx", false, true},
		{"file:///etc/passwd", false, true},
		{"http://user:pw@example.com/", false, true},
		{"http://localhost:8080/ctx", false, true},
		{"http://api.localhost/ctx", false, true},
		{"http://127.0.0.1/ctx", false, true},
		{"http://10.1.2.3/ctx", false, true},
		{"http://169.254.169.254/latest/meta-data", false, true},
		{"http://[::1]/ctx", false, true},
		{"http://[fd00::1]/ctx", false, true},
		{"http://127.0.0.1/ctx", true, false},
		{"gopher://127.0.0.1/ctx", true, true},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			u, err := url.Parse(tt.url)
			require.NoError(t, err)
			err = Validate(u, tt.private)
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrBlocked), "got %v", err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestIsPrivateIP(t *testing.T) {
	private := []string{"10.0.0.1", "172.16.5.4", "192.168.1.1", "127.0.0.1", "0.0.0.0",
		"100.64.0.1", "224.0.0.1", "255.255.255.255", "::1", "fe80::1", "fc00::1", "fec0::1", "2001:db8::1"}
	for _, s := range private {
		assert.True(t, isPrivateIP(net.ParseIP(s)), s)
	}
	public := []string{"8.8.8.8", "1.1.1.1", "2606:4700:4700::1111"}
	for _, s := range public {
		assert.False(t, isPrivateIP(net.ParseIP(s)), s)
	}
}

func TestClientBlocksLoopback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"@context": {}}`))
	}))
	defer srv.Close()

	_, err := New(Options{}).Get(srv.URL)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBlocked))

	resp, err := New(Options{AllowPrivate: true}).Get(srv.URL)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestClientRedirectLimit(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, srv.URL+"/again", http.StatusFound)
	}))
	defer srv.Close()

	_, err := New(Options{AllowPrivate: true, MaxRedirects: 2}).Get(srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stopped after 2 redirects")
}

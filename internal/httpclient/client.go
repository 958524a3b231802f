// Package httpclient builds HTTP clients for URLs taken from untrusted
// input, such as remote JSON-LD contexts named inside imported documents.
package httpclient

import (
	"context"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/teranos/kgbridge/errors"
)

// ErrBlocked marks requests refused by the URL policy.
var ErrBlocked = errors.New("url blocked")

// Options tunes New. Zero values use the defaults.
type Options struct {
	Timeout      time.Duration // default 10s
	MaxRedirects int           // default 5
	// AllowPrivate permits loopback and private addresses. Tests only.
	AllowPrivate bool
}

// New returns a client that only reaches public http(s) hosts. The policy
// is enforced per request and per redirect hop, and again on the resolved
// address when dialing.
func New(opts Options) *http.Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.MaxRedirects <= 0 {
		opts.MaxRedirects = 5
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if !opts.AllowPrivate {
		dialer := &net.Dialer{Timeout: opts.Timeout, KeepAlive: 30 * time.Second}
		transport.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
			host, port, err := net.SplitHostPort(addr)
			if err != nil {
				return nil, errors.Wrap(err, "invalid address")
			}
			ips, err := net.DefaultResolver.LookupIP(ctx, "ip", host)
			if err != nil {
				return nil, errors.Wrapf(err, "failed to resolve host %q", host)
			}
			for _, ip := range ips {
				if isPrivateIP(ip) {
					return nil, blockedf("private address %s for host %s", ip, host)
				}
			}
			// Dial the checked address so a second lookup cannot rebind.
			return dialer.DialContext(ctx, network, net.JoinHostPort(ips[0].String(), port))
		}
	}

	return &http.Client{
		Timeout:   opts.Timeout,
		Transport: &guard{allowPrivate: opts.AllowPrivate, next: transport},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= opts.MaxRedirects {
				return errors.Newf("stopped after %d redirects", opts.MaxRedirects)
			}
			return nil
		},
	}
}

// guard checks every outgoing request, redirects included.
type guard struct {
	allowPrivate bool
	next         http.RoundTripper
}

func (g *guard) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := Validate(req.URL, g.allowPrivate); err != nil {
		return nil, err
	}
	return g.next.RoundTrip(req)
}

// Validate applies the URL policy: http or https, no userinfo, and unless
// allowPrivate no localhost names or private literal addresses.
func Validate(u *url.URL, allowPrivate bool) error {
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return blockedf("scheme %q not allowed", u.Scheme)
	}
	if u.User != nil {
		return blockedf("credentials in URL are not allowed")
	}
	host := u.Hostname()
	if host == "" {
		return blockedf("URL missing hostname")
	}
	if allowPrivate {
		return nil
	}
	if isLocalhost(host) {
		return blockedf("localhost access blocked")
	}
	if ip := net.ParseIP(host); ip != nil && isPrivateIP(ip) {
		return blockedf("private address %s", host)
	}
	return nil
}

func blockedf(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), ErrBlocked)
}

var reservedV4 = []*net.IPNet{
	{IP: net.IPv4(0, 0, 0, 0), Mask: net.CIDRMask(8, 32)},
	{IP: net.IPv4(100, 64, 0, 0), Mask: net.CIDRMask(10, 32)}, // carrier-grade NAT
	{IP: net.IPv4(240, 0, 0, 0), Mask: net.CIDRMask(4, 32)},
}

// docV6 is 2001:db8::/32.
var docV6 = &net.IPNet{IP: net.ParseIP("2001:db8::"), Mask: net.CIDRMask(32, 128)}

func isPrivateIP(ip net.IP) bool {
	if ip.IsPrivate() || ip.IsLoopback() || ip.IsUnspecified() ||
		ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() || ip.IsMulticast() {
		return true
	}
	if ip4 := ip.To4(); ip4 != nil {
		for _, block := range reservedV4 {
			if block.Contains(ip4) {
				return true
			}
		}
		return false
	}
	// Deprecated site-local fec0::/10
	if ip[0] == 0xfe && ip[1]&0xc0 == 0xc0 {
		return true
	}
	return docV6.Contains(ip)
}

func isLocalhost(host string) bool {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	return host == "localhost" || host == "localhost.localdomain" || strings.HasSuffix(host, ".localhost")
}

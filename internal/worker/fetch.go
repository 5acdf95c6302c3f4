package worker

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"syscall"
	"time"
)

// ErrForbiddenAddress is returned when an avatar source resolves to a
// loopback, private or otherwise internal address.
var ErrForbiddenAddress = errors.New("avatar source address not allowed")

const maxRedirects = 5

var sharedAddressSpace = netip.MustParsePrefix("100.64.0.0/10")

// PublicAddr reports whether ip may be dialed for an avatar download.
func PublicAddr(ip netip.Addr) bool {
	ip = ip.Unmap()
	switch {
	case !ip.IsValid(),
		ip.IsLoopback(),
		ip.IsPrivate(),
		ip.IsLinkLocalUnicast(),
		ip.IsLinkLocalMulticast(),
		ip.IsInterfaceLocalMulticast(),
		ip.IsMulticast(),
		ip.IsUnspecified(),
		sharedAddressSpace.Contains(ip):
		return false
	}
	return true
}

// NewHTTPClient returns the client used for avatar downloads. Every dial,
// including those made while following redirects, is checked against
// PublicAddr after name resolution.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return newHTTPClient(timeout, func(ap netip.AddrPort) bool { return PublicAddr(ap.Addr()) })
}

func newHTTPClient(timeout time.Duration, allow func(netip.AddrPort) bool) *http.Client {
	dialer := &net.Dialer{
		Timeout: 10 * time.Second,
		Control: func(_, address string, _ syscall.RawConn) error {
			ap, err := netip.ParseAddrPort(address)
			if err != nil || !allow(ap) {
				return fmt.Errorf("%w: %s", ErrForbiddenAddress, address)
			}
			return nil
		},
	}
	// No proxy: the dial check must see the origin address.
	transport := &http.Transport{
		DialContext:         dialer.DialContext,
		TLSHandshakeTimeout: 10 * time.Second,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			return checkScheme(req.URL.Scheme)
		},
	}
}

func checkScheme(scheme string) error {
	if scheme != "http" && scheme != "https" {
		return fmt.Errorf("unsupported avatar url scheme %q", scheme)
	}
	return nil
}

package httpfetch

import (
	"errors"
	"fmt"
	"net"
	"net/url"
)

// ErrInvalidURL is returned when a URL fails scheme or format validation.
var ErrInvalidURL = errors.New("invalid url")

// ErrPrivateIP is returned when a hostname resolves to a private, loopback,
// or link-local address and denyPrivateIPs is set.
var ErrPrivateIP = errors.New("url resolves to a private ip")

// validateURL rejects non-http(s) schemes and, when denyPrivateIPs is set,
// hostnames resolving to RFC1918/loopback/link-local addresses, preventing
// SSRF via archive or article links that happen to point back at the host
// running this process.
func validateURL(urlStr string, denyPrivateIPs bool) error {
	u, err := url.Parse(urlStr)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: scheme %q not allowed", ErrInvalidURL, u.Scheme)
	}
	hostname := u.Hostname()
	if hostname == "" {
		return fmt.Errorf("%w: empty hostname", ErrInvalidURL)
	}
	if !denyPrivateIPs {
		return nil
	}
	ips, err := net.LookupIP(hostname)
	if err != nil {
		return fmt.Errorf("%w: dns lookup failed for %s: %v", ErrInvalidURL, hostname, err)
	}
	for _, ip := range ips {
		if isPrivateIP(ip) {
			return fmt.Errorf("%w: %s resolves to %s", ErrPrivateIP, hostname, ip)
		}
	}
	return nil
}

func isPrivateIP(ip net.IP) bool {
	return ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast()
}

// Package media turns raw image references from API payloads into absolute
// URLs the app can load.
package media

import (
	"net"
	"net/url"
	"strings"
)

// loopbackHosts are hostnames a backend running on a developer machine
// writes into image URLs. They are unreachable from a device, so they are
// rewritten to the API host. 10.0.2.2 is the Android emulator's host alias.
var loopbackHosts = map[string]struct{}{
	"localhost": {},
	"127.0.0.1": {},
	"0.0.0.0":   {},
	"::1":       {},
	"10.0.2.2":  {},
}

// Resolver resolves image paths against the active API origin.
type Resolver struct {
	origin *url.URL
}

// NewResolver builds a Resolver from the API base URL. Only the scheme and
// host of apiBase are used.
func NewResolver(apiBase string) (*Resolver, error) {
	u, err := url.Parse(strings.TrimSpace(apiBase))
	if err != nil {
		return nil, err
	}
	return &Resolver{origin: &url.URL{Scheme: u.Scheme, Host: u.Host}}, nil
}

// Resolve returns an absolute URL for raw, or "" when raw is empty.
//
// Absolute http(s) URLs are kept unless their host is a loopback alias, in
// which case scheme and host are swapped for the API origin. Protocol-relative
// URLs get the origin's scheme. Anything else is treated as a path on the
// API origin.
func (r *Resolver) Resolve(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	if strings.HasPrefix(raw, "//") {
		raw = r.scheme() + ":" + raw
	}

	if u, err := url.Parse(raw); err == nil && u.IsAbs() {
		if u.Scheme != "http" && u.Scheme != "https" {
			return raw
		}
		if r.origin != nil && r.origin.Host != "" && isLoopback(u.Hostname()) {
			u.Scheme = r.origin.Scheme
			u.Host = r.origin.Host
			return u.String()
		}
		return raw
	}

	if r.origin == nil || r.origin.Host == "" {
		return ""
	}
	path := "/" + strings.TrimLeft(raw, "/")
	return r.origin.Scheme + "://" + r.origin.Host + path
}

func (r *Resolver) scheme() string {
	if r.origin != nil && r.origin.Scheme != "" {
		return r.origin.Scheme
	}
	return "https"
}

func isLoopback(host string) bool {
	if _, ok := loopbackHosts[strings.ToLower(host)]; ok {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

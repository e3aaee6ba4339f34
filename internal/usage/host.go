package usage

import (
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// NormalizeHost reduces a reported host to the name buckets are keyed on. Ports, a trailing
// dot and a leading "www." are dropped. With collapse set, names are reduced to their
// registrable domain, so "mail.google.com" and "docs.google.com" share "google.com".
func NormalizeHost(raw string, collapse bool) string {
	host := strings.ToLower(strings.TrimSpace(raw))
	if strings.Contains(host, "://") {
		if u, err := url.Parse(host); err == nil {
			host = u.Host
		}
	}
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.TrimSuffix(host, ".")
	host = strings.TrimPrefix(host, "www.")

	if collapse && strings.Contains(host, ".") && net.ParseIP(host) == nil {
		if domain, err := publicsuffix.EffectiveTLDPlusOne(host); err == nil {
			host = domain
		}
	}
	return host
}

func validHost(host string, maxLength int) bool {
	if host == "" || len(host) > maxLength {
		return false
	}
	return !strings.ContainsAny(host, " \t\r\n/")
}

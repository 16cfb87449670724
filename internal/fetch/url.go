package fetch

import (
	"net"
	"net/url"
	"slices"
	"strings"
)

const platsbankenURL = "https://arbetsformedlingen.se/platsbanken/annonser/"

// trackingParams never change which page a link opens.
var trackingParams = map[string]bool{
	"gclid": true, "fbclid": true, "msclkid": true,
	"mc_cid": true, "mc_eid": true, "mkt_tok": true,
	"_hsenc": true, "_hsmi": true, "igshid": true,
}

// CanonicalURL normalises an employer link so the same posting reached via
// different campaigns compares equal: lower-case scheme and host, no default
// port, no fragment, no tracking parameters, sorted query.
func CanonicalURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	if host, port, err := net.SplitHostPort(u.Host); err == nil {
		if (u.Scheme == "https" && port == "443") || (u.Scheme == "http" && port == "80") {
			u.Host = host
		}
	}
	u.Fragment = ""
	u.RawFragment = ""

	q := u.Query()
	for k, vals := range q {
		lk := strings.ToLower(k)
		if strings.HasPrefix(lk, "utm_") || trackingParams[lk] {
			q.Del(k)
			continue
		}
		slices.Sort(vals)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// adURL prefers the employer's link and falls back to the Platsbanken page.
func adURL(webpage, id string) string {
	if u := CanonicalURL(webpage); u != "" {
		return u
	}
	if id == "" {
		return ""
	}
	return platsbankenURL + id
}

package utils

import (
	"net/url"
	"strings"

	"golang.org/x/net/idna"
)

// URLHost returns the lowercased ASCII host of raw, or "" when raw does not
// parse. A missing scheme is treated as https.
func URLHost(raw string) string {
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	host := strings.ToLower(parsed.Hostname())
	if ascii, err := idna.ToASCII(host); err == nil {
		host = ascii
	}
	return host
}

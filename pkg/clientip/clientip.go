package clientip

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// proxyHeaders are consulted in order when the service runs behind a
// trusted proxy. X-Forwarded-For contributes its first valid entry.
var proxyHeaders = []string{"CF-Connecting-IP", "X-Forwarded-For", "X-Real-IP"}

// GetIP returns the normalized client address. Forwarding headers are only
// honored when trustProxy is set; otherwise any client could spoof them.
func GetIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		for _, name := range proxyHeaders {
			value := r.Header.Get(name)
			if value == "" {
				continue
			}
			for candidate := range strings.SplitSeq(value, ",") {
				if ip := parseIP(candidate); ip != "" {
					return ip
				}
			}
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return parseIP(r.RemoteAddr)
	}
	return parseIP(host)
}

func parseIP(s string) string {
	addr, err := netip.ParseAddr(strings.TrimSpace(s))
	if err != nil {
		return ""
	}
	return addr.Unmap().WithZone("").String()
}

package infrastructure

import (
	"net/http"
	"strings"
)

const UnknownClientIP = "unknown"

// clientIPHeaders in priority order: Cloudflare's edge header first.
var clientIPHeaders = []string{
	"CF-Connecting-IP",
	"X-Forwarded-For",
	"X-Real-IP",
	"X-Client-IP",
}

// ResolveClientIP returns the first comma-separated entry of the first
// forwarding header present.
func ResolveClientIP(headers http.Header) string {
	for _, name := range clientIPHeaders {
		if v := headers.Get(name); v != "" {
			first := strings.TrimSpace(strings.Split(v, ",")[0])
			if first != "" {
				return first
			}
		}
	}
	return UnknownClientIP
}

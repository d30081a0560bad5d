package broadcast

import (
	"log/slog"
	"net/http"
	"net/url"
)

// NewCheckOrigin returns an upgrade origin check. With no appURL every origin
// is accepted. Otherwise empty origins (non-browser clients) and the app's own
// origin pass, plus localhost when isDevelopment is set.
func NewCheckOrigin(appURL string, isDevelopment bool) func(r *http.Request) bool {
	if appURL == "" {
		return func(*http.Request) bool { return true }
	}
	appOrigin := extractOrigin(appURL)

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || origin == appOrigin {
			return true
		}
		if isDevelopment && isLocalhostOrigin(origin) {
			return true
		}

		slog.Warn("WebSocket origin rejected", "origin", origin, "remote_addr", r.RemoteAddr)
		return false
	}
}

func extractOrigin(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}

func isLocalhostOrigin(origin string) bool {
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	host := u.Hostname()
	return host == "localhost" || host == "127.0.0.1" || host == "::1"
}

package auth

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
)

// NotConfiguredMessage is the 503 body served when no provider URL is set.
const NotConfiguredMessage = "Auth not configured. Set NEON_AUTH_BASE_URL environment variable."

// NewProxy returns a handler that forwards requests under mountPath to the
// hosted auth provider at baseURL, preserving the remaining path and query.
// An empty baseURL yields a handler that always answers 503.
func NewProxy(baseURL, mountPath string, log *slog.Logger) (http.Handler, error) {
	if baseURL == "" {
		log.Warn("auth provider URL is not set, auth endpoints will answer 503")
		return notConfigured(), nil
	}

	target, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing auth base URL: %w", err)
	}
	if target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("auth base URL %q must be absolute", baseURL)
	}

	mountPath = strings.TrimSuffix(mountPath, "/")

	rp := &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.Out.URL.Path = strings.TrimPrefix(pr.In.URL.Path, mountPath)
			pr.Out.URL.RawPath = ""
			pr.SetURL(target)
			pr.SetXForwarded()
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			log.Error("auth proxy failed", "path", r.URL.Path, "err", err)
			http.Error(w, "Auth provider unavailable.", http.StatusBadGateway)
		},
	}

	return rp, nil
}

func notConfigured() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, NotConfiguredMessage, http.StatusServiceUnavailable)
	})
}

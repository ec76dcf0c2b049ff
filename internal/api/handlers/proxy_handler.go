package handlers

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"

	"github.com/medly/scheduleconsole/internal/infrastructure/observability"
)

// NewBackendProxy forwards /api/* unchanged to the scheduling backend so the
// browser can reach it on the console's own origin.
func NewBackendProxy(origin string) (http.Handler, error) {
	target, err := url.Parse(origin)
	if err != nil || target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("invalid backend origin %q", origin)
	}

	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(target)
			pr.SetXForwarded()
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			observability.LoggerFromContext(r.Context()).Error().Err(err).
				Str("path", r.URL.Path).
				Msg("backend proxy failed")
			respondWithError(w, http.StatusBadGateway, "scheduling backend unreachable")
		},
	}, nil
}

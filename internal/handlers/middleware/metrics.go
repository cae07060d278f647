package middleware

import (
	"net/http"
	"time"
)

const (
	unmatchedRoute = "unmatched"
	otherMethod    = "other"
)

var knownMethods = map[string]struct{}{
	http.MethodGet:     {},
	http.MethodHead:    {},
	http.MethodPost:    {},
	http.MethodPut:     {},
	http.MethodPatch:   {},
	http.MethodDelete:  {},
	http.MethodConnect: {},
	http.MethodOptions: {},
	http.MethodTrace:   {},
}

type requestObserver interface {
	ObserveRequest(method string, route string, status int, duration time.Duration)
}

// MetricsMiddleware observes request latency labeled by the matched mux pattern.
// It must wrap the ServeMux directly: the mux sets r.Pattern on the request it receives.
func MetricsMiddleware(o requestObserver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := newStatusWriter(w)

			next.ServeHTTP(sw, r)

			method, route := methodLabel(r.Method), r.Pattern
			if route == "" {
				route = unmatchedRoute
			}
			o.ObserveRequest(method, route, sw.status, time.Since(start))
		})
	}
}

// Method comes from the client, so anything non-standard shares one label
func methodLabel(method string) string {
	if _, ok := knownMethods[method]; ok {
		return method
	}
	return otherMethod
}

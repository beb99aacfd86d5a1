package api

import (
	"net/http"
	"time"
)

// middleware wraps a route handler. name is the route path.
type middleware func(next http.HandlerFunc, name string) http.HandlerFunc

// statusRecorder remembers the status code written by the wrapped handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (a *API) registerRoute(method, path string, handler http.HandlerFunc, mws ...middleware) {
	for _, mw := range mws {
		handler = mw(handler, path)
	}
	a.router.Handle(path, handler).Methods(method)
}

func (a *API) requestLogger(next http.HandlerFunc, name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)

		l := a.log.With("method", r.Method, "uri", r.RequestURI, "route", name, "status", rec.status,
			"duration", time.Since(start))
		if rec.status >= http.StatusInternalServerError {
			a.metric.ErrorCounter("http_" + name)
			l.Warnf("request failed")
			return
		}
		l.Info()
	}
}

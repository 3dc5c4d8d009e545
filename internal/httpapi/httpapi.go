// Package httpapi serves the metrics listener: Prometheus metrics and a
// read-only JSON view of the session analytics.
//
//	GET /metrics                 Prometheus exposition
//	GET /api/ping                liveness
//	GET /api/analytics           full analytics snapshot
//	GET /api/analytics/top?n=5   most frequent categories
//	GET /api/analytics/timeline  one row per frame and category
package httpapi

import (
	"net/http"
	"time"

	"github.com/cyclopcam/logs"
	"github.com/cyclopcam/www"
	"github.com/go-chi/httprate"
	"github.com/julienschmidt/httprouter"

	"github.com/tkzzzzzz6/dino-x/internal/analytics"
	"github.com/tkzzzzzz6/dino-x/internal/applog"
	"github.com/tkzzzzzz6/dino-x/internal/metrics"
)

const (
	// DefaultTop is the n used by /api/analytics/top when the query has none.
	DefaultTop = 5

	// SnapshotLimit caps full snapshot requests per client IP per minute.
	SnapshotLimit = 60
)

type Server struct {
	log    logs.Log
	agg    *analytics.Aggregator
	router *httprouter.Router
}

// New builds the routes. A nil m leaves /metrics out.
func New(log logs.Log, m *metrics.Metrics, agg *analytics.Aggregator) *Server {
	s := &Server{
		log:    applog.NewPrefix(log, "[http]"),
		agg:    agg,
		router: httprouter.New(),
	}

	if m != nil {
		s.router.Handler("GET", "/metrics", m.Handler())
	}
	s.handle("GET", "/api/ping", s.httpPing)
	s.ratelimited("GET", "/api/analytics", s.httpAnalytics, SnapshotLimit, time.Minute)
	s.handle("GET", "/api/analytics/top", s.httpTopObjects)
	s.handle("GET", "/api/analytics/timeline", s.httpTimeline)
	return s
}

func (s *Server) handle(method, route string, handle httprouter.Handle) {
	www.Handle(s.log, s.router, method, route, func(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
		s.log.Debugf("HTTP %v %v", method, r.URL.Path)
		handle(w, r, params)
	})
}

func (s *Server) ratelimited(method, route string, handle httprouter.Handle, requestLimit int, windowLength time.Duration) {
	limited := httprate.Limit(requestLimit, windowLength, httprate.WithKeyFuncs(httprate.KeyByIP))
	s.handle(method, route, func(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
		limited(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			handle(w, r, params)
		})).ServeHTTP(w, r)
	})
}

// Handler returns the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe blocks until the listener fails.
func (s *Server) ListenAndServe(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.log.Infof("Listening on %v", addr)
	return srv.ListenAndServe()
}

func (s *Server) httpPing(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	type pingJSON struct {
		Time int64 `json:"time"`
	}
	www.SendJSON(w, &pingJSON{Time: time.Now().Unix()})
}

func (s *Server) httpAnalytics(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	www.SendJSON(w, s.agg.Snapshot())
}

func (s *Server) httpTopObjects(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	n := DefaultTop
	if www.QueryValue(r, "n") != "" {
		n = www.QueryInt(r, "n")
	}
	top, err := s.agg.TopObjects(n)
	if err != nil {
		www.PanicBadRequestf("%v", err)
	}
	if top == nil {
		top = []analytics.CategoryCount{}
	}
	www.SendJSON(w, top)
}

func (s *Server) httpTimeline(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	www.SendJSON(w, s.agg.Timeline())
}

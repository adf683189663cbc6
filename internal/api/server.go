// Package api serves the planner, the tracker and the catalogue over HTTP.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/signalsfoundry/pass-planner/internal/logging"
	"github.com/signalsfoundry/pass-planner/internal/observability"
	"github.com/signalsfoundry/pass-planner/internal/planner"
	"github.com/signalsfoundry/pass-planner/kb"
	"github.com/signalsfoundry/pass-planner/model"
	"github.com/signalsfoundry/pass-planner/timectrl"
)

const (
	requestIDHeader = "X-Request-Id"

	defaultPlanTimeout = 2 * time.Minute
	maxRequestBytes    = 1 << 20
)

// Options wires a Server. Tracker and Clock may be nil, in which case the
// tracker endpoints report empty data and readiness is always true.
type Options struct {
	Catalog     *kb.Catalog
	Planner     *planner.Planner
	Tracker     *planner.Tracker
	Clock       timectrl.Clock
	Metrics     *observability.APICollector
	Location    *time.Location
	PlanTimeout time.Duration
	Logger      logging.Logger
}

// Server is the HTTP surface.
type Server struct {
	catalog     *kb.Catalog
	planner     *planner.Planner
	tracker     *planner.Tracker
	clock       timectrl.Clock
	metrics     *observability.APICollector
	loc         *time.Location
	planTimeout time.Duration
	log         logging.Logger
}

// NewServer constructs a Server from opts.
func NewServer(opts Options) *Server {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	timeout := opts.PlanTimeout
	if timeout <= 0 {
		timeout = defaultPlanTimeout
	}
	return &Server{
		catalog:     opts.Catalog,
		planner:     opts.Planner,
		tracker:     opts.Tracker,
		clock:       opts.Clock,
		metrics:     opts.Metrics,
		loc:         loc,
		planTimeout: timeout,
		log:         logging.OrNoop(opts.Logger),
	}
}

// Handler returns the routed, instrumented handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.route(mux, "GET /healthz", s.handleHealth)
	s.route(mux, "GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", s.metrics.Handler())
	s.route(mux, "GET /api/v1/satellites", s.handleSatellites)
	s.route(mux, "GET /api/v1/satellites/{id}/passes", s.handleSatellitePasses)
	s.route(mux, "POST /api/v1/passes", s.handlePlan)
	return mux
}

func (s *Server) route(mux *http.ServeMux, pattern string, h http.HandlerFunc) {
	mux.Handle(pattern, s.metrics.Middleware(pattern, s.withRequestID(h)))
}

// withRequestID reuses an inbound X-Request-Id or assigns one, and puts a
// request-scoped logger on the context.
func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if incoming := r.Header.Get(requestIDHeader); incoming != "" {
			ctx = logging.ContextWithRequestID(ctx, incoming)
		}
		ctx, reqLog := logging.WithRequestLogger(ctx, s.log.With(
			logging.String("method", r.Method),
			logging.String("path", r.URL.Path),
		))
		ctx = logging.ContextWithLogger(ctx, reqLog)
		w.Header().Set(requestIDHeader, logging.RequestIDFromContext(ctx))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) logger(ctx context.Context) logging.Logger {
	if l := logging.LoggerFromContext(ctx); l != nil {
		return l
	}
	return s.log
}

func (s *Server) now() time.Time {
	if s.clock == nil {
		return time.Now()
	}
	return s.clock.Now()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.tracker != nil && !s.tracker.Ready() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "warming up"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

type satelliteView struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	NoradID     int                  `json:"noradId,omitempty"`
	Category    string               `json:"category,omitempty"`
	Sensor      model.SensorType     `json:"sensor"`
	Envelope    model.SensorEnvelope `json:"envelope"`
	OrbitalType model.OrbitalType    `json:"orbitalType,omitempty"`
	Tags        []string             `json:"tags,omitempty"`
	InPass      bool                 `json:"inPass"`
}

func (s *Server) view(sat model.Satellite, now time.Time) satelliteView {
	v := satelliteView{
		ID:          sat.ID,
		Name:        sat.Name,
		NoradID:     sat.NoradID,
		Category:    sat.Category,
		Sensor:      sat.Sensor,
		Envelope:    sat.Envelope,
		OrbitalType: sat.OrbitalType,
		Tags:        sat.Tags,
	}
	if s.tracker != nil {
		v.InPass = s.tracker.InPass(sat.ID, now)
	}
	return v
}

func (s *Server) handleSatellites(w http.ResponseWriter, r *http.Request) {
	now := s.now()
	sats := s.catalog.List()
	out := make([]satelliteView, 0, len(sats))
	for _, sat := range sats {
		out = append(out, s.view(sat, now))
	}
	writeJSON(w, http.StatusOK, map[string]any{"satellites": out})
}

type satellitePassesResponse struct {
	Satellite satelliteView         `json:"satellite"`
	Passes    []model.ElevationPass `json:"passes"`
}

func (s *Server) handleSatellitePasses(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	sat, ok := s.catalog.Get(id)
	if !ok {
		writeError(w, r, fmt.Errorf("%w: %q", kb.ErrSatelliteNotFound, id))
		return
	}
	resp := satellitePassesResponse{Satellite: s.view(sat, s.now()), Passes: []model.ElevationPass{}}
	if s.tracker != nil {
		if passes, ok := s.tracker.Passes(id); ok {
			for _, p := range passes {
				p.Start, p.End = p.Start.In(s.loc), p.End.In(s.loc)
				resp.Passes = append(resp.Passes, p)
			}
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

type planRequestBody struct {
	Targets               []model.AreaTarget `json:"targets"`
	Start                 time.Time          `json:"start"`
	End                   time.Time          `json:"end"`
	Duration              string             `json:"duration"`
	MaxPasses             int                `json:"maxPasses"`
	Categories            []string           `json:"categories"`
	SensorTypes           []model.SensorType `json:"sensorTypes"`
	IncludeGeosynchronous bool               `json:"includeGeosynchronous"`
}

func (b planRequestBody) request(now time.Time) (planner.Request, error) {
	start := b.Start
	if start.IsZero() {
		start = now
	}
	end := b.End
	if end.IsZero() && b.Duration != "" {
		d, err := time.ParseDuration(b.Duration)
		if err != nil {
			return planner.Request{}, fmt.Errorf("%w: duration: %v", ErrBadRequest, err)
		}
		end = start.Add(d)
	}
	if end.IsZero() {
		end = start.Add(24 * time.Hour)
	}
	return planner.Request{
		Targets:               b.Targets,
		Start:                 start,
		End:                   end,
		MaxPasses:             b.MaxPasses,
		Categories:            b.Categories,
		SensorTypes:           b.SensorTypes,
		IncludeGeosynchronous: b.IncludeGeosynchronous,
	}, nil
}

type failureView struct {
	SatelliteID string `json:"satelliteId"`
	Target      string `json:"target,omitempty"`
	Error       string `json:"error"`
}

type planResponse struct {
	PlanID   string        `json:"planId"`
	Passes   []model.Pass  `json:"passes"`
	Failures []failureView `json:"failures,omitempty"`
	Skipped  []string      `json:"skipped,omitempty"`
}

func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := s.logger(ctx)

	var body planRequestBody
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		writeError(w, r, fmt.Errorf("%w: %v", ErrBadRequest, err))
		return
	}
	req, err := body.request(s.now())
	if err != nil {
		writeError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, s.planTimeout)
	defer cancel()
	res, err := s.planner.Plan(ctx, req)
	if err != nil {
		log.Warn(ctx, "plan request failed", logging.Err(err))
		writeError(w, r, err)
		return
	}

	resp := planResponse{PlanID: res.PlanID, Passes: make([]model.Pass, len(res.Passes)), Skipped: res.Skipped}
	for i, p := range res.Passes {
		resp.Passes[i] = p.In(s.loc)
	}
	for _, f := range res.Failures {
		resp.Failures = append(resp.Failures, failureView{SatelliteID: f.SatelliteID, Target: f.Target, Error: f.Err.Error()})
	}
	log.Info(ctx, "plan served",
		logging.String("plan_id", res.PlanID),
		logging.Int("passes", len(resp.Passes)),
		logging.Int("failures", len(resp.Failures)),
	)
	writeJSON(w, http.StatusOK, resp)
}

// Package api exposes the service over REST.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/kostiamol/offsetms/calib"
	"github.com/kostiamol/offsetms/log"
	"github.com/kostiamol/offsetms/metric"
	"github.com/kostiamol/offsetms/svc"
	"github.com/rs/cors"
)

type (
	// StatusChecker is a contract for the store health check.
	StatusChecker interface {
		Check() (bool, error)
	}

	// CycleRunner is a contract for the scheduler.
	CycleRunner interface {
		RunNow(ctx context.Context) []calib.Outcome
		Rooms() []calib.Room
	}

	// ParamsetReader is a contract for the device-read capability.
	ParamsetReader interface {
		GetParamset(ctx context.Context, group string, r *calib.ParamsetRequest) (*calib.ParamsetResponse, error)
	}

	// Cfg is used to initialize an instance of API.
	Cfg struct {
		Log             log.Logger
		Ctrl            svc.Ctrl
		Metric          *metric.Metric
		PortREST        uint32
		Checker         StatusChecker
		Scheduler       CycleRunner
		Device          ParamsetReader
		PublicKey       string
		ShutdownTimeout time.Duration
	}

	// API serves the REST endpoints.
	API struct {
		log             log.Logger
		ctrl            svc.Ctrl
		metric          *metric.Metric
		portREST        uint32
		checker         StatusChecker
		scheduler       CycleRunner
		device          ParamsetReader
		token           *token
		shutdownTimeout time.Duration
		router          *mux.Router
	}
)

// New creates and initializes a new instance of API. A non-empty public key enables token validation.
func New(c *Cfg) (*API, error) {
	a := &API{
		log:             c.Log.With("component", "api"),
		ctrl:            c.Ctrl,
		metric:          c.Metric,
		portREST:        c.PortREST,
		checker:         c.Checker,
		scheduler:       c.Scheduler,
		device:          c.Device,
		shutdownTimeout: c.ShutdownTimeout,
	}

	if c.PublicKey != "" {
		t, err := newToken(c.PublicKey, a.log)
		if err != nil {
			return nil, err
		}
		a.token = t
	}

	a.router = mux.NewRouter()
	a.registerRoutes()
	return a, nil
}

// Run serves HTTP until the Ctrl is terminated.
func (a *API) Run() {
	a.log.With("event", log.EventComponentStarted).Infof("rest port [%d]", a.portREST)

	s := &http.Server{
		Handler: a.Handler(),
		Addr:    fmt.Sprintf(":%d", a.portREST),
	}

	go a.listenToTermination(s)

	if err := s.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		a.log.Errorf("func ListenAndServe: %s", err)
		a.terminate()
	}
}

// Handler returns the router wrapped with CORS and panic recovery.
func (a *API) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "HEAD", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
	})

	recovery := handlers.RecoveryHandler(handlers.RecoveryLogger(recoveryLogger{a}))
	return c.Handler(recovery(a.router))
}

func (a *API) listenToTermination(s *http.Server) {
	<-a.ctrl.StopChan

	ctx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		a.log.Errorf("func Shutdown: %s", err)
	}

	a.log.With("event", log.EventComponentShutdown).Info()
	_ = a.log.Flush()
}

func (a *API) terminate() {
	a.ctrl.Terminate()
}

func (a *API) registerRoutes() {
	public := []middleware{
		a.requestLogger,
		a.metric.TimeTracker,
	}
	protected := public
	if a.token != nil {
		protected = []middleware{
			a.requestLogger,
			a.token.validator,
			a.metric.TimeTracker,
		}
	}

	a.registerRoute(http.MethodGet, "/health", a.health)
	a.registerRoute(http.MethodGet, "/metrics", a.metric.RouterHandlerHTTP())

	a.registerRoute(http.MethodGet, "/v1/rooms", a.getRoomsHandler, public...)
	a.registerRoute(http.MethodPost, "/v1/cycle", a.postCycleHandler, protected...)
	a.registerRoute(http.MethodGet, "/v1/thermostats/{ref}/offset", a.getOffsetHandler, protected...)

	a.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respError(w, a.log, newNotFoundError())
	})
}

type recoveryLogger struct {
	a *API
}

func (l recoveryLogger) Println(args ...interface{}) {
	l.a.metric.ErrorCounter(log.EventPanic)
	l.a.log.With("event", log.EventPanic).Error(args...)
}

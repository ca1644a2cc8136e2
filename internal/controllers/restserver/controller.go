package restserver

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/runtimeterrors/trailrunners/internal/backend"
	"github.com/runtimeterrors/trailrunners/internal/log"
	"github.com/runtimeterrors/trailrunners/internal/trail"
	"github.com/runtimeterrors/trailrunners/pkg/config"
)

// Controller represents the REST server controller
type Controller struct {
	ctx     context.Context
	wg      *sync.WaitGroup
	cfg     *config.ConfigData
	Server  http.Server
	FS      fs.FS
	Backend *backend.Client
	Trails  *trail.Catalog
	Lidar   *trail.Catalog

	logger   *zap.SugaredLogger
	handlers *Handlers
	errc     chan error
}

// NewController creates a new REST server controller
func NewController(ctx context.Context, wg *sync.WaitGroup, cfg *config.ConfigData, logger *zap.SugaredLogger) (*Controller, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	client, err := backend.NewClient(backend.Config{
		BaseURL:           cfg.Backend.BaseURL,
		Timeout:           cfg.Backend.TimeoutDuration(),
		ParsePath:         cfg.Backend.ParsePath,
		LidarPath:         cfg.Backend.LidarPath,
		ConvertPath:       cfg.Backend.ConvertPath,
		UpdatePath:        cfg.Backend.UpdatePath,
		RequestsPerSecond: cfg.Backend.RequestsPerSecond,
		Burst:             cfg.Backend.Burst,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating backend client: %w", err)
	}

	ctrl := &Controller{
		ctx:     ctx,
		wg:      wg,
		cfg:     cfg,
		FS:      GetAssets(),
		Backend: client,
		Trails:  trail.NewCatalog(cfg.Trails.TrailsDir, ".gpx"),
		Lidar:   trail.NewCatalog(cfg.Trails.LidarDir, ".laz", ".las"),
		logger:  logger,
		errc:    make(chan error, 1),
	}

	// If a ListenAddr was not provided, listen on all interfaces
	listenAddr := cfg.Server.ListenAddr
	if listenAddr == "" {
		logger.Info("server.listen-addr not provided; defaulting to 0.0.0.0 (all interfaces)")
		listenAddr = "0.0.0.0"
	}

	ctrl.handlers = NewHandlers(ctrl)

	ctrl.Server.Addr = fmt.Sprintf("%v:%v", listenAddr, cfg.Server.Port)
	ctrl.Server.Handler = ctrl.setupRouter()
	ctrl.Server.ReadHeaderTimeout = 10 * time.Second

	return ctrl, nil
}

// Handler returns the router serving every endpoint
func (c *Controller) Handler() http.Handler {
	return c.Server.Handler
}

// StartController starts the REST server. A failure to serve, such as the
// port already being in use, is delivered on Err.
func (c *Controller) StartController() error {
	log.Infof("Starting REST server on %s...", c.Server.Addr)
	c.wg.Add(1)

	go func() {
		defer c.wg.Done()

		var err error
		if c.cfg.Server.Cert != "" && c.cfg.Server.Key != "" {
			err = c.Server.ListenAndServeTLS(c.cfg.Server.Cert, c.cfg.Server.Key)
		} else {
			err = c.Server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("REST server error: %v", err)
			c.errc <- fmt.Errorf("rest server on %s: %w", c.Server.Addr, err)
		}
	}()

	go func() {
		<-c.ctx.Done()
		log.Info("Shutting down the REST server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		c.Server.Shutdown(shutdownCtx)
	}()

	return nil
}

// Err returns the channel receiving the error that stopped the server
func (c *Controller) Err() <-chan error {
	return c.errc
}

// maxUploadBytes is the largest request body accepted
func (c *Controller) maxUploadBytes() int64 {
	return int64(c.cfg.Server.MaxUploadMB) << 20
}

// setupRouter configures the HTTP router with all endpoints
func (c *Controller) setupRouter() *mux.Router {
	router := mux.NewRouter()

	router.Use(c.requestIDMiddleware)
	router.Use(c.loggingMiddleware)
	router.Use(c.corsMiddleware)

	api := router.PathPrefix("/api").Subrouter()

	// Preflight requests are answered by corsMiddleware once a route matches
	api.PathPrefix("/").Methods("OPTIONS").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	// Trail catalog and backend proxies
	api.HandleFunc("/trails", c.handlers.ListTrails).Methods("GET")
	api.HandleFunc("/fileReader", c.handlers.ListTrails).Methods("GET")
	api.HandleFunc("/parser", c.handlers.ParseTrail).Methods("POST")
	api.HandleFunc("/uploadLidar", c.handlers.UploadLidar).Methods("POST")
	api.HandleFunc("/gnssConverter", c.handlers.ConvertGNSS).Methods("POST")
	api.HandleFunc("/update", c.handlers.UpdateTrail).Methods("POST")

	// Segmentation and derived views
	api.HandleFunc("/segments", c.handlers.GetSegments).Methods("POST")
	api.HandleFunc("/segments/lookup", c.handlers.LookupSegment).Methods("POST")
	api.HandleFunc("/summary", c.handlers.GetSummary).Methods("POST")
	api.HandleFunc("/geojson", c.handlers.GetGeoJSON).Methods("POST")
	api.HandleFunc("/chart", c.handlers.RenderChart).Methods("POST")
	api.HandleFunc("/profile.png", c.handlers.RenderProfilePNG).Methods("POST")

	api.HandleFunc("/logs/http", c.handlers.GetHTTPLogs).Methods("GET")

	// Pages
	router.HandleFunc("/", c.handlers.ServePage("index")).Methods("GET")
	router.HandleFunc("/about", c.handlers.ServePage("about")).Methods("GET")
	router.HandleFunc("/privacy", c.handlers.ServePage("privacy")).Methods("GET")
	router.HandleFunc("/info", c.handlers.ServePage("info")).Methods("GET")
	router.HandleFunc("/gpx_generate", c.handlers.ServePage("gpx_generate")).Methods("GET")

	// Static file serving
	router.PathPrefix("/css/").Handler(http.FileServer(http.FS(c.FS)))
	router.PathPrefix("/js/").Handler(http.FileServer(http.FS(c.FS)))
	router.PathPrefix("/images/").Handler(http.FileServer(http.FS(c.FS)))

	return router
}

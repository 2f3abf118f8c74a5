package internal

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/2beens/fittracker/internal/auth"
	"github.com/2beens/fittracker/internal/config"
	"github.com/2beens/fittracker/internal/db"
	"github.com/2beens/fittracker/internal/middleware"
	"github.com/2beens/fittracker/internal/plans"
	"github.com/2beens/fittracker/internal/telemetry/metrics"
	"github.com/2beens/fittracker/internal/telemetry/tracing"
	"github.com/2beens/fittracker/internal/users"
	"github.com/2beens/fittracker/internal/workoutlog"
	"github.com/2beens/fittracker/pkg"

	"github.com/IBM/pgxpoolprometheus"
	"github.com/getsentry/sentry-go"
	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redis_rate/v9"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
)

type Server struct {
	httpServer        *http.Server
	metricsHttpServer *http.Server
	versionInfo       string

	config *config.Config
	dbPool *pgxpool.Pool

	redisClient  *redis.Client
	loginChecker *auth.LoginChecker
	authService  *auth.Service

	// telemetry
	metricsManager *metrics.Manager
	promRegistry   *prometheus.Registry
	otelShutdown   func()
}

type NewServerParams struct {
	Config          *config.Config
	VersionInfo     string
	PostgresUser    string
	PostgresPasswd  string
	RedisPassword   string
	TracingEnabled  bool
	SessionsCleanup bool
}

func NewServer(
	ctx context.Context,
	params NewServerParams,
) (*Server, error) {
	dbPool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
		DBHost:         params.Config.PostgresHost,
		DBPort:         params.Config.PostgresPort,
		DBName:         params.Config.PostgresDBName,
		DBUser:         params.PostgresUser,
		DBPassword:     params.PostgresPasswd,
		TracingEnabled: params.TracingEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("new db pool: %w", err)
	}

	if err := dbPool.Ping(ctx); err != nil {
		log.Warnf("failed to ping db: %s", err)
	}

	pgxpoolCollector := pgxpoolprometheus.NewCollector(
		dbPool,
		map[string]string{"db_name": params.Config.PostgresDBName},
	)
	promRegistry := metrics.SetupPrometheus(pgxpoolCollector)
	metricsManager := metrics.NewManager("fittracker", "main", promRegistry)
	metricsManager.GaugeLifeSignal.Set(0)

	rdb := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(params.Config.RedisHost, params.Config.RedisPort),
		Password: params.RedisPassword,
		DB:       0, // use default DB
	})

	rdbStatus := rdb.Ping(ctx)
	if err := rdbStatus.Err(); err != nil {
		log.Errorf("--> failed to ping redis: %s", err)
	} else {
		log.Debugf("redis ping: %s", rdbStatus.Val())
	}

	authService := auth.NewService(auth.DefaultTTL, rdb)
	if params.SessionsCleanup {
		go func() {
			for range time.Tick(time.Hour * 8) {
				authService.ScanAndClean(ctx)
			}
		}()
	}

	// use honeycomb distro to setup OpenTelemetry SDK
	otelShutdown, err := tracing.HoneycombSetup(params.TracingEnabled, "fittracker-backend", rdb)
	if err != nil {
		return nil, err
	}

	if params.Config.PlanUploadsPath != "" {
		uploadsDirExists, err := pkg.PathExists(params.Config.PlanUploadsPath, true)
		if err != nil {
			return nil, fmt.Errorf("check plan uploads dir: %w", err)
		}
		if !uploadsDirExists {
			if err := os.MkdirAll(params.Config.PlanUploadsPath, os.ModePerm); err != nil {
				return nil, fmt.Errorf("create plan uploads dir: %w", err)
			}
		}
	}

	return &Server{
		config:      params.Config,
		dbPool:      dbPool,
		versionInfo: params.VersionInfo,

		redisClient:  rdb,
		authService:  authService,
		loginChecker: auth.NewLoginChecker(auth.DefaultTTL, rdb),

		// telemetry
		metricsManager: metricsManager,
		promRegistry:   promRegistry,
		otelShutdown:   otelShutdown,
	}, nil
}

func (s *Server) routerSetup() *mux.Router {
	r := mux.NewRouter()
	r.Use(otelmux.Middleware("main-router"))

	r.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		pkg.WriteTextResponseOK(w, "I'm OK, thanks ;)")
	}).Methods("GET", "POST", "OPTIONS").Name("root")
	r.HandleFunc("/version", func(w http.ResponseWriter, _ *http.Request) {
		pkg.WriteTextResponseOK(w, s.versionInfo)
	}).Methods("GET").Name("version")

	reqRateLimiter := redis_rate.NewLimiter(s.redisClient)
	usersHandler := users.NewHandler(users.NewRepo(s.dbPool), s.authService)
	usersHandler.SetupRoutes(
		r,
		reqRateLimiter,
		s.config.LoginRateLimitAllowedPerMin,
		s.metricsManager,
	)

	plansRepo := plans.NewRepo(s.dbPool)
	plansHandler := plans.NewHandler(plansRepo, s.config.PlanUploadsPath, s.metricsManager)
	plansHandler.SetupRoutes(r)

	logsHandler := workoutlog.NewHandler(
		workoutlog.NewRepo(s.dbPool),
		plansRepo,
		s.metricsManager,
	)
	logsHandler.SetupRoutes(r)

	// all the rest - unhandled paths
	r.HandleFunc("/{unknown}", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}).Methods("GET", "POST", "PUT", "OPTIONS").Name("unknown")

	authMiddleware := middleware.NewAuthMiddlewareHandler(s.loginChecker)

	r.Use(middleware.PanicRecovery(s.metricsManager))
	r.Use(middleware.LogRequest())
	r.Use(middleware.RequestMetrics(s.metricsManager))
	r.Use(middleware.Cors())
	r.Use(authMiddleware.AuthCheck())
	r.Use(middleware.DrainAndCloseRequest())

	return r
}

func (s *Server) Serve(_ context.Context, host string, port int) {
	router := s.routerSetup()

	ipAndPort := net.JoinHostPort(host, strconv.Itoa(port))
	s.httpServer = &http.Server{
		Handler:      router,
		Addr:         ipAndPort,
		WriteTimeout: time.Minute,
		ReadTimeout:  time.Minute,
		ConnState:    s.connStateMetrics,
	}

	metricsRouter := mux.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.HandlerFor(
		s.promRegistry,
		promhttp.HandlerOpts{},
	))
	metricsAddr := net.JoinHostPort(s.config.PrometheusMetricsHost, s.config.PrometheusMetricsPort)
	s.metricsHttpServer = &http.Server{
		Addr:    metricsAddr,
		Handler: metricsRouter,
	}

	go func() {
		log.Infof(" > server listening on: [%s]", ipAndPort)
		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("main service, listen and serve: %s", err)
		}
	}()

	go func() {
		log.Debugf(" > metrics listening on: [%s]", metricsAddr)
		err := s.metricsHttpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("metrics service, listen and serve: %s", err)
		}
	}()

	s.metricsManager.GaugeLifeSignal.Set(1)
}

func (s *Server) GracefulShutdown() {
	log.Debug("graceful shutdown initiated ...")

	s.metricsManager.GaugeLifeSignal.Set(0)

	s.otelShutdown()
	log.Trace("otel shut down ...")

	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			log.Errorf("failed to close redis client conn: %s", err)
		}
	}

	if s.dbPool != nil {
		log.Debugln("closing db pool ...")
		s.dbPool.Close() // blocking operation
		log.Debugln("db pool closed")
	}

	if ok := sentry.Flush(5 * time.Second); ok {
		log.Debugf("sentry flush ok: %t", ok)
	}

	maxWaitDuration := time.Second * 15
	ctx, timeoutCancel := context.WithTimeout(context.Background(), maxWaitDuration)
	defer timeoutCancel()

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			log.Error(" >>> failed to gracefully shutdown http server")
		}
		log.Warnln("server shut down")
	}

	if s.metricsHttpServer != nil {
		if err := s.metricsHttpServer.Shutdown(ctx); err != nil {
			log.Error(" >>> failed to gracefully shutdown metrics http server")
		}
		log.Warnln("metrics server shut down")
	}
}

func (s *Server) connStateMetrics(_ net.Conn, state http.ConnState) {
	switch state {
	case http.StateNew:
		s.metricsManager.GaugeRequests.Add(1)
	case http.StateClosed:
		s.metricsManager.GaugeRequests.Add(-1)
	default:
		// do nothing
	}
}

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

	"github.com/2beens/gymstats-backend/internal/auth"
	"github.com/2beens/gymstats-backend/internal/config"
	"github.com/2beens/gymstats-backend/internal/db"
	gymstatsmcp "github.com/2beens/gymstats-backend/internal/mcp"
	"github.com/2beens/gymstats-backend/internal/middleware"
	"github.com/2beens/gymstats-backend/internal/misc"
	"github.com/2beens/gymstats-backend/internal/program"
	"github.com/2beens/gymstats-backend/internal/readiness"
	"github.com/2beens/gymstats-backend/internal/telemetry/metrics"
	"github.com/2beens/gymstats-backend/internal/telemetry/tracing"
	"github.com/2beens/gymstats-backend/internal/training"
	"github.com/2beens/gymstats-backend/internal/training/analytics"
	"github.com/2beens/gymstats-backend/internal/training/backup"

	"github.com/IBM/pgxpoolprometheus"
	"github.com/getsentry/sentry-go"
	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redis_rate/v9"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
)

type Server struct {
	httpServer        *http.Server
	metricsHttpServer *http.Server
	iosAppSecret      string // used with the gymstats ios app
	mcpSecret         string // used by MCP clients hitting /mcp
	versionInfo       string

	config *config.Config
	dbPool *pgxpool.Pool

	redisClient  *redis.Client
	loginChecker *auth.LoginChecker
	authService  *auth.Service

	// metrics
	metricsManager *metrics.Manager
	promRegistry   *prometheus.Registry
	otelShutdown   func()
}

type NewServerParams struct {
	Config                  *config.Config
	GymstatsIOSAppSecret    string
	MCPSecret               string
	VersionInfo             string
	AdminUsername           string
	AdminPasswordHash       string
	RedisPassword           string
	HoneycombTracingEnabled bool
}

func NewServer(
	ctx context.Context,
	params NewServerParams,
) (*Server, error) {
	dbPoolParams := db.NewDBPoolParams{
		DBHost:         params.Config.PostgresHost,
		DBPort:         params.Config.PostgresPort,
		DBName:         params.Config.PostgresDBName,
		TracingEnabled: params.HoneycombTracingEnabled,
	}

	if params.Config.MigrateOnStart {
		if err := db.Migrate(dbPoolParams); err != nil {
			return nil, fmt.Errorf("migrate db: %w", err)
		}
	}

	dbPool, err := db.NewDBPool(ctx, dbPoolParams)
	if err != nil {
		return nil, fmt.Errorf("new db pool: %w", err)
	}

	pgxpoolCollector := pgxpoolprometheus.NewCollector(
		dbPool,
		map[string]string{"db_name": params.Config.PostgresDBName},
	)
	promRegistry := metrics.SetupPrometheus(pgxpoolCollector)
	metricsManager := metrics.NewManager("backend", "main", promRegistry)
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

	authService := auth.NewAuthService(&auth.Admin{
		Username:     params.AdminUsername,
		PasswordHash: params.AdminPasswordHash,
	}, auth.DefaultTTL, rdb)
	go func() {
		for range time.Tick(time.Hour * 8) {
			authService.ScanAndClean(ctx)
		}
	}()

	// use honeycomb distro to setup OpenTelemetry SDK
	otelShutdown, err := tracing.HoneycombSetup(params.HoneycombTracingEnabled, "gymstats-backend", rdb)
	if err != nil {
		return nil, err
	}

	return &Server{
		config:       params.Config,
		dbPool:       dbPool,
		iosAppSecret: params.GymstatsIOSAppSecret,
		mcpSecret:    params.MCPSecret,
		versionInfo:  params.VersionInfo,

		redisClient:  rdb,
		authService:  authService,
		loginChecker: auth.NewLoginChecker(auth.DefaultTTL, rdb),

		// telemetry
		metricsManager: metricsManager,
		promRegistry:   promRegistry,
		otelShutdown:   otelShutdown,
	}, nil
}

func (s *Server) routerSetup() (*mux.Router, error) {
	r := mux.NewRouter()
	r.Use(otelmux.Middleware("main-router"))

	reqRateLimiter := redis_rate.NewLimiter(s.redisClient)
	miscHandler := misc.NewHandler(s.versionInfo, s.authService)
	miscHandler.SetupRoutes(r, reqRateLimiter, s.metricsManager, s.config.LoginRateLimitAllowedPerMin)

	trainingRepo := training.NewRepo(s.dbPool)
	sessionsHandler := training.NewHandler(trainingRepo, s.metricsManager)
	r.HandleFunc("/sessions", sessionsHandler.HandleAdd).Methods("POST", "OPTIONS").Name("new-session")
	r.HandleFunc("/sessions", sessionsHandler.HandleUpdate).Methods("PUT", "OPTIONS").Name("update-session")
	r.HandleFunc("/sessions/list/page/{page}/size/{size}", sessionsHandler.HandleList).Methods("GET", "OPTIONS").Name("list-sessions")

	catalogHandler := training.NewCatalogHandler(trainingRepo)
	r.HandleFunc("/sessions/catalog", catalogHandler.HandleAdd).Methods("POST", "OPTIONS").Name("new-catalog-entry")
	r.HandleFunc("/sessions/catalog", catalogHandler.HandleGet).Methods("GET").Name("get-catalog")
	r.HandleFunc("/sessions/catalog", catalogHandler.HandleUpdate).Methods("PUT").Name("update-catalog-entry")
	r.HandleFunc("/sessions/catalog/{id}", catalogHandler.HandleDelete).Methods("DELETE", "OPTIONS").Name("delete-catalog-entry")

	r.HandleFunc("/sessions/{id}", sessionsHandler.HandleGet).Methods("GET", "OPTIONS").Name("get-session")
	r.HandleFunc("/sessions/{id}", sessionsHandler.HandleDelete).Methods("DELETE", "OPTIONS").Name("delete-session")

	analyticsHandler := analytics.NewHandler(analytics.NewAnalyzer(trainingRepo, trainingRepo))
	r.HandleFunc("/analytics/streaks", analyticsHandler.HandleStreaks).Methods("GET", "OPTIONS").Name("analytics-streaks")
	r.HandleFunc("/analytics/change", analyticsHandler.HandleChange).Methods("GET", "OPTIONS").Name("analytics-change")
	r.HandleFunc("/analytics/trend", analyticsHandler.HandleTrend).Methods("GET", "OPTIONS").Name("analytics-trend")
	r.HandleFunc("/analytics/contributions", analyticsHandler.HandleContributions).Methods("GET", "OPTIONS").Name("analytics-contributions")

	readinessService := readiness.NewService(readiness.NewRepo(s.dbPool), readiness.DefaultConfig())
	readinessHandler := readiness.NewHandler(readinessService, s.metricsManager)
	r.HandleFunc("/readiness", readinessHandler.HandleGet).Methods("GET", "OPTIONS").Name("get-readiness")
	r.HandleFunc("/readiness/health", readinessHandler.HandleAddDailyHealth).Methods("POST", "OPTIONS").Name("new-daily-health")
	r.HandleFunc("/readiness/wellness", readinessHandler.HandleAddWellness).Methods("POST", "OPTIONS").Name("new-wellness-score")

	programEngine := program.NewEngine(program.NewRepo(s.dbPool), trainingRepo, readinessService)
	programHandler := program.NewHandler(programEngine, s.metricsManager)
	r.HandleFunc("/program", programHandler.HandleCreate).Methods("POST", "OPTIONS").Name("new-plan")
	r.HandleFunc("/program", programHandler.HandleList).Methods("GET", "OPTIONS").Name("list-plans")
	r.HandleFunc("/program/active", programHandler.HandleActive).Methods("GET", "OPTIONS").Name("active-plan")
	r.HandleFunc("/program/today", programHandler.HandleToday).Methods("GET", "OPTIONS").Name("today-plan")
	r.HandleFunc("/program/day/{id}/complete", programHandler.HandleCompleteDay).Methods("POST", "OPTIONS").Name("complete-day")
	r.HandleFunc("/program/{id}/restore", programHandler.HandleRestore).Methods("POST", "OPTIONS").Name("restore-plan")
	r.HandleFunc("/program/{id}/adherence", programHandler.HandleAdherence).Methods("GET", "OPTIONS").Name("plan-adherence")
	r.HandleFunc("/program/{id}", programHandler.HandleGet).Methods("GET", "OPTIONS").Name("get-plan")
	r.HandleFunc("/program/{id}", programHandler.HandleDelete).Methods("DELETE", "OPTIONS").Name("delete-plan")

	// the same MCP server also runs over stdio via cmd/mcp
	mcpServer := gymstatsmcp.NewServer(s.dbPool, trainingRepo, readinessService, programEngine)
	r.PathPrefix("/mcp").Handler(mcp.NewStreamableHTTPHandler(
		func(*http.Request) *mcp.Server { return mcpServer },
		nil,
	))

	// all the rest - unhandled paths
	r.HandleFunc("/{unknown}", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}).Methods("GET", "POST", "PUT", "OPTIONS").Name("unknown")

	authMiddleware := middleware.NewAuthMiddlewareHandler(
		s.iosAppSecret,
		s.mcpSecret,
		s.loginChecker,
	)

	r.Use(middleware.PanicRecovery(s.metricsManager))
	r.Use(middleware.LogRequest())
	r.Use(middleware.RequestMetrics(s.metricsManager))
	r.Use(middleware.Cors())
	r.Use(authMiddleware.AuthCheck())
	r.Use(middleware.DrainAndCloseRequest())

	return r, nil
}

func (s *Server) Serve(ctx context.Context, host string, port int) {
	router, err := s.routerSetup()
	if err != nil {
		log.Fatalf("failed to setup router: %s", err)
	}

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

	// sessions backup unix socket
	s.setSessionsBackupUnixSocket(ctx)
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

	log.Debugln("removing sessions backup unix socket ...")
	if err := os.RemoveAll(s.config.BackupUnixSocketAddrDir); err != nil {
		log.Errorf("failed to cleanup sessions backup unix socket dir: %s", err)
	}

	if ok := sentry.Flush(5 * time.Second); ok {
		log.Debugf("sentry flush ok: %t", ok)
	}

	maxWaitDuration := time.Second * 15
	ctx, timeoutCancel := context.WithTimeout(context.Background(), maxWaitDuration)
	defer timeoutCancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		log.Error(" >>> failed to gracefully shutdown http server")
	}
	log.Warnln("server shut down")

	if err := s.metricsHttpServer.Shutdown(ctx); err != nil {
		log.Error(" >>> failed to gracefully shutdown metrics http server")
	}
	log.Warnln("metrics server shut down")
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

func (s *Server) setSessionsBackupUnixSocket(ctx context.Context) {
	if err := os.MkdirAll(s.config.BackupUnixSocketAddrDir, os.ModePerm); err != nil {
		log.Errorf("failed to create sessions backup unix socket dir: %s", err)
		return
	}

	if addr, err := backup.SessionsBackupUnixSocketListenerSetup(
		ctx,
		s.config.BackupUnixSocketAddrDir,
		s.config.BackupUnixSocketFileName,
		s.metricsManager,
	); err != nil {
		log.Errorf("failed to create sessions backup unix socket: %s", err)
	} else {
		log.Debugf("sessions backup unix socket: %s", addr)
	}
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	clerk "github.com/clerk/clerk-sdk-go/v2"
	gorilllaHandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"fitLogAPI/handlers"
	"fitLogAPI/internal/config"
	"fitLogAPI/internal/filestore"
	"fitLogAPI/internal/mailer"
	"fitLogAPI/internal/metrics"
	"fitLogAPI/internal/notification"
	"fitLogAPI/internal/store"
	"fitLogAPI/internal/tracking"
	"fitLogAPI/internal/workers"
	"fitLogAPI/middleware"
	"fitLogAPI/services"

	_ "time/tzdata"
)

func main() {
	// `fitLogAPI job-token` prints a bearer token for external schedulers.
	if len(os.Args) > 1 && os.Args[1] == "job-token" {
		printJobToken()
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	clerk.SetKey(cfg.ClerkSecretKey)
	log.Println("Clerk initialized successfully")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	dbPool := connectDB(ctx, cfg.DatabaseURL)
	defer func() {
		log.Println("Closing database connection pool...")
		dbPool.Close()
	}()

	if err := store.Migrate(ctx, dbPool); err != nil {
		log.Fatal("Failed to apply schema:", err)
	}
	db := store.NewPostgresStore(dbPool)

	files, err := newFileStore(ctx, cfg)
	if err != nil {
		log.Fatal("Failed to initialize file store:", err)
	}

	var mail mailer.Sender = mailer.LogSender{}
	if cfg.SESSender != "" {
		ses, err := mailer.NewSESSender(ctx, cfg.AWSRegion, cfg.SESSender)
		if err != nil {
			log.Printf("Warning: Could not initialize SES, emails will only be logged: %v", err)
		} else {
			mail = ses
			log.Println("SES mailer initialized successfully")
		}
	}

	push := services.NewPushDispatcher(db, 5)
	fcmService, err := notification.NewFCMService(context.Background(), cfg.FCMCredentialsJSON, cfg.FCMCredentialsFile)
	if err != nil {
		log.Printf("Warning: Could not initialize FCM: %v", err)
	} else {
		push.SetPushProvider(fcmService)
		log.Println("FCM Push Provider initialized successfully")
	}

	engine := tracking.NewEngine(db, db, cfg.Location)
	userService := services.NewUserService(db)
	logService := services.NewLogService(db, files, engine)
	insightService := services.NewInsightService(db, engine)
	notifier := services.NewCycleNotifier(db, engine, mail, push, cfg.ReminderCutoffHour, cfg.AppURL)

	metrics.Register()
	middleware.InitPrometheus()

	userHandler := handlers.NewUserHandler(userService)
	logHandler := handlers.NewLogHandler(logService)
	insightHandler := handlers.NewInsightHandler(insightService)
	notificationHandler := handlers.NewNotificationHandler(userService)
	webhookHandler := handlers.NewWebhookHandler(userService, cfg.ClerkWebhookSecret)
	jobHandler := handlers.NewJobHandler(notifier)
	healthHandler := handlers.NewHealthHandler(db)

	rootCtx, stop := context.WithCancel(context.Background())
	defer stop()

	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, cfg.TrustedProxies)
	go limiter.Cleanup(rootCtx)

	r := mux.NewRouter()
	r.Use(limiter.Middleware)
	r.Use(middleware.MonitorMiddleware)

	r.Handle("/metrics", middleware.BasicAuthMiddleware(cfg.MetricsUser, cfg.MetricsPass)(promhttp.Handler())).Methods("GET")
	r.HandleFunc("/health", healthHandler.Health).Methods("GET")

	// -------------------------------------------------------------------------
	// API V1 SUBROUTER
	// -------------------------------------------------------------------------
	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/webhooks/clerk", webhookHandler.HandleClerkWebhook).Methods("POST")

	jobs := api.PathPrefix("/jobs").Subrouter()
	jobs.Use(middleware.JobAuthMiddleware(cfg.JobSecret))
	jobs.HandleFunc("/notifications/check", jobHandler.RunNotifications).Methods("POST")

	// -------------------------------------------------------------------------
	// PROTECTED ROUTES (REQUIRE AUTH HEADER)
	// -------------------------------------------------------------------------
	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.ClerkAuthMiddleware)

	protected.HandleFunc("/user", userHandler.GetProfile).Methods("GET")
	protected.HandleFunc("/user/update-profile", userHandler.UpdateProfile).Methods("PUT")
	protected.HandleFunc("/user/delete-account", userHandler.DeleteAccount).Methods("DELETE")

	protected.HandleFunc("/logs", logHandler.Upload).Methods("POST")
	protected.HandleFunc("/logs", logHandler.List).Methods("GET")
	protected.HandleFunc("/logs/{id}", logHandler.Get).Methods("GET")
	protected.HandleFunc("/logs/{id}", logHandler.Delete).Methods("DELETE")

	protected.HandleFunc("/streak", insightHandler.GetStreak).Methods("GET")
	protected.HandleFunc("/insights", insightHandler.GetInsights).Methods("GET")
	protected.HandleFunc("/analytics", insightHandler.GetAnalytics).Methods("GET")

	protected.HandleFunc("/settings/notifications", notificationHandler.GetSettings).Methods("GET")
	protected.HandleFunc("/settings/notifications", notificationHandler.UpdateSettings).Methods("PUT")
	protected.HandleFunc("/notifications/register-device", notificationHandler.RegisterDevice).Methods("POST")

	// CORS configuration
	corsHandler := gorilllaHandlers.CORS(
		gorilllaHandlers.AllowedOrigins([]string{"*"}),
		gorilllaHandlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		gorilllaHandlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
		gorilllaHandlers.ExposedHeaders([]string{"Content-Length"}),
	)

	port := ":" + cfg.Port

	server := http.Server{
		Addr:         port,
		Handler:      corsHandler(r),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	notifierWorker := workers.New("cycle-notifier", cfg.NotifierInterval, 10*time.Minute, func(ctx context.Context, now time.Time) error {
		_, err := notifier.RunAll(ctx, now)
		if errors.Is(err, services.ErrJobRunning) {
			log.Println("Notifier: previous run still in progress, skipping")
			return nil
		}
		return err
	})
	notifierWorker.Start(rootCtx)

	go func() {
		log.Printf("Starting server on port %s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Error starting server:", err)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	sig := <-sigChan
	log.Println("Got signal:", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	stop()
	notifierWorker.Wait()
	push.Stop()

	log.Println("Server shutdown complete")
}

func printJobToken() {
	secret, err := config.LoadJobSecret()
	if err != nil {
		log.Fatal(err)
	}
	token, err := middleware.NewJobToken(secret, 365*24*time.Hour)
	if err != nil {
		log.Fatal("Failed to sign job token:", err)
	}
	fmt.Println(token)
}

func connectDB(ctx context.Context, dbURL string) *pgxpool.Pool {
	poolConfig, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		log.Fatal("Failed to parse database URL:", err)
	}

	poolConfig.MaxConns = 25
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		log.Fatal("Failed to create connection pool:", err)
	}

	if err := pool.Ping(ctx); err != nil {
		log.Fatal("Failed to ping database:", err)
	}

	log.Println("Successfully connected to database")
	return pool
}

// newFileStore picks the backend from FILE_STORE and wraps it with retries.
func newFileStore(ctx context.Context, cfg *config.Config) (filestore.Store, error) {
	var backend filestore.Store
	switch cfg.FileStore {
	case config.FileStoreMinio:
		m, err := filestore.NewMinioStore(ctx, cfg.Minio)
		if err != nil {
			return nil, err
		}
		backend = m
		log.Printf("File store: MinIO bucket %s at %s", cfg.Minio.Bucket, cfg.Minio.Endpoint)
	default:
		// the Drive client refreshes tokens with this context for its whole lifetime
		d, err := filestore.NewDriveStore(context.Background(), cfg.Drive)
		if err != nil {
			return nil, err
		}
		backend = d
		log.Println("File store: Google Drive")
	}
	return filestore.WithRetry(backend, filestore.DefaultAttempts, filestore.DefaultBackoff), nil
}

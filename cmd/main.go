package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "malaria_clinic/docs"
	"malaria_clinic/internal/classifier"
	"malaria_clinic/internal/config"
	"malaria_clinic/internal/handlers"
	"malaria_clinic/internal/logger"
	"malaria_clinic/internal/repository"
	"malaria_clinic/internal/repository/db"
	"malaria_clinic/internal/server"
	"malaria_clinic/internal/service"
	"malaria_clinic/internal/uploads"
)

const shutdownTimeout = 10 * time.Second

// @title                       Malaria Clinic API
// @version                     1.0
// @description                 Patient and doctor records plus blood smear classification.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Get(logger.InfoLevel, logger.FormatConsole).Fatalw("error reading config", "err", err)
	}

	// init logger
	log := logger.Get(cfg.Log.Level, cfg.Log.Format)

	// open DB
	conn, err := db.InitDB(cfg.DB.Path)
	if err != nil {
		log.Fatalw("failed to init sqlite", "path", cfg.DB.Path, "err", err)
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	// the model is loaded once; a missing or broken artifact is fatal
	model, err := classifier.Load(cfg.Classifier.Path)
	if err != nil {
		log.Fatalw("failed to load classifier", "path", cfg.Classifier.Path, "err", err)
	}

	store, err := uploads.NewStore(cfg.Uploads.Dir)
	if err != nil {
		log.Fatalw("failed to prepare uploads dir", "err", err)
	}

	// wire dependencies
	repos := repository.NewRepository(conn)
	services := service.NewService(repos, service.Deps{
		Classifier: model,
		Uploads:    store,
		Threshold:  decisionThreshold(cfg.Classifier.Threshold, model),
		JWTSecret:  cfg.Auth.JWTSecret,
		TokenTTL:   cfg.Auth.TokenTTL,
	})
	seedAdmin(services, cfg, log)

	sweeper := startSweeper(store, cfg.Uploads, log)

	apiHandler := handlers.NewHandler(services, log.Named("http"), handlers.Config{
		SessionName:    cfg.Session.Name,
		SessionSecret:  cfg.Session.Secret,
		SessionMaxAge:  cfg.Session.MaxAge,
		MaxUploadBytes: cfg.Uploads.MaxBytes,
		AllowSignUp:    cfg.Auth.AllowSignUp,
		CORSOrigins:    cfg.CORS.AllowedOrigins,
	})

	// start HTTP server
	srv := &server.Server{}
	runHTTPServer(srv, cfg.Port, apiHandler, log)

	// graceful shutdown
	waitForShutdown(srv, sweeper, log)
}

// seedAdmin creates the configured admin account on an empty Users table.
func seedAdmin(services *service.Service, cfg *config.Config, log *logger.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	created, err := services.EnsureAdmin(ctx, cfg.Auth.AdminUsername, cfg.Auth.AdminPassword)
	if err != nil {
		log.Fatalw("failed to seed admin user", "err", err)
	}
	if created {
		log.Infow("admin user created", "username", cfg.Auth.AdminUsername)
	}
}

// startSweeper schedules removal of stale uploads; nil when disabled.
func startSweeper(store *uploads.Store, cfg config.UploadsConfig, log *logger.Logger) *uploads.Sweeper {
	if cfg.SweepSpec == "" {
		log.Infow("uploads sweeper disabled")
		return nil
	}
	sw, err := uploads.NewSweeper(store, cfg.SweepSpec, cfg.MaxAge, log.Named("sweeper"))
	if err != nil {
		log.Fatalw("invalid uploads.sweep_spec", "spec", cfg.SweepSpec, "err", err)
	}
	sw.Start()
	return sw
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		log.Infow("http server listening", "port", port)
		if err := srv.Run(port, handler.InitRoutes()); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(srv *server.Server, sweeper *uploads.Sweeper, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if sweeper != nil {
		select {
		case <-sweeper.Stop().Done():
		case <-ctx.Done():
		}
	}

	// allow in-flight requests to complete
	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}
}

// decisionThreshold prefers an explicitly configured threshold over the one
// stored in the model artifact.
func decisionThreshold(configured float64, model *classifier.Model) float64 {
	if configured != 0 {
		return configured
	}
	return model.Threshold()
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/segyhp/circulation-notices/internal/app"
	"github.com/segyhp/circulation-notices/internal/config"
	"github.com/segyhp/circulation-notices/internal/handler"
	"github.com/segyhp/circulation-notices/pkg/logger"
	"github.com/segyhp/circulation-notices/pkg/response"
)

func main() {
	// .env is optional outside of local development
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)

	application, err := app.New(cfg, log)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}
	defer func() {
		if err := application.Close(); err != nil {
			log.WithError(err).Warn("error while closing connections")
		}
	}()

	noticeHandler := handler.NewScheduledNoticeHandler(application.Engines, application.Scheduling)
	healthHandler := handler.NewHealthHandler(application.DB, application.Redis, application.Producer, cfg.GetHealthTimeout())

	router := setupRoutes(noticeHandler, healthHandler, log)

	server := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.GetReadTimeout(),
		WriteTimeout: cfg.GetWriteTimeout(),
	}

	go func() {
		log.Infof("Server starting on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Errorf("Server forced to shutdown: %v", err)
		return
	}

	log.Info("Server exited")
}

func setupRoutes(noticeHandler *handler.ScheduledNoticeHandler, healthHandler *handler.HealthHandler, log logrus.FieldLogger) *mux.Router {
	router := mux.NewRouter()
	router.Use(response.LoggingMiddleware(log))

	router.HandleFunc("/health", healthHandler.Health).Methods(http.MethodGet)
	router.HandleFunc("/health/ready", healthHandler.Ready).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()
	noticeHandler.RegisterRoutes(api)

	return router
}

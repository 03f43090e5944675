package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/segyhp/circulation-notices/internal/app"
	"github.com/segyhp/circulation-notices/internal/config"
	"github.com/segyhp/circulation-notices/internal/service"
	"github.com/segyhp/circulation-notices/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	log.Info("Starting scheduled notice scheduler...")

	application, err := app.New(cfg, log)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}
	defer func() {
		if err := application.Close(); err != nil {
			log.WithError(err).Warn("error while closing connections")
		}
	}()

	c := cron.New(
		cron.WithSeconds(),
		cron.WithLocation(cfg.Location()),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)

	if err := setupCronJobs(c, cfg, application.Engines, log); err != nil {
		log.Fatalf("Failed to schedule jobs: %v", err)
	}

	c.Start()
	log.Info("Scheduler started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down scheduler...")
	<-c.Stop().Done()
	log.Info("Scheduler stopped")
}

func setupCronJobs(c *cron.Cron, cfg *config.Config, engines service.Engines, log logrus.FieldLogger) error {
	jobs := []struct {
		name   string
		spec   string
		engine *service.Engine
	}{
		{name: "real-time notices", spec: cfg.Scheduler.RealTimeSpec, engine: engines.RealTime},
		{name: "daily notices", spec: cfg.Scheduler.NotRealTimeSpec, engine: engines.NotRealTime},
	}

	for _, job := range jobs {
		if _, err := c.AddFunc(job.spec, processJob(job.name, job.engine, cfg.GetBatchTimeout(), log)); err != nil {
			return err
		}
		log.WithFields(logrus.Fields{"job": job.name, "spec": job.spec}).Info("job scheduled")
	}

	return nil
}

// processJob runs one engine cycle bounded by the batch timeout
func processJob(name string, engine *service.Engine, timeout time.Duration, log logrus.FieldLogger) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		summary, err := engine.ProcessDueNotices(ctx, time.Now())
		if err != nil {
			log.WithError(err).WithField("job", name).Error("notice processing failed")
			return
		}

		log.WithFields(logrus.Fields{
			"job":        name,
			"sent":       summary.Sent,
			"deleted":    summary.Deleted,
			"updated":    summary.Updated,
			"cleaned_up": summary.CleanedUp,
			"failed":     summary.Failed,
		}).Info("notice processing finished")
	}
}

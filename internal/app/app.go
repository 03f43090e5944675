package app

import (
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/segyhp/circulation-notices/internal/config"
	"github.com/segyhp/circulation-notices/internal/notifier"
	"github.com/segyhp/circulation-notices/internal/repository"
	"github.com/segyhp/circulation-notices/internal/service"
	"github.com/segyhp/circulation-notices/pkg/rabbitmq"
)

// App holds the connections and services shared by the server and the scheduler
type App struct {
	DB         *sqlx.DB
	Redis      *redis.Client
	Producer   *rabbitmq.Producer
	Engines    service.Engines
	Scheduling *service.SchedulingService
}

// New connects to every backing service and wires the notice engines
func New(cfg *config.Config, log logrus.FieldLogger) (*App, error) {
	db, err := initDB(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	redisClient := initRedis(cfg)

	producer, err := rabbitmq.NewProducer(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange)
	if err != nil {
		_ = redisClient.Close()
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize rabbitmq: %w", err)
	}

	a := &App{DB: db, Redis: redisClient, Producer: producer}
	a.wire(cfg, log)

	return a, nil
}

func (a *App) wire(cfg *config.Config, log logrus.FieldLogger) {
	notices := repository.NewNoticeRepository(a.DB)

	registry := service.NewHandlerRegistry(service.HandlerDeps{
		Loans:     repository.NewLoanRepository(a.DB),
		Requests:  repository.NewRequestRepository(a.DB),
		Accounts:  repository.NewAccountRepository(a.DB),
		Actions:   repository.NewFeeFineActionRepository(a.DB),
		Templates: repository.NewCachedTemplateRepository(repository.NewTemplateRepository(a.DB), a.Redis, cfg.GetTemplateCacheTTL()),
		Policies:  repository.NewNoticePolicyRepository(a.DB),
		Reminders: repository.NewReminderScheduleRepository(a.DB),
		Calendar:  repository.NewCalendarRepository(a.DB),
		Location:  cfg.Location(),
		Log:       log,
	})

	errorLog := notifier.NewErrorLogPublisher(a.Producer, log)
	builder := service.NewContextBuilder(notices, registry, errorLog, log)
	dispatcher := service.NewDispatcher(notifier.NewPatronNoticeSender(a.Producer, log), log)
	lock := repository.NewRedisBatchLock(a.Redis)

	engineConfig := func(realTime bool) service.EngineConfig {
		return service.EngineConfig{
			RealTime:          realTime,
			PageLimit:         cfg.Notices.PageLimit,
			GroupConcurrency:  cfg.Notices.GroupConcurrency,
			NoticeConcurrency: cfg.Notices.NoticeConcurrency,
			Location:          cfg.Location(),
			LockTTL:           cfg.GetBatchTimeout(),
		}
	}

	a.Engines = service.Engines{
		RealTime:    service.NewEngine(notices, builder, dispatcher, lock, errorLog, engineConfig(true), log),
		NotRealTime: service.NewEngine(notices, builder, dispatcher, lock, errorLog, engineConfig(false), log),
	}
	a.Scheduling = service.NewSchedulingService(notices, log)
}

// Close releases every connection, reporting all failures
func (a *App) Close() error {
	return errors.Join(a.Producer.Close(), a.Redis.Close(), a.DB.Close())
}

func initDB(cfg *config.Config) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.GetConnMaxLifetime())

	return db, nil
}

func initRedis(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

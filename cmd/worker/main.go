package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/scheduling-api/internal/config"
	"github.com/jwalitptl/scheduling-api/internal/email"
	"github.com/jwalitptl/scheduling-api/internal/repository/postgres"
	"github.com/jwalitptl/scheduling-api/internal/service/notification"
	"github.com/jwalitptl/scheduling-api/internal/service/reminder"
	"github.com/jwalitptl/scheduling-api/internal/worker"
	"github.com/jwalitptl/scheduling-api/pkg/messaging/redis"
	"github.com/jwalitptl/scheduling-api/pkg/retry"
)

// workerEnv holds deployment-level overrides that take precedence over the
// config file. Ops can tune a single worker instance without shipping a new
// config.
type workerEnv struct {
	SweepInterval  time.Duration `envconfig:"SWEEP_INTERVAL"`
	ReminderWindow time.Duration `envconfig:"REMINDER_WINDOW"`
	MetricsPort    int           `envconfig:"METRICS_PORT" default:"8081"`
}

func setupMetricsServer(port int, logger zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	go func() {
		addr := ":" + strconv.Itoa(port)
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger.Error().Err(err).Msg("metrics server failed")
			os.Exit(1)
		}
	}()
}

func main() {
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	var env workerEnv
	if err := envconfig.Process("SCHEDULER", &env); err != nil {
		log.Fatal().Err(err).Msg("failed to read environment overrides")
	}
	if env.SweepInterval > 0 {
		cfg.Scheduler.SweepInterval = env.SweepInterval
	}
	if env.ReminderWindow > 0 {
		cfg.Scheduler.ReminderWindow = env.ReminderWindow
	}

	loc, err := cfg.Scheduler.Location()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to resolve scheduler timezone")
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	broker, err := redis.NewRedisBroker(redis.Config{
		URL:          cfg.Redis.URL,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
	}, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create Redis broker")
	}
	defer broker.Close()

	appointmentRepo := postgres.NewAppointmentRepository(db)
	patientRepo := postgres.NewPatientRepository(db)

	emailSvc := email.NewSMTPService(cfg.Email)
	notifierSvc := notification.NewService(broker, emailSvc, log.Logger)

	policy := retry.Policy{
		MaxAttempts: cfg.Scheduler.RetryAttempts,
		BaseDelay:   cfg.Scheduler.RetryBaseDelay,
		MaxDelay:    10 * time.Second,
	}
	reminderSvc := reminder.NewService(
		appointmentRepo,
		patientRepo,
		notifierSvc,
		loc,
		cfg.Scheduler.ReminderWindow,
		policy,
		postgres.IsTransient,
		log.Logger,
	)

	reminderWorker := worker.NewReminderWorker(
		reminderSvc,
		cfg.Scheduler.SweepInterval,
		cfg.Scheduler.AbsenceSweepHour,
		loc,
		log.Logger,
	)

	setupMetricsServer(env.MetricsPort, log.Logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info().Msg("shutting down...")
		cancel()
	}()

	reminderWorker.Start(ctx)
}

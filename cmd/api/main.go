package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	appointmentHandler "github.com/jwalitptl/scheduling-api/internal/handler/appointment"
	availabilityHandler "github.com/jwalitptl/scheduling-api/internal/handler/availability"
	healthHandler "github.com/jwalitptl/scheduling-api/internal/handler/health"
	practitionerHandler "github.com/jwalitptl/scheduling-api/internal/handler/practitioner"
	slotHandler "github.com/jwalitptl/scheduling-api/internal/handler/slot"

	"github.com/jwalitptl/scheduling-api/internal/config"
	"github.com/jwalitptl/scheduling-api/internal/email"
	"github.com/jwalitptl/scheduling-api/internal/middleware"
	"github.com/jwalitptl/scheduling-api/internal/repository/postgres"
	"github.com/jwalitptl/scheduling-api/internal/router"
	"github.com/jwalitptl/scheduling-api/internal/service/availability"
	"github.com/jwalitptl/scheduling-api/internal/service/booking"
	"github.com/jwalitptl/scheduling-api/internal/service/notification"
	practitionerService "github.com/jwalitptl/scheduling-api/internal/service/practitioner"
	slotService "github.com/jwalitptl/scheduling-api/internal/service/slot"
	"github.com/jwalitptl/scheduling-api/pkg/messaging/redis"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
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
		log.Fatal().Err(err).Msg("failed to connect to Redis")
	}
	defer broker.Close()

	// Repositories
	store := postgres.NewStore(db)
	practitionerRepo := postgres.NewPractitionerRepository(db)
	patientRepo := postgres.NewPatientRepository(db)
	slotRepo := postgres.NewSlotRepository(db)
	scheduleRepo := postgres.NewScheduleRepository(db)
	appointmentRepo := postgres.NewAppointmentRepository(db)
	categoryRepo := postgres.NewCategoryRepository(db)

	// Services
	emailSvc := email.NewSMTPService(cfg.Email)
	notifierSvc := notification.NewService(broker, emailSvc, log.Logger)
	resolver := availability.NewResolver(slotRepo, loc)
	validator := availability.NewOverlapValidator(slotRepo, loc)
	categoryReader := availability.NewCachedCategoryReader(categoryRepo, cfg.Scheduler.CategoryCacheTTL)
	generator := availability.NewGenerator(slotRepo, appointmentRepo, categoryReader, loc)
	practitionerSvc := practitionerService.NewService(practitionerRepo)
	slotSvc := slotService.NewService(slotRepo, scheduleRepo, practitionerRepo)
	bookingSvc := booking.NewService(
		store,
		practitionerRepo,
		patientRepo,
		slotRepo,
		scheduleRepo,
		appointmentRepo,
		resolver,
		validator,
		notifierSvc,
		loc,
		log.Logger,
	)

	// Handlers
	healthH := healthHandler.NewHandler(db)
	practitionerH := practitionerHandler.NewHandler(practitionerSvc)
	slotH := slotHandler.NewHandler(slotSvc)
	availabilityH := availabilityHandler.NewHandler(generator)
	appointmentH := appointmentHandler.NewHandler(bookingSvc)

	r := router.NewRouter(healthH, practitionerH, slotH, availabilityH, appointmentH, router.Config{
		RateLimit: rate.Limit(100),
		RateBurst: 200,
		CORS:      middleware.DefaultCORSConfig(),
	})
	r.Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}

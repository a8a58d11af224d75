package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"example.com/stayhub/services/reservation/api"
	"example.com/stayhub/services/reservation/cache"
	"example.com/stayhub/services/reservation/domain"
	"example.com/stayhub/services/reservation/domain/guestaccount"
	"example.com/stayhub/services/reservation/domain/reservation"
	"example.com/stayhub/services/reservation/eventstore"
	"example.com/stayhub/services/reservation/metrics"
	"example.com/stayhub/services/reservation/models"
	"example.com/stayhub/services/reservation/projections"
	"example.com/stayhub/services/reservation/repository"
	"example.com/stayhub/services/reservation/service"
	"example.com/stayhub/services/reservation/tracing"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the API server",
	Run:   runServer,
}

func init() {
	rootCmd.AddCommand(serverCmd)
}

func runServer(cmd *cobra.Command, args []string) {
	log.Info().Msg("Starting server")

	db, err := openDatabase()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}

	store := eventstore.NewGormStore(db)

	applier := projections.NewApplier()
	projections.RegisterReservation(applier)
	projections.RegisterGuestAccount(applier)

	reservationRepo := repository.NewEventSourced[*reservation.Reservation, models.Reservation](
		db, store, applier, reservation.AggregateType,
		func(id string) *reservation.Reservation { return reservation.New(id) },
	)
	accountRepo := repository.NewEventSourced[*guestaccount.Account, models.GuestAccount](
		db, store, applier, guestaccount.AggregateType,
		func(id string) *guestaccount.Account { return guestaccount.New(id) },
	)

	cacheClient, err := cache.NewRedisClient(cache.RedisConfig{
		Enabled:  cfg.RedisEnabled,
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize Redis cache")
	}

	tracer, err := tracing.NewTracer(tracing.Config{
		AppName:        cfg.NewRelicAppName,
		LicenseKey:     cfg.NewRelicLicenseKey,
		DistribTracing: cfg.NewRelicDistTrace,
		LogForwarding:  cfg.NewRelicLogForward,
	})
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize tracer, continuing without tracing")
	}
	defer tracer.Close()

	metricsCollector := metrics.New()

	svc := service.New(
		reservationRepo,
		accountRepo,
		cacheClient,
		domain.UUIDCodeGenerator{},
		metricsCollector,
		tracer,
	)

	server := api.NewServer(cfg, db, svc, metricsCollector, tracer)

	go func() {
		if err := server.Start(); err != nil {
			log.Fatal().Err(err).Msg("Failed to start HTTP server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited properly")
}

package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"

	"collab-transcript-core/internal/app"
	"collab-transcript-core/internal/config"
	"collab-transcript-core/internal/events"
	httpapi "collab-transcript-core/internal/http"
	"collab-transcript-core/internal/observability"
	"collab-transcript-core/internal/service/quality"
	"collab-transcript-core/internal/service/session"
	"collab-transcript-core/internal/service/speaker"
	"collab-transcript-core/internal/service/stt"
	"collab-transcript-core/internal/service/stt/google"
	"collab-transcript-core/internal/service/stt/mock"
)

func main() {
	cfg := config.Load()

	application := app.New(cfg)
	if err := application.Start(); err != nil {
		log.Fatal().Err(err).Msg("application start failed")
	}
	defer application.Shutdown()

	// Kafka publisher replicating interim flushes and finalized segments
	publisher := events.New(&events.Config{
		Enabled:      cfg.Kafka.Enabled,
		Brokers:      cfg.Kafka.Brokers,
		TopicInterim: cfg.Kafka.TopicInterim,
		TopicFinal:   cfg.Kafka.TopicFinal,
		Principal:    cfg.Kafka.Principal,
	})
	defer publisher.Close()

	coordinator := session.NewCoordinator(session.Config{
		FlushInterval:     cfg.Session.FlushInterval,
		InterimConfidence: cfg.Session.InterimConfidence,
		Language:          cfg.Session.Language,
	},
		session.WithBroadcaster(publisher),
		session.WithQualityMonitor(quality.NewMonitor(quality.WithWindowSize(cfg.Quality.WindowSize))),
		session.WithSpeakerMatcher(speaker.NewMatcherWithThreshold(cfg.Speaker.MatchThreshold)),
	)

	obsServer := observability.NewServer(cfg.Observability.MetricsAddr, func() bool {
		return coordinator.State() != session.StateStopped
	})
	obsServer.Start()

	apiServer := &http.Server{
		Addr:         ":" + cfg.Service.HTTPPort,
		Handler:      httpapi.NewRouter(coordinator),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	lis, err := net.Listen("tcp", ":"+cfg.Service.GRPCPort)
	if err != nil {
		log.Fatal().Err(err).Str("port", cfg.Service.GRPCPort).Msg("failed to listen")
	}

	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("port", cfg.Service.HTTPPort).Msg("transcript API started")
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		log.Info().Str("port", cfg.Service.GRPCPort).Msg("grpc health server started")
		return grpcServer.Serve(lis)
	})

	g.Go(func() error {
		return runSession(ctx, cfg, coordinator)
	})

	<-ctx.Done()

	log.Info().Msg("shutting down")
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)

	coordinator.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("api server shutdown failed")
	}
	if err := obsServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("observability server shutdown failed")
	}
	grpcServer.GracefulStop()

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("server error during shutdown")
	}
}

// newAdapter builds one recognizer stream for a participant. The mock
// provider needs no credentials; google requires
// GOOGLE_APPLICATION_CREDENTIALS.
func newAdapter(ctx context.Context, cfg *config.Configuration) (stt.Adapter, error) {
	switch cfg.STT.Provider {
	case "google":
		return google.New(ctx, google.Config{
			LanguageCode:   cfg.STT.LanguageCode,
			SampleRateHz:   int32(cfg.STT.SampleRateHz),
			InterimResults: cfg.STT.InterimResults,
			AudioEncoding:  cfg.STT.AudioEncoding,
		})
	default:
		return mock.New(), nil
	}
}

// runSession starts a session with a standing roster and binds one
// recognizer stream per participant. With the mock provider this doubles as
// a demo driver for the transcript API and broadcast path.
func runSession(ctx context.Context, cfg *config.Configuration, coordinator *session.Coordinator) error {
	roster := []session.Participant{
		{ID: "alice", Name: "Alice"},
		{ID: "bob", Name: "Bob"},
	}
	if err := coordinator.Start(uuid.NewString(), roster); err != nil {
		return err
	}

	adapters := make(map[string]stt.Adapter, len(roster))
	for _, p := range roster {
		adapter, err := newAdapter(ctx, cfg)
		if err != nil {
			return err
		}
		if err := adapter.Start(ctx, coordinator.BindRecognizer(p.ID)); err != nil {
			return err
		}
		adapters[p.ID] = adapter
	}

	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	frame := make([]byte, 320)
	for {
		select {
		case <-ctx.Done():
			for _, adapter := range adapters {
				if err := adapter.Close(); err != nil {
					log.Warn().Err(err).Msg("mock adapter close failed")
				}
			}
			return nil
		case <-ticker.C:
			for id, adapter := range adapters {
				if err := adapter.SendAudio(ctx, frame); err != nil {
					log.Warn().Err(err).Str("participantId", id).Msg("mock audio send failed")
				}
			}
		}
	}
}

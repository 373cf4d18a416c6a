package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/voice-gateway/internal/adapters/feed"
	router "github.com/dkeye/voice-gateway/internal/adapters/http"
	"github.com/dkeye/voice-gateway/internal/adapters/lk"
	"github.com/dkeye/voice-gateway/internal/adapters/rtc"
	"github.com/dkeye/voice-gateway/internal/app"
	"github.com/dkeye/voice-gateway/internal/app/events"
	"github.com/dkeye/voice-gateway/internal/app/orch"
	"github.com/dkeye/voice-gateway/internal/config"
	"github.com/dkeye/voice-gateway/internal/core"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	// Human-friendly output for terminal; in production you may want JSON only.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	platform := lk.NewClient(cfg.LiveKit.URL, cfg.LiveKit.APIKey, cfg.LiveKit.APISecret, cfg.Recording.Layout)

	bus := events.NewBus()
	recordings := app.NewRecordingController(platform, cfg.Recording.Dir)
	calls := app.NewCallRegistry(platform, recordings)

	forward := app.NewForwardQueue(cfg.ForwardBuffer)
	tracks := app.NewTrackRegistry(forward)

	egress := app.NewEgressRegistry(func() core.FramePublisher {
		pub, err := rtc.NewSamplePublisher("voice-gateway")
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create sample publisher")
		}
		return pub
	})

	// Relay loop: admitted ingress frames go out on the call's outbound
	// stream through the single-writer publisher.
	go func() {
		for f := range forward.Frames() {
			egress.GetOrCreate(string(f.Track.CallID)).Publish(f.Frame)
		}
	}()

	o := &orch.Orchestrator{
		Calls:      calls,
		Tracks:     tracks,
		Recordings: recordings,
		Egress:     egress,
		Bus:        bus,
	}

	hub := feed.NewHub(cfg.FeedSendBuf)
	bus.Subscribe(hub.OnEvent)

	wh := router.NewWebhookHandler(cfg.LiveKit.APIKey, cfg.LiveKit.APISecret, o)
	r := router.SetupRouter(cfg, o, hub, wh)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("voice gateway started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Best-effort external cleanup, guaranteed local cleanup.
	o.Shutdown(shutdownCtx)
	hub.CloseAll()
	forward.Close()
	log.Info().Msg("Server exited gracefully")
}

package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/Dune-pebbler/izi-casting/internal/config"
	"github.com/Dune-pebbler/izi-casting/internal/feeds"
	"github.com/Dune-pebbler/izi-casting/internal/identity"
	"github.com/Dune-pebbler/izi-casting/internal/player"
	"github.com/Dune-pebbler/izi-casting/internal/store"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadDisplay()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	deviceID, err := identity.Load(cfg.StateDir, cfg.DeviceInfo)
	if err != nil {
		log.Fatal().Err(err).Msg("device identity")
	}

	db, err := store.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("db init")
	}

	notifier, err := newNotifier(cfg, "izi-display-"+deviceID)
	if err != nil {
		log.Fatal().Err(err).Msg("notifier init")
	}
	defer notifier.Close()

	documents := store.NewPgStore(db, notifier)

	session := player.NewSession(documents, feeds.NewHTTPFetcher(), player.SessionConfig{
		DeviceID:   deviceID,
		DeviceInfo: cfg.DeviceInfo,
		Paginator: player.PaginatorConfig{
			MaxHeight:       720,
			ViewportWidth:   860,
			ReadTimePerPage: 6 * time.Second,
			ScrollStepRatio: 0.8,
		},
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go logFrames(ctx, session)

	log.Info().Str("deviceID", deviceID).Msg("display session starting")
	if err := session.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("session error")
	}
}

func newNotifier(cfg *config.Config, clientID string) (store.Notifier, error) {
	if cfg.MQTTBrokerURL != "" {
		return store.NewMQTTNotifier(cfg.MQTTBrokerURL, clientID)
	}
	return store.NewRedisNotifier(cfg.RedisAddress, cfg.RedisUsername, cfg.RedisPassword), nil
}

// logFrames traces what the display would be rendering. The actual
// renderer consumes Session.Frame the same way.
func logFrames(ctx context.Context, session *player.Session) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	var last string
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			frame := session.Frame()
			summary := summarize(frame)
			if summary != last {
				log.Info().Str("frame", summary).Msg("render state")
				last = summary
			}
		}
	}
}

func summarize(frame player.Frame) string {
	switch frame.State {
	case player.FramePairing:
		if frame.Pairing != nil {
			return "pairing code " + frame.Pairing.Code
		}
		return "pairing"
	case player.FrameNoSlides:
		return "no slides"
	default:
		if frame.Current != nil {
			return "slide " + frame.Current.ID
		}
		return "playing"
	}
}

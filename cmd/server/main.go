package main

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/Dune-pebbler/izi-casting/internal/config"
	adminendpoints "github.com/Dune-pebbler/izi-casting/internal/http/api/admin/endpoints"
	displayendpoints "github.com/Dune-pebbler/izi-casting/internal/http/api/display/endpoints"
	"github.com/Dune-pebbler/izi-casting/internal/http/middleware"
	"github.com/Dune-pebbler/izi-casting/internal/storage"
	"github.com/Dune-pebbler/izi-casting/internal/store"
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	cfg, err := config.LoadServer()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	db, err := store.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("db init")
	}

	if err := store.RunMigrations(db, cfg.MigrationsPath); err != nil {
		log.Fatal().Err(err).Msg("db migrate")
	}

	notifier, err := newNotifier(cfg, "izi-server")
	if err != nil {
		log.Fatal().Err(err).Msg("notifier init")
	}
	defer notifier.Close()

	documents := store.NewPgStore(db, notifier)
	blobs := newBlobStorage(cfg)

	r := gin.Default()
	r.Use(cors.Default())

	// admin routes sit behind the account service's bearer tokens
	admin := r.Group("/api/admin")
	admin.Use(middleware.JWTMiddleware(cfg.JWTSecret))
	adminendpoints.RegisterDeviceRoutes(admin, documents)
	adminendpoints.RegisterPlaylistRoutes(admin, documents, blobs)

	// display routes are unauthenticated; pairing gates content
	display := r.Group("/api/display")
	displayendpoints.RegisterDisplayRoutes(display, documents)

	log.Info().Str("address", cfg.ServerAddress).Msg("listening")
	if err := r.Run(cfg.ServerAddress); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
}

func newNotifier(cfg *config.Config, clientID string) (store.Notifier, error) {
	if cfg.MQTTBrokerURL != "" {
		return store.NewMQTTNotifier(cfg.MQTTBrokerURL, clientID)
	}
	return store.NewRedisNotifier(cfg.RedisAddress, cfg.RedisUsername, cfg.RedisPassword), nil
}

func newBlobStorage(cfg *config.Config) storage.Storage {
	if cfg.UseSpaces {
		blobs, err := storage.NewSpacesStorage(
			cfg.SpacesEndpoint, cfg.SpacesRegion, cfg.SpacesBucket,
			cfg.SpacesAccessKey, cfg.SpacesSecretKey,
		)
		if err != nil {
			log.Fatal().Err(err).Msg("spaces storage init")
		}
		return blobs
	}
	return storage.NewLocalStorage(cfg.UploadDir)
}

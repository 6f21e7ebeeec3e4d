package main

import (
	"context"
	"flag"
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"parking-gate-service/internal/config"
	"parking-gate-service/internal/db"
	"parking-gate-service/internal/domain/parking"
	"parking-gate-service/internal/feed"
	apphttp "parking-gate-service/internal/http"
	"parking-gate-service/internal/logger"
	"parking-gate-service/internal/repository"
	"parking-gate-service/internal/service"
	"parking-gate-service/internal/tracking"
	"parking-gate-service/internal/vision"
	"parking-gate-service/internal/ws"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	log := logger.New(cfg.Logging)

	gdb, err := db.Connect(cfg.Database.DSN, cfg.Parking.DefaultCapacity, cfg.Parking.DefaultPricePerHour)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}

	st := repository.NewStore(gdb)
	hub := ws.NewHub(log.With().Str("component", "ws").Logger())

	settlement := service.NewSettlementEngine(log.With().Str("component", "settlement").Logger())
	parkingService := service.NewParkingService(st, settlement, cfg.Recognition.SuppressEntry, log.With().Str("component", "parking").Logger())
	walletService := service.NewWalletService(st, log.With().Str("component", "wallet").Logger())
	plateService := service.NewPlateService(st, log.With().Str("component", "plates").Logger())
	authService := service.NewAuthService(st, cfg.Auth.JWTSecret, cfg.Auth.TokenLifetime, log.With().Str("component", "auth").Logger())
	userService := service.NewUserService(st, log.With().Str("component", "users").Logger())

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins: cfg.Server.CORSOrigins,
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Authorization", "Content-Type"},
	}))

	handler := apphttp.NewHandler(parkingService, walletService, plateService, authService, userService, hub, log.With().Str("component", "http").Logger())
	handler.Register(r, apphttp.AuthMiddleware(authService))

	// Camera feeds run only when an inference sidecar is configured; the
	// API surface works without them (gate hardware can post entry/exit
	// directly).
	if cfg.Recognition.DetectURL != "" {
		detector := vision.NewRemoteDetector(cfg.Recognition.DetectURL, cfg.Recognition.RecognizeURL, cfg.Recognition.InferTimeout)
		startFeed(cfg, detector, parkingService, hub, cfg.Camera.EntryID, parking.DirectionEntry, cfg.Camera.EntryURL, log)
		startFeed(cfg, detector, parkingService, hub, cfg.Camera.ExitID, parking.DirectionExit, cfg.Camera.ExitURL, log)
	}

	log.Info().Str("addr", cfg.Server.Addr).Msg("parking gate service listening")
	if err := r.Run(cfg.Server.Addr); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func startFeed(cfg *config.Config, detector vision.Detector, parkingSvc *service.ParkingService, hub *ws.Hub, cameraID, direction, url string, log zerolog.Logger) {
	if url == "" {
		return
	}

	src, err := feed.OpenMJPEG(url)
	if err != nil {
		log.Error().Err(err).Str("camera_id", cameraID).Msg("camera feed unavailable")
		return
	}

	loop := feed.NewLoop(
		cameraID, direction,
		src, detector,
		tracking.NewManager(tracking.Config{
			MaxDist:    cfg.Recognition.MaxDist,
			BufferSize: cfg.Recognition.BufferSize,
			MinVotes:   cfg.Recognition.MinVotes,
			EvictAfter: cfg.Recognition.EvictAfter,
		}),
		parkingSvc, hub,
		cfg.Recognition.Confidence,
		cfg.Camera.CaptureDir,
		log.With().Str("component", "feed").Logger(),
	)

	go func() {
		defer src.Close()
		if err := loop.Run(context.Background()); err != nil {
			log.Error().Err(err).Str("camera_id", cameraID).Msg("camera feed stopped")
		}
	}()
}

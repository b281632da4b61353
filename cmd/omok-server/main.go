package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	appcfg "github.com/sangyeons57/teamnova-omok-server-sub002/internal/config"
	"github.com/sangyeons57/teamnova-omok-server-sub002/internal/game"
	"github.com/sangyeons57/teamnova-omok-server-sub002/internal/obslog"
	"github.com/sangyeons57/teamnova-omok-server-sub002/internal/presence"
	"github.com/sangyeons57/teamnova-omok-server-sub002/internal/rating"
	"github.com/sangyeons57/teamnova-omok-server-sub002/internal/server"
)

// logPublisher stands in for the socket gateway: outbound session
// messages are logged until a transport is attached.
type logPublisher struct{}

func (logPublisher) Publish(userIDs []string, mt game.MessageType, payload []byte) {
	obslog.L().Info("outbound_message",
		zap.String("message_type", mt.String()),
		zap.Strings("users", userIDs),
		zap.Int("payload_bytes", len(payload)))
}

func main() {
	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}

	opts := server.Options{Publisher: logPublisher{}}

	if cfg.RedisURL != "" {
		presenceMgr, err := presence.NewManager(cfg.RedisURL)
		if err != nil {
			log.Fatalf("presence init error: %v", err)
		}
		defer presenceMgr.Close()
		opts.Presence = presenceMgr
	}

	if cfg.DatabaseURL != "" {
		ratingRepo, err := rating.NewRepository(cfg.DatabaseURL, cfg.DefaultRating)
		if err != nil {
			log.Fatalf("rating repo init error: %v", err)
		}
		defer ratingRepo.Close()
		opts.Ratings = ratingRepo
	}

	srv, err := server.New(*cfg, opts)
	if err != nil {
		log.Fatalf("server init error: %v", err)
	}
	defer srv.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	obslog.L().Info("omok_server_started",
		zap.Int("board_width", cfg.BoardWidth),
		zap.Int("board_height", cfg.BoardHeight),
		zap.Duration("turn_duration", cfg.TurnDuration))

	srv.Run(ctx)
	obslog.L().Info("omok_server_stopping")
}

package main

import (
	"chat-relay/api"
	"chat-relay/auth"
	"chat-relay/internal"
	"chat-relay/moderation"
	"chat-relay/observability"
	"chat-relay/projection"
	"chat-relay/repositories"
	"chat-relay/runtime"
	"chat-relay/runtime/workers"
	"chat-relay/services"
	"chat-relay/sink"
	"chat-relay/ws"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components and manages the server lifecycle. Keeping
// the logic out of main ensures defers execute before the process exits.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)
	auth.UseSecret([]byte(config.JWTSecret))

	// 2. Storage (BadgerDB + Bluge)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	searchIndex, err := repositories.NewSearchIndex(config.BlugeFilepath)
	if err != nil {
		return fmt.Errorf("search index opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing search index...")
		_ = searchIndex.Close()
	}()

	// 3. Moderation
	words, err := runtime.NewCensoredLoader().Load()
	if err != nil {
		return fmt.Errorf("censored words loading failed: %w", err)
	}
	moderator, err := moderation.NewModerator(words, config.CharacterRune())
	if err != nil {
		return fmt.Errorf("moderator build failed: %w", err)
	}

	// 4. Relay core
	stats := observability.NewStats()
	registry := runtime.NewRegistry(config.SinkTimeout, log)
	messageRepository := repositories.NewMessageRepository(db, log, config.LimitMessages)
	relay := runtime.NewRelay(log, registry, messageRepository, moderator, stats, config.BufferSize)

	timeline := projection.NewTimeline(config.TimelineSize)
	indexSink := sink.NewIndexSink(searchIndex, log)

	// 5. Workers under supervision
	sup := workers.NewSupervisor(log, config.RestartInterval)
	sup.Add(
		workers.NewEventFanout(log, relay.Broadcasts(), registry, config.SinkTimeout, indexSink, timeline),
		workers.NewHeartbeat(log, stats, config.HeartbeatInterval),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	sup.Run(ctx)

	// 6. HTTP surface
	userRepository := repositories.NewUserRepository(db)
	authService := services.NewAuthService(userRepository, log, config.AuthTokenDuration)
	router := api.NewRouter(
		log,
		api.NewAuthHandler(authService, log),
		api.NewMessageHandler(messageRepository, searchIndex, log),
		ws.NewHandler(log, relay, stats, config.ConnectionBufferSize),
	)

	internal.StartDebugServer(db, log, config.DebugPort, internal.MessageMapper, stats.Snapshot)

	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	server := &http.Server{Addr: address, Handler: router}

	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting relay server", "address", address, "at", time.Now().UTC())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// 7. Wait for Stop or Error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	// 8. Final Cleanup
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)
	sup.Stop()
	log.Info("Program stopped cleanly")

	return nil
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"roomsync/anchor"
	"roomsync/broadcast"
	"roomsync/directory"
	"roomsync/gateway"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// NewApp wires the directory, broadcaster and transports together.
func NewApp(config *Config) *HTTPHandler {
	entities := anchor.NewEntities()
	dir := directory.New(anchor.NewAssigner(entities, config.AnchorSpacing))
	observers := NewObservers()
	server := NewServer(observers)
	broadcaster := broadcast.New(dir, server)
	dir.Subscribe(broadcaster.OnChange)

	h := &HTTPHandler{
		Server:    server,
		Authority: gateway.NewAuthority(dir, broadcaster),
		Entities:  entities,
		Resume:    NewResumeJWT(config.ResumeSecret),
		Observers: observers,
	}
	if config.HostMode {
		h.Host = NewHostSeat(server, h.Authority, entities)
		LogHostSeat(hostHandle)
	}
	return h
}

func main() {
	config := MustLoadConfig()
	zerolog.SetGlobalLevel(config.LogLevel)

	app := NewApp(config)
	httpServer := &http.Server{
		Addr:    ":" + config.Port,
		Handler: NewHTTPServer(app, config),
	}

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		LogShuttingDown()
		app.Observers.CloseReceivers()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("Server did not shut down cleanly")
		}
	}()

	LogStartedServer(config.Port)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("Server stopped")
	}
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"linkstash/bookmarks"
	"linkstash/bookmarks/feedmem"
	"linkstash/bookmarks/feednats"
	"linkstash/bookmarks/inmemory"
	"linkstash/bookmarks/postgres"
	"linkstash/internal/config"
	"linkstash/provider"
	"linkstash/server"
)

func main() {
	setupLogging()

	for {
		if err := run(); err != nil {
			log.Fatal().Err(err).Msg("Error running server")
			time.Sleep(1 * time.Second)
		} else {
			break
		}
	}
	log.Info().Msg("Server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("Recovered from panic")
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	displayAppname(c.GetAppName())

	ctx := context.Background()

	feed, closeFeed := buildFeed(c)
	defer closeFeed()

	store, closeStore := buildStore(ctx, c, feed)
	defer closeStore()

	providerClient := provider.New(ctx, c)

	srv := server.New(c, providerClient, store, feed)
	defer srv.Close()

	httpServer := &http.Server{Addr: c.GetPort(), Handler: srv}
	go listenAndServe(httpServer)
	waitForStopSignal()
	returnError = shutdown(httpServer)
	return returnError
}

// buildFeed selects the change feed variant: NATS when an endpoint is
// configured, in-process otherwise.
func buildFeed(c config.Config) (bookmarks.Feed, func()) {
	natsURL := c.GetNatsURL()
	if natsURL == "" {
		return feedmem.NewBroker(), func() {}
	}

	feed, err := feednats.New(natsURL)
	if err != nil {
		log.Warn().Err(err).Str("nats_url", natsURL).
			Msg("NATS unavailable, falling back to in-process feed")
		return feedmem.NewBroker(), func() {}
	}
	log.Info().Str("nats_url", natsURL).Msg("Bookmark feed on NATS")
	return feed, feed.Close
}

// buildStore selects the bookmark store: Postgres when a DSN is configured,
// otherwise an in-memory store so the server still comes up for local use.
func buildStore(ctx context.Context, c config.Config, feed bookmarks.Feed) (bookmarks.Store, func()) {
	dsn := c.GetDatabaseDSN()
	if dsn == "" {
		log.Warn().Msg("DATABASE_DSN not set, bookmarks held in memory only")
		return inmemory.NewStore(feed), func() {}
	}

	store, err := postgres.Connect(ctx, dsn, feed)
	if err != nil {
		log.Warn().Err(err).Msg("database unavailable, bookmarks held in memory only")
		return inmemory.NewStore(feed), func() {}
	}
	log.Info().Msg("Bookmark store on PostgreSQL")
	return store, func() { _ = store.Close() }
}

func setupLogging() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if config.New().GetEnv() == "DEV" {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: "2006-01-02 15:04:05",
		})
	}
}

func listenAndServe(httpServer *http.Server) error {
	log.Info().Str("addr", httpServer.Addr).Msg("Server listening")
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func shutdown(httpServer *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}

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
	"github.com/jrsteele09/go-matchmaking-backoffice/adminapi"
	"github.com/jrsteele09/go-matchmaking-backoffice/internal/config"
	"github.com/jrsteele09/go-matchmaking-backoffice/server"
	"github.com/jrsteele09/go-matchmaking-backoffice/server/loginsession"
	"github.com/rs/zerolog"
)

const expiredSweepInterval = 10 * time.Minute

func main() {
	c := config.New()
	logger := newLogger(c)

	if err := run(c, logger); err != nil {
		logger.Fatal().Err(err).Msg("error running server")
	}
	logger.Info().Msg("server stopped")
}

func run(c config.Config, logger zerolog.Logger) (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("recovered from panic")
			returnError = errors.New("panic recovered")
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	displayAppname(c.GetAppName())

	repo, err := newLoginSessionRepo(ctx, c, logger)
	if err != nil {
		return err
	}

	api := adminapi.New(c.GetAPIBaseURL(), adminapi.WithTimeout(c.GetAPITimeout()), adminapi.WithLogger(logger))
	handler, err := server.New(c, api, repo, server.WithLogger(logger))
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              c.GetPort(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errs := make(chan error, 1)
	go func() { errs <- listenAndServe(srv, logger) }()

	select {
	case err := <-errs:
		return err
	case <-waitForStopSignal():
	}
	return shutdown(srv)
}

// newLoginSessionRepo picks Redis when REDIS_URL is set, memory otherwise,
// and seals tokens at rest when SESSION_SECRET is set
func newLoginSessionRepo(ctx context.Context, c config.Config, logger zerolog.Logger) (loginsession.Repo, error) {
	var repo loginsession.Repo
	if redisURL := c.GetRedisURL(); redisURL != "" {
		client, err := loginsession.NewRedisClient(ctx, redisURL)
		if err != nil {
			return nil, err
		}
		logger.Info().Msg("login sessions stored in redis")
		repo = loginsession.NewRedisLoginSessionRepo(client)
	} else {
		memory := loginsession.NewInMemoryLoginSessionRepo()
		go sweepExpired(ctx, memory, logger)
		logger.Warn().Msg("login sessions stored in memory, they will not survive a restart")
		repo = memory
	}

	if secret := c.GetSessionSecret(); secret != "" {
		sealed, err := loginsession.NewSealedRepo(repo, secret)
		if err != nil {
			return nil, fmt.Errorf("loginsession.NewSealedRepo: %w", err)
		}
		return sealed, nil
	}
	return repo, nil
}

func sweepExpired(ctx context.Context, repo *loginsession.InMemoryLoginSessionRepo, logger zerolog.Logger) {
	ticker := time.NewTicker(expiredSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := repo.DeleteExpired(); n > 0 {
				logger.Debug().Int("removed", n).Msg("expired login sessions removed")
			}
		}
	}
}

func newLogger(c config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(c.GetLogLevel())
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	var logger zerolog.Logger
	if c.GetEnv() == "DEV" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	} else {
		logger = zerolog.New(os.Stderr)
	}
	return logger.Level(level).With().Timestamp().Str("service", "backoffice").Logger()
}

func listenAndServe(srv *http.Server, logger zerolog.Logger) error {
	logger.Info().Str("addr", srv.Addr).Msg("server listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() <-chan os.Signal {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	return stop
}

func shutdown(srv *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}

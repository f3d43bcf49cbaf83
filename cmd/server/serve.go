package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/go-session-manager/internal/config"
	"github.com/jrsteele09/go-session-manager/internal/metrics"
	"github.com/jrsteele09/go-session-manager/provider"
	"github.com/jrsteele09/go-session-manager/server"
	"github.com/jrsteele09/go-session-manager/server/authflowrepo"
	"github.com/jrsteele09/go-session-manager/session"
	"github.com/jrsteele09/go-session-manager/token"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	shutdownTimeout    = 5 * time.Second
	authStateSweepTick = time.Minute
	providerTimeout    = 10 * time.Second
)

func serve() error {
	c, err := config.Load()
	if err != nil {
		return err
	}
	setupLogger(c)
	displayAppname(c.GetAppName())

	for {
		err := run(c)
		if errors.Is(err, errPanicRecovered) {
			log.Error().Err(err).Msg("Restarting server")
			time.Sleep(1 * time.Second)
			continue
		}
		if err != nil {
			return err
		}
		break
	}
	log.Info().Msg("Server stopped")
	return nil
}

var errPanicRecovered = errors.New("panic recovered")

func run(c config.Config) (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Bytes("stack", debug.Stack()).Msgf("Recovered from panic: %v", r)
			returnError = errPanicRecovered
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	handler, authState, err := newHandler(ctx, c)
	if err != nil {
		return err
	}
	go sweepAuthStates(ctx, authState)

	httpServer := &http.Server{
		Addr:              c.GetPort(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- listenAndServe(httpServer)
	}()

	select {
	case err := <-errCh:
		return err
	case <-waitForStopSignal():
	}
	return shutdown(httpServer)
}

func newHandler(ctx context.Context, c config.Config) (http.Handler, *authflowrepo.InMemoryRepo, error) {
	m := metrics.New()

	idp, err := provider.New(ctx, c, c.GetBaseURL()+server.RouteAuthCallback,
		provider.WithHTTPClient(&http.Client{Timeout: providerTimeout}),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("[newHandler] %w", err)
	}

	codec, err := session.NewCodec(c)
	if err != nil {
		return nil, nil, fmt.Errorf("[newHandler] %w", err)
	}

	manager := token.NewManager(idp,
		token.WithLogger(log.Logger.With().Str("component", "token").Logger()),
		token.WithMetrics(m),
	)
	authState := authflowrepo.NewInMemoryRepo()

	s, err := server.New(c, idp, manager, codec, authState, m)
	if err != nil {
		return nil, nil, fmt.Errorf("[newHandler] %w", err)
	}
	return s, authState, nil
}

func sweepAuthStates(ctx context.Context, repo *authflowrepo.InMemoryRepo) {
	ticker := time.NewTicker(authStateSweepTick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := repo.DeleteExpired(now.Add(-repo.TTL())); n > 0 {
				log.Debug().Int("removed", n).Msg("Swept expired auth flow states")
			}
		}
	}
}

func setupLogger(c config.Config) {
	level, err := zerolog.ParseLevel(strings.ToLower(c.GetLogLevel()))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	if c.GetEnv() == "DEV" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
		return
	}
	log.Logger = zerolog.New(os.Stderr).With().Timestamp().Str("app", c.GetAppName()).Logger()
}

func listenAndServe(server *http.Server) error {
	log.Info().Str("addr", server.Addr).Msg("Server listening")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() <-chan os.Signal {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	return stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}

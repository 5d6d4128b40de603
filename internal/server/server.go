package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	sentryhttp "github.com/getsentry/sentry-go/http"
	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/pascalwiersma/omroep-generator/internal/config"
	"github.com/pascalwiersma/omroep-generator/internal/route"
	"github.com/pascalwiersma/omroep-generator/internal/station"
)

// Server exposes the announcement core over HTTP. Every request works on
// its own session; no state is kept between requests.
type Server struct {
	cfg       *config.Config
	directory *station.Directory
	finder    route.Finder
	logger    *logrus.Logger
	version   string
}

func New(cfg *config.Config, directory *station.Directory, finder route.Finder, version string, logger *logrus.Logger) *Server {
	return &Server{
		cfg:       cfg,
		directory: directory,
		finder:    finder,
		logger:    logger,
		version:   version,
	}
}

// Routes registers:
//   - GET  /v1/healthcheck
//   - GET  /v1/stations?q=...&exclude=...
//   - GET  /v1/catalog
//   - POST /v1/announcements
//   - GET  /metrics
func (s *Server) Routes() http.Handler {
	router := httprouter.New()

	router.HandlerFunc(http.MethodGet, "/v1/healthcheck", s.healthcheckHandler)
	router.HandlerFunc(http.MethodGet, "/v1/stations", s.stationsHandler)
	router.HandlerFunc(http.MethodGet, "/v1/catalog", s.catalogHandler)
	router.HandlerFunc(http.MethodPost, "/v1/announcements", s.announcementsHandler)
	router.Handler(http.MethodGet, "/metrics", promhttp.Handler())

	sentryHandler := sentryhttp.New(sentryhttp.Options{
		Repanic:         true,
		WaitForDelivery: true,
		Timeout:         2 * time.Second,
	})
	return sentryHandler.Handle(router)
}

// ListenAndServe blocks until ctx is cancelled or the listener fails.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Server.Listen,
		Handler:      s.Routes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: s.cfg.RouteService.Timeout + 10*time.Second,
	}

	s.logger.WithFields(logrus.Fields{
		"addr": srv.Addr,
		"env":  s.cfg.Server.Env,
	}).Info("starting server")

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down server: %w", err)
		}
		return nil
	}
}

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/sirupsen/logrus"

	"github.com/pascalwiersma/omroep-generator/internal/api/routeservice"
	"github.com/pascalwiersma/omroep-generator/internal/config"
	"github.com/pascalwiersma/omroep-generator/internal/report"
	"github.com/pascalwiersma/omroep-generator/internal/station"
)

const version = "1.0.0"

var CLI struct {
	Config string `help:"Path to config file" type:"path"`
	Debug  bool   `help:"Enable debug logging"`

	Stations StationsCmd `cmd:"" help:"Suggest station names for a query"`
	Catalog  CatalogCmd  `cmd:"" help:"List train types and service notices"`
	Route    RouteCmd    `cmd:"" help:"Show the intermediate stops between two stations"`
	Compose  ComposeCmd  `cmd:"" help:"Compose a platform announcement"`
	Serve    ServeCmd    `cmd:"" help:"Serve the announcement API over HTTP"`
}

// Globals is bound into every command's Run method.
type Globals struct {
	Config    *config.Config
	Directory *station.Directory
	Client    *routeservice.Client
	Logger    *logrus.Logger
}

func main() {
	kctx := kong.Parse(&CLI,
		kong.Name("omroep"),
		kong.Description("Compose train platform announcements"),
		kong.UsageOnError(),
	)

	// Command output goes to stdout, logs to stderr
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(logrus.InfoLevel)
	if CLI.Debug {
		logger.SetLevel(logrus.DebugLevel)
	}
	logger.SetFormatter(&logrus.TextFormatter{
		DisableColors: true,
		FullTimestamp: true,
	})

	cfg, err := config.Load(CLI.Config)
	if err != nil {
		logger.WithField("error", err).Fatal("failed to load config")
	}

	if err := report.Setup(cfg.Server.Env, version); err != nil {
		logger.WithField("error", err).Warn("failed to set up sentry")
	}
	defer report.Flush()

	directory, err := station.LoadDirectory(cfg.StationsFile)
	if err != nil {
		logger.WithField("error", err).Fatal("failed to load stations")
	}

	globals := &Globals{
		Config:    cfg,
		Directory: directory,
		Client:    routeservice.NewClient(cfg.RouteService.BaseURL, cfg.RouteService.Timeout, cfg.RouteService.MaxRetries),
		Logger:    logger,
	}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	kctx.BindTo(runCtx, (*context.Context)(nil))

	if err := kctx.Run(globals); err != nil {
		report.ReportError(err)
		report.Flush()
		kctx.FatalIfErrorf(err)
	}
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"searchgofer/internal/config"
	"searchgofer/internal/host"
	"searchgofer/internal/metrics"
	"searchgofer/internal/search"
)

func main() {
	os.Exit(execute())
}

// execute runs the CLI and returns the exit code
func execute() int {
	// Parse flags
	configPath := flag.String("config", "", "path to config file (environment only if empty)")
	metricsAddr := flag.String("metrics", "", "serve prometheus metrics on this address, e.g. :2112")
	timeout := flag.Duration("timeout", 0, "overall timeout of the command, 0 for none")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() == 0 {
		usage()
		return 2
	}

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		// Basic logger for startup errors
		log := zerolog.New(os.Stderr).With().Timestamp().Logger()
		log.Fatal().Err(err).Msg("failed to load config")
	}

	logger := setupLogger(cfg.LogLevel)

	var opts []search.Option
	var metricsServer *http.Server
	if *metricsAddr != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector())

		collector, err := metrics.New(reg)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to create metrics")
		}
		opts = append(opts, search.WithMetrics(collector))

		metricsServer = startMetricsServer(*metricsAddr, reg, logger)
	}

	client, err := search.NewClient(cfg, logger, opts...)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create client")
	}
	defer client.Close()

	reporter := host.NewStatusReporter(client.Registry(), cfg.GetStatusLogIntervalDuration())
	reporter.Start()
	defer reporter.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmdCtx := ctx
	if *timeout > 0 {
		var cancel context.CancelFunc
		cmdCtx, cancel = context.WithTimeout(ctx, *timeout)
		defer cancel()
	}

	exitCode := 0
	if err := run(cmdCtx, client, flag.Args(), os.Stdout); err != nil {
		logger.Error().Err(err).Str("command", flag.Arg(0)).Msg("command failed")
		exitCode = 1
	}

	if metricsServer != nil {
		logger.Info().Str("addr", *metricsAddr).Msg("serving metrics until interrupted")
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("error during shutdown")
		}
		cancel()
	}

	return exitCode
}

func startMetricsServer(addr string, reg *prometheus.Registry, logger zerolog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics server error")
		}
	}()

	return srv
}

func usage() {
	out := flag.CommandLine.Output()
	fmt.Fprintf(out, "Usage: searchctl [flags] <command> [args]\n\nCommands:\n")
	for _, c := range commands {
		fmt.Fprintf(out, "  %-12s %s\n", c.name, c.help)
	}
	fmt.Fprintf(out, "\nFlags:\n")
	flag.PrintDefaults()
}

// setupLogger configures the zerolog logger
func setupLogger(level string) zerolog.Logger {
	logLevel, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		logLevel = zerolog.InfoLevel
	}

	zerolog.SetGlobalLevel(logLevel)

	// Logs go to stderr, command output to stdout
	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}

	return zerolog.New(output).With().Timestamp().Logger()
}

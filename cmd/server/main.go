package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/teascroll/internal/api"
	"github.com/dgallion1/teascroll/internal/config"
	"github.com/dgallion1/teascroll/internal/dataset"
	"github.com/dgallion1/teascroll/internal/logger"
	"github.com/dgallion1/teascroll/internal/metrics"
	"github.com/dgallion1/teascroll/internal/parser"
	"github.com/dgallion1/teascroll/internal/source"
	"github.com/dgallion1/teascroll/internal/upstream"
	"github.com/spf13/cobra"
)

var flags struct {
	port    string
	dataDir string
}

var rootCmd = &cobra.Command{
	Use:          "teascroll",
	Short:        "Tea-culture site backend: dataset API and streaming chat proxy",
	SilenceUsage: true,
	RunE:         runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	RunE:  runServe,
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Load every dataset source once and print the report",
	RunE:  runCheck,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flags.port, "port", "", "listen port (overrides PORT)")
	rootCmd.PersistentFlags().StringVar(&flags.dataDir, "data-dir", "", "dataset directory (overrides DATA_DIR)")
	rootCmd.AddCommand(serveCmd, checkCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() config.Config {
	if flags.dataDir != "" {
		os.Setenv("DATA_DIR", flags.dataDir)
	}
	cfg := config.Load()
	if flags.port != "" {
		cfg.Port = flags.port
	}
	return cfg
}

func newLoader(cfg config.Config, log *slog.Logger) *dataset.Loader {
	library := source.NewLibrary(cfg.ReadingsDir, parser.Options{PDFFallbackPdftotext: cfg.ReadingsPDFFallback})
	return dataset.NewLoader(source.NewReader(cfg.DataDir), library, log)
}

func runServe(cmd *cobra.Command, _ []string) error {
	log := logger.New("teascroll")

	cfg := loadConfig()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		return err
	}

	m := metrics.New()
	cache := dataset.NewCache(newLoader(cfg, log).Load, log, m)
	stats := upstream.NewStats(cfg.StatsWindow)
	client := upstream.NewClientWithLogger(upstream.Options{
		URL:            cfg.UpstreamURL,
		APIKey:         cfg.UpstreamAPIKey,
		Model:          cfg.UpstreamModel,
		MaxTokens:      cfg.UpstreamMaxTokens,
		Temperature:    cfg.UpstreamTemperature,
		TopK:           cfg.UpstreamTopK,
		IdleTimeout:    cfg.UpstreamIdleTimeout,
		ConnectTimeout: cfg.UpstreamConnectTimeout,
		Retries:        cfg.UpstreamRetries,
	}, log)

	srv := api.NewServer(cache, client, stats, m, log, cfg)

	httpServer := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     srv,
		ReadTimeout: 30 * time.Second,
		// /ask clears its own deadline; everything else should finish quickly.
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		client.Close()
	}()

	log.Info("starting teascroll", "port", cfg.Port, "data_dir", cfg.DataDir, "model", cfg.UpstreamModel)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("server error", "error", err)
		return err
	}
	return nil
}

func runCheck(cmd *cobra.Command, _ []string) error {
	// The report goes to stdout, so logs go to stderr.
	log := logger.NewWithWriter(os.Stderr, "teascroll", os.Getenv("LOG_LEVEL"))
	cfg := loadConfig()
	_, report, err := newLoader(cfg, log).Load(cmd.Context())

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if encErr := enc.Encode(report); encErr != nil {
		return encErr
	}
	if err != nil {
		return fmt.Errorf("dataset check failed: %w", err)
	}
	return nil
}

// Package main runs the stablecoin HTTP API with its background workers.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/R3E-Network/stablecoin_layer/internal/audit"
	"github.com/R3E-Network/stablecoin_layer/internal/compliance"
	"github.com/R3E-Network/stablecoin_layer/internal/config"
	"github.com/R3E-Network/stablecoin_layer/internal/httpapi"
	"github.com/R3E-Network/stablecoin_layer/internal/indexer"
	"github.com/R3E-Network/stablecoin_layer/internal/ledger"
	"github.com/R3E-Network/stablecoin_layer/internal/logging"
	"github.com/R3E-Network/stablecoin_layer/internal/metrics"
	"github.com/R3E-Network/stablecoin_layer/internal/middleware"
	"github.com/R3E-Network/stablecoin_layer/internal/stablecoin"
	"github.com/R3E-Network/stablecoin_layer/internal/token"
	"github.com/R3E-Network/stablecoin_layer/internal/webhook"
)

const (
	serviceName     = "sss-server"
	shutdownTimeout = 10 * time.Second
	limiterIdle     = 5 * time.Minute
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := logging.New(serviceName, cfg.LogLevel, os.Stdout)
	if err := run(cfg, log); err != nil {
		log.WithError(err).Fatal("server exited")
	}
	log.Info("server stopped")
}

func run(cfg config.Config, log *logging.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.New("sss")

	store, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer store.Close()

	notifier := webhook.New(webhook.Config{
		URL:        cfg.WebhookURL(),
		MaxRetries: webhook.DefaultConfig().MaxRetries,
		RetryDelay: webhook.DefaultConfig().RetryDelay,
	}, log, m)
	notifier.Start(ctx)
	defer notifier.Stop()
	if !notifier.Enabled() {
		log.Info("no webhook configured; compliance alerts are logged only")
	}

	opts := stablecoin.Options{
		Store:    store,
		Logger:   log,
		Metrics:  m,
		Notifier: notifier,
		Verifier: ledger.DelayVerifier{Delay: cfg.FiatVerifyDelay, Timeout: cfg.FiatVerifyTimeout},
	}
	if cfg.SuspicionScript != "" {
		predicate, err := loadPredicate(cfg.SuspicionScript, log)
		if err != nil {
			return err
		}
		opts.Predicate = predicate
	}
	if cfg.AuditFile != "" {
		opts.AuditSink = audit.NewFileSink(cfg.AuditFile)
	}

	authority := cfg.Authority
	if authority == "" {
		generated, err := token.NewMintAddress()
		if err != nil {
			return err
		}
		authority = generated
		log.WithField("authority", authority).Warn("no authority configured; generated one")
	}

	tok, created, err := stablecoin.OpenOrCreate(ctx, store.mint, cfg.Token, authority, opts)
	if err != nil {
		return fmt.Errorf("open token: %w", err)
	}
	log.WithFields(map[string]interface{}{
		"mint":    tok.MintAddress(),
		"created": created,
		"backend": cfg.SnapshotBackend,
	}).Info("token ready")

	scheduler, err := stablecoin.NewScheduler(tok, cfg.CheckpointSchedule, log, m)
	if err != nil {
		return err
	}
	scheduler.Start()
	defer scheduler.Stop()

	if cfg.SolanaWSURL != "" {
		mentions := cfg.ProgramID
		if mentions == "" {
			mentions = tok.MintAddress()
		}
		listener := indexer.NewListener(indexer.ListenerConfig{
			URL:      cfg.SolanaWSURL,
			Mentions: mentions,
		}, indexer.New(tok.Compliance(), log, m), log)
		go func() {
			if err := listener.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.WithError(err).Error("indexer stopped")
			}
		}()
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimit, cfg.RateBurst, log)
	limiter.StartCleanup(ctx, limiterIdle)

	handler := httpapi.NewHandler(tok, httpapi.Options{
		JWTSecret:      []byte(cfg.JWTSecret),
		AllowedOrigins: cfg.AllowedOrigins(),
		Limiter:        limiter,
		Logger:         log,
		Metrics:        m,
	})

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.HTTPAddr).Info("API listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("HTTP shutdown")
	}
	if err := tok.Save(shutdownCtx); err != nil {
		log.WithError(err).Error("final snapshot save failed")
	}
	return nil
}

func loadPredicate(path string, log *logging.Logger) (*compliance.ScriptPredicate, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read suspicion script: %w", err)
	}
	return compliance.NewScriptPredicate(string(source), 0, func(err error) {
		log.WithError(err).Warn("suspicion script failed")
	})
}

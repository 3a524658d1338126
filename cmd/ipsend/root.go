package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"ipsend/internal/config"
	"ipsend/internal/logger"
	"ipsend/internal/monitor"
	"ipsend/internal/notify"
	"ipsend/internal/resolver"
	"ipsend/internal/state"
	"ipsend/internal/version"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "ipsend",
		Short:         "Email the public IP address whenever it changes",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context())
		},
	}

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), version.GetInfo().String())
		},
	})

	return root
}

func run(ctx context.Context) error {
	cfg, err := config.LoadConfig("")
	if err != nil {
		return err
	}

	log, err := logger.New(&cfg.Log)
	if err != nil {
		return err
	}
	defer func(log *zap.Logger) {
		_ = log.Sync()
	}(log)

	log = log.Named("ipsend")
	log.Info("Starting", zap.String("version", version.Version))

	// Credentials come before any network call
	creds, err := config.LoadCredentials(cfg.CredentialsFile)
	if err != nil {
		log.Error("Failed to load credentials", zap.Error(err))
		return err
	}

	notifier := notify.NewMailerSendNotifier(*creds, cfg.Notify.URL, cfg.Notify.Timeout)

	monitorCfg := monitor.Config{
		Interval:             cfg.Poll.Interval,
		Subject:              cfg.Notify.Subject,
		Recipient:            notifier.Recipient(),
		RequireNotifySuccess: cfg.Notify.RequireSuccess,
	}

	m, err := monitor.New(monitorCfg,
		resolver.New(cfg.Resolver.URL, cfg.Resolver.Timeout),
		state.NewFileStore(cfg.CacheFile),
		notifier,
		log,
	)
	if err != nil {
		log.Error("Failed to create monitor", zap.Error(err))
		return fmt.Errorf("failed to create monitor: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := m.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	metrics := m.GetMetrics()
	log.Info("Shutdown complete",
		zap.Int64("cycles", metrics.Cycles),
		zap.Int64("changes", metrics.Changes))
	return nil
}

/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/openconf/apiserver/config"
	"github.com/openconf/apiserver/internal/mq"
	"github.com/openconf/apiserver/internal/notify"
	"github.com/openconf/apiserver/internal/services"
	"github.com/spf13/cobra"
)

// workerCmd represents the worker command
var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Consumes notification events and sends email",
	Long: `Subscribes to the notifications channel and delivers the
queued emails (welcome, password reset, paper and payment decisions).
Runs until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()
		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

		broker, err := mq.Connect(cmd.Context(), cfg.MQ)
		if err != nil {
			return fmt.Errorf("connect broker: %w", err)
		}
		if broker == nil {
			return errors.New("worker requires an mq backend")
		}
		defer broker.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		notifier := notify.NewEmailNotifier(cfg.SMTP, logger)
		logger.Info("worker started", slog.String("channel", services.NotificationChannel))

		err = broker.Subscribe(ctx, services.NotificationChannel, notifier.Handle)
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(workerCmd)
}

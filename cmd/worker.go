/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/notable-app/apiserver/config"
	"github.com/notable-app/apiserver/internal/mail"
	"github.com/notable-app/apiserver/internal/mq"
	"github.com/notable-app/apiserver/internal/notify"
	"github.com/spf13/cobra"
)

// workerCmd represents the notify-worker command.
var workerCmd = &cobra.Command{
	Use:   "notify-worker",
	Short: "Consumes queued notifications and delivers them by email",
	Long: `Consumes queued notifications and delivers them by email. Usage:

	notable notify-worker

Requires MQ_BACKEND to be set to rabbitmq or pubsub.
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()

		backend, err := mq.NewBackend(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("failed to connect to message queue: %w", err)
		}
		if backend == nil {
			fmt.Fprintln(os.Stderr, "no message queue configured, set MQ_BACKEND")
			os.Exit(1)
		}
		queue := mq.New(backend)
		defer func() {
			_ = queue.Close()
		}()

		mailer := mail.New(
			cfg.SMTP.Host,
			cfg.SMTP.Port,
			cfg.SMTP.Username,
			cfg.SMTP.Password,
			cfg.SMTP.From,
		)

		worker := notify.NewWorker(queue, cfg.NotificationQueue, mailer)
		return worker.Run(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(workerCmd)
}

/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/myflix-app/apiserver/config"
	"github.com/myflix-app/apiserver/internal/logging"
	"github.com/myflix-app/apiserver/internal/mq"
	"github.com/myflix-app/apiserver/internal/services"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// activityCmd represents the activity command.
var activityCmd = &cobra.Command{
	Use:   "activity",
	Short: "Consume and log user activity events",
	Long: `Subscribes to ACTIVITY_CHANNEL on the configured MQ_BACKEND and logs
every registration, profile change and list edit published by the API.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()
		log := logging.New(cfg.Log.Level, cfg.Log.Format)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		broker, err := mq.Open(ctx, cfg)
		if err != nil {
			return err
		}
		if broker == nil {
			return errors.New("MQ_BACKEND is not set")
		}
		defer broker.Close()

		log.WithField("channel", cfg.ActivityChannel).Info("consuming activity")
		err = broker.Subscribe(ctx, cfg.ActivityChannel, logActivity(log))
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

// logActivity drops malformed events instead of requeueing them forever.
func logActivity(log logrus.FieldLogger) mq.Handler {
	return func(_ context.Context, msg mq.Message) error {
		var event services.ActivityEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			log.WithError(err).WithField("message_id", msg.ID).Warn("malformed activity event")
			return nil
		}
		entry := log.WithFields(logrus.Fields{
			"message_id": msg.ID,
			"type":       event.Type,
			"user_id":    event.UserID,
			"at":         event.At,
		})
		if event.List != "" {
			entry = entry.WithFields(logrus.Fields{"list": event.List, "item_id": event.ItemID})
		}
		entry.Info("activity")
		return nil
	}
}

func init() {
	rootCmd.AddCommand(activityCmd)
}

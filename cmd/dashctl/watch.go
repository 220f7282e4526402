package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"assembly-dashboard-be/internal/config"
	"assembly-dashboard-be/pkg/events"
	pktNats "assembly-dashboard-be/pkg/nats"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	watchSubject string

	watchCmd = &cobra.Command{
		Use:   "watch",
		Short: "Tail dashboard events from NATS",
		RunE:  runWatch,
	}
)

func init() {
	watchCmd.Flags().StringVar(&watchSubject, "subject", pktNats.SubjectPrefix+">", "Subject filter, e.g. dashboard.fetch_failed")
}

func eventColor(eventType string) *color.Color {
	switch eventType {
	case events.DashboardFetchFailed:
		return color.New(color.FgRed)
	case events.DashboardStaleDiscarded:
		return color.New(color.FgYellow)
	case events.DashboardSessionCreated:
		return color.New(color.FgGreen)
	}
	return color.New(color.FgCyan)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	_ = godotenv.Load()
	cfg, err := config.Parse()
	if err != nil {
		return err
	}
	if cfg.App.NatsURL == "" {
		return errors.New("NATS_URL is not set")
	}

	sub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		return err
	}
	defer sub.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	heading.Fprintf(out, "watching %s (ctrl-c to stop)\n", watchSubject)
	return sub.Subscribe(ctx, watchSubject, func(_ context.Context, ev events.Event) error {
		payload, err := json.Marshal(ev.Payload())
		if err != nil {
			return err
		}
		eventColor(ev.EventType()).Fprintf(out, "%s %-16s %s\n",
			ev.Timestamp().Format("15:04:05"), ev.EventType(), payload)
		return nil
	})
}

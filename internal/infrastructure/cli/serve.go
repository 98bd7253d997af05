package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/harborview/governor/internal/infrastructure/notify"
	"github.com/harborview/governor/internal/infrastructure/webhook"
)

var (
	serveAddr       string
	servePolicy     string
	serveWebhooks   string
	serveDeadLetter string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the notification server and policy watcher",
	Long: `Serve exposes governance events over WebSocket at /ws and keeps the
policy file hot-reloaded for as long as the process runs.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadServices()
		if err != nil {
			return err
		}
		defer services.Close()

		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		hub := notify.NewHub(services.Events)
		mux := http.NewServeMux()
		mux.Handle("/ws", hub)
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			fmt.Fprintln(w, "ok")
		})

		if serveWebhooks != "" {
			endpoints, err := webhook.LoadEndpoints(serveWebhooks)
			if err != nil {
				return err
			}
			notifier := webhook.NewNotifier(endpoints, webhook.NewDeadLetterStore(serveDeadLetter))
			services.Events.RegisterWildcard("webhook-notifier", notifier.Handle)
			logger.Info("webhooks enabled", "endpoints", len(endpoints))
		}

		if servePolicy != "" {
			go func() {
				if err := services.WatchPolicyFile(ctx, servePolicy, logger); err != nil && !errors.Is(err, context.Canceled) {
					logger.Error("policy watcher stopped", "error", err)
				}
			}()
		}

		server := &http.Server{
			Addr:              serveAddr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		errCh := make(chan error, 1)
		go func() {
			logger.Info("listening", "addr", serveAddr)
			errCh <- server.ListenAndServe()
		}()

		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		}
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "Listen address")
	serveCmd.Flags().StringVar(&servePolicy, "policy", "", "Policy file to hot-reload (empty disables watching)")
	serveCmd.Flags().StringVar(&serveWebhooks, "webhooks", "", "YAML file listing outbound webhook endpoints")
	serveCmd.Flags().StringVar(&serveDeadLetter, "dead-letter", "webhook-deadletter.jsonl", "Where failed webhook deliveries are recorded")
	RootCmd.AddCommand(serveCmd)
}

package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func (a *app) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the CLI version and the server version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.client()
			if err != nil {
				return err
			}
			info, err := client.Version(cmd.Context())
			if err != nil {
				return err
			}
			return a.printJSON(map[string]interface{}{
				"cli_version":         Version,
				"server_version":      info.ServerVersion,
				"server_version_info": info.ServerVersionInfo,
				"server_serie":        info.ServerSerie,
				"protocol_version":    info.ProtocolVersion,
			})
		},
	}
}

var errConnectionFailed = errors.New("connection test failed")

func (a *app) checkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Test that the server answers and accepts the credentials",
		Long: `Test that the server answers and accepts the credentials.

With --wait the test is retried with exponential backoff until it
succeeds or the wait time is exhausted, which is handy while an Odoo
container is still starting.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.client()
			if err != nil {
				return err
			}
			wait, _ := cmd.Flags().GetDuration("wait")
			if err := waitForConnection(cmd.Context(), client, wait, a.logger); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Connected to %s as %s (uid %d)\n",
				client.Config().URL, client.Config().Username, client.UID())
			return nil
		},
	}
	cmd.Flags().Duration("wait", 0, "keep retrying for up to this long")
	return cmd
}

type connectionTester interface {
	TestConnection(ctx context.Context) bool
}

// waitForConnection tests once when wait is zero, otherwise retries with
// exponential backoff until wait has elapsed.
func waitForConnection(ctx context.Context, client connectionTester, wait time.Duration, logger *zap.Logger) error {
	if wait <= 0 {
		if !client.TestConnection(ctx) {
			return errConnectionFailed
		}
		return nil
	}

	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = 500 * time.Millisecond
	expBackoff.MaxInterval = 10 * time.Second

	attempt := 0
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		attempt++
		if client.TestConnection(ctx) {
			return struct{}{}, nil
		}
		logger.Info("Odoo not reachable yet", zap.Int("attempt", attempt))
		return struct{}{}, errConnectionFailed
	},
		backoff.WithBackOff(expBackoff),
		backoff.WithMaxElapsedTime(wait))
	if err != nil {
		return fmt.Errorf("gave up after %d attempts: %w", attempt, err)
	}
	return nil
}

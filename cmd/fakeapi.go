package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"cinema-booking-cli/fakeapi"
)

func newFakeAPICmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "fake-api",
		Short: "Serve an in-memory cinema backend for local use",
		Long: `Serve an in-memory cinema backend with seeded movies, halls and screenings.
Sign in with demo/demo1234 or admin/admin1234.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.FakeAddr
			}
			log.SetOutput(cmd.ErrOrStderr())

			server, err := fakeapi.New(cfg.FakeJWTSecret)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			fmt.Fprintf(cmd.OutOrStdout(), "fake api listening on http://%s/api\n", addr)
			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return server.Start(addr)
			})
			g.Go(func() error {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return server.Shutdown(shutdownCtx)
			})
			return g.Wait()
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from CINEMA_FAKE_ADDR)")
	return cmd
}

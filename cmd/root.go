package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/kilianp07/fleetsizer/app"
	"github.com/kilianp07/fleetsizer/config"
	"github.com/kilianp07/fleetsizer/infra/logger"
	"github.com/kilianp07/fleetsizer/pkg/export"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:           "fleetsizer",
	Short:         "Multi-day fleet sizing with rest-aware vehicle routing",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "config.yaml", "configuration file")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

// withService loads the configuration, lets configure adjust it, then runs fn
// with a service that is closed afterwards.
func withService(cmd *cobra.Command, configure func(*config.Config) error, fn func(ctx context.Context, svc *app.Service) error) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if configure != nil {
		if err := configure(cfg); err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	svc, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("main").Errorf("service close: %v", err)
		}
	}()
	return fn(ctx, svc)
}

func summarize(w io.Writer, svc *app.Service, v any) error {
	return export.WriteSummary(w, svc.Config.Output.Format, v)
}

func newRunID() string { return uuid.NewString() }

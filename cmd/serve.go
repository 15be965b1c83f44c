package cmd

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/fleetsizer/api/fleet"
	runlogapi "github.com/kilianp07/fleetsizer/api/runlog"
	"github.com/kilianp07/fleetsizer/app"
	"github.com/kilianp07/fleetsizer/config"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve fleet predictions and the run log over HTTP",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "listen", "", "listen address (default from config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	configure := func(cfg *config.Config) error {
		if serveAddr != "" {
			cfg.API.ListenAddr = serveAddr
		}
		return nil
	}
	return withService(cmd, configure, func(ctx context.Context, svc *app.Service) error {
		log := svc.Logger("api")
		token := svc.Config.API.Token
		mux := http.NewServeMux()
		mux.Handle(fleet.PredictPath, fleet.NewPredictHandler(svc.FleetSolver, svc.Bus, log, token))
		if svc.RunLog != nil {
			mux.Handle(runlogapi.DaysPath, runlogapi.NewDaysHandler(svc.RunLog, token))
		}
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})

		srv := &http.Server{Addr: svc.Config.API.ListenAddr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
		errCh := make(chan error, 1)
		go func() { errCh <- srv.ListenAndServe() }()
		log.Infof("api listening on %s", srv.Addr)

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
}

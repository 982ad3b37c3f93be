package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"lyricloud/handlers"
)

func cmdServe() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web UI and JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := setup()
			if err != nil {
				return err
			}
			defer a.Close()

			if port, _ := cmd.Flags().GetString("port"); port != "" {
				a.cfg.Port = port
			}
			if !log.IsLevelEnabled(log.DebugLevel) {
				gin.SetMode(gin.ReleaseMode)
			}

			h := handlers.New(a.cfg, a.cache, a.pipeline)
			srv := &http.Server{
				Addr:    ":" + a.cfg.Port,
				Handler: h.Router(),
			}

			errc := make(chan error, 1)
			go func() {
				log.Printf("[main] 🚀 server starting on http://localhost%s", srv.Addr)
				errc <- srv.ListenAndServe()
			}()

			sigc := make(chan os.Signal, 1)
			signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)

			select {
			case err := <-errc:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			case <-sigc:
			}

			log.Println("[main] ⏹️  shutting down...")
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(ctx)
		},
	}
	cmd.Flags().StringP("port", "p", "", "Listen port (overrides PORT)")
	return cmd
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"dailies/internal/host/bridge"
	"dailies/internal/host/simhost"
	"dailies/internal/logging"
)

const defaultSimulateListen = "127.0.0.1:7788"

func newHostCommand(ctx *commandContext) *cobra.Command {
	hostCmd := &cobra.Command{
		Use:   "host",
		Short: "Editing host utilities",
	}
	hostCmd.AddCommand(newHostSimulateCommand(ctx))
	return hostCmd
}

func newHostSimulateCommand(ctx *commandContext) *cobra.Command {
	var listen string
	var projects []string
	var renderPolls int
	var token string

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Serve an in-memory editing host over the bridge protocol",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("token") {
				token = cfg.Host.APIToken
			}

			sim := simhost.New(simhost.WithProjects(projects...), simhost.WithRenderPolls(renderPolls))
			router := bridge.NewRouter(bridge.ServerConfig{
				Host:   sim,
				Logger: logging.NewComponentLogger(logger, "bridge"),
				Token:  token,
				Name:   "simhost",
			})

			listener, err := net.Listen("tcp", strings.TrimSpace(listen))
			if err != nil {
				return fmt.Errorf("listen on %s: %w", listen, err)
			}
			srv := &http.Server{Handler: router, ReadHeaderTimeout: 10 * time.Second}

			fmt.Fprintf(cmd.OutOrStdout(), "Simulated host listening on http://%s\n", listener.Addr())
			logger.Info("simulated host started",
				logging.String("address", listener.Addr().String()),
				logging.Int("projects", len(projects)),
				logging.Bool("auth", token != ""),
			)

			serveErr := make(chan error, 1)
			go func() {
				serveErr <- srv.Serve(listener)
			}()

			select {
			case err := <-serveErr:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return fmt.Errorf("serve bridge: %w", err)
			case <-cmd.Context().Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(cmd.Context()), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutdown bridge: %w", err)
			}
			logger.Info("simulated host stopped")
			return nil
		},
	}

	cmd.Flags().StringVar(&listen, "listen", defaultSimulateListen, "Address to serve the bridge on")
	cmd.Flags().StringSliceVar(&projects, "projects", nil, "Projects that exist on startup")
	cmd.Flags().IntVar(&renderPolls, "render-polls", 3, "Status polls before a render reports complete")
	cmd.Flags().StringVar(&token, "token", "", "Bearer token required by the bridge (default host.api_token)")
	return cmd
}

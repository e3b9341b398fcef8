package main

import (
	"github.com/spf13/cobra"
	"github.com/whiskeyjimbo/portprobe/internal/checkers"
	"github.com/whiskeyjimbo/portprobe/internal/health"
	"github.com/whiskeyjimbo/portprobe/internal/metrics"
	"github.com/whiskeyjimbo/portprobe/internal/server"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve one probe per HTTP request on /probe, with /metrics and health endpoints",
		Example: "  portprobe serve --listen :9100\n" +
			"  curl 'http://localhost:9100/probe?address=127.0.0.1&port=22&timeout=1s'",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := root.load()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			if listen == "" {
				listen = cfg.Server.Listen
			}

			h := health.New()
			s := server.New(
				logger,
				checkers.NewTCPChecker(logger, cfg.DefaultTimeout()),
				metrics.NewPrometheusMetrics(logger),
				h,
				listen,
			)

			if err := s.Run(cmd.Context()); err != nil {
				return err
			}
			logger.Info("Received shutdown signal, exiting...")
			return nil
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "address to listen on (default from config, :9100)")
	return cmd
}

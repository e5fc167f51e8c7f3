package main

import (
	"github.com/spf13/cobra"

	"github.com/goliatone/go-formstate/pkg/remote"
)

func newServeCommand(a *app) *cobra.Command {
	var (
		addr      string
		echoLevel string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the catalog and its validation endpoints over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			catalog, err := a.catalog(cmd.Context())
			if err != nil {
				return err
			}
			server, err := remote.NewServer(catalog,
				remote.WithServerLogger(a.logger),
				remote.WithRuleOptions(a.ruleOptions()...),
				remote.WithEchoLogLevel(echoLevel),
				remote.WithShutdownTimeout(a.cfg.ShutdownTimeout()),
				remote.WithBodyLimit(a.cfg.Server.BodyLimit),
			)
			if err != nil {
				return err
			}
			if addr == "" {
				addr = a.cfg.Server.Addr
			}
			return server.Start(cmd.Context(), addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (defaults to server.addr)")
	cmd.Flags().StringVar(&echoLevel, "echo-log-level", "warn", "echo logger level: debug, info, warn, error or off")
	return cmd
}

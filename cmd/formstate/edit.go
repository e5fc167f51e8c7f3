package main

import (
	"github.com/spf13/cobra"

	"github.com/goliatone/go-formstate/pkg/remote"
	"github.com/goliatone/go-formstate/pkg/renderers/tui"
)

func newEditCommand(a *app) *cobra.Command {
	var (
		output     string
		valuesFile string
		endpoint   string
	)
	cmd := &cobra.Command{
		Use:   "edit ID",
		Short: "Fill in a form interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := a.catalog(cmd.Context())
			if err != nil {
				return err
			}
			form, err := catalog.Form(args[0])
			if err != nil {
				return err
			}
			if output == "" {
				output = a.cfg.Edit.Output
			}

			opts := []tui.Option{
				tui.WithLogger(a.logger),
				tui.WithOutputFormat(tui.OutputFormat(output)),
				tui.WithMaxRounds(a.cfg.Edit.MaxRounds),
				tui.WithRuleOptions(a.ruleOptions()...),
				tui.WithTheme(tui.Theme{ErrorPrefix: "✗ "}),
			}
			if valuesFile != "" {
				values, err := readValues(valuesFile)
				if err != nil {
					return err
				}
				opts = append(opts, tui.WithValues(values))
			}
			if endpoint == "" {
				endpoint = a.cfg.Remote.Endpoint
			}
			if endpoint != "" {
				clientOpts := []remote.ClientOption{
					remote.WithEndpoint(endpoint),
					remote.WithTimeout(a.cfg.RemoteTimeout()),
					remote.WithLogger(a.logger),
				}
				for key, value := range a.cfg.Remote.Headers {
					clientOpts = append(clientOpts, remote.WithHeader(key, value))
				}
				opts = append(opts, tui.WithRemote(remote.NewClient(clientOpts...)))
			}

			session, err := tui.NewSession(form, opts...)
			if err != nil {
				return err
			}
			out, err := session.Run(cmd.Context())
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(append(out, '\n'))
			return err
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output format: json, form or pretty")
	cmd.Flags().StringVar(&valuesFile, "values", "", "JSON or YAML file with initial values")
	cmd.Flags().StringVar(&endpoint, "remote", "", "base URL of a validation server")
	return cmd
}

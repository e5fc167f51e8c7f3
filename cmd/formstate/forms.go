package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newFormsCommand(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "forms [id]",
		Short: "List the available forms or print one schema",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := a.catalog(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if len(args) == 1 {
				form, err := catalog.Form(args[0])
				if err != nil {
					return err
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(form)
			}

			if asJSON {
				return json.NewEncoder(out).Encode(catalog.IDs())
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tFIELDS\tSOURCE\tSUMMARY")
			for _, form := range catalog.Forms() {
				fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", form.ID, len(form.Paths()), catalog.Source(form.ID), form.Summary)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the form ids as JSON")
	return cmd
}

// SPDX-License-Identifier: EPL-2.0

package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newStatsCmd(a *app) *cobra.Command {
	var flags splitFlags

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print the class proportions of a split",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ds, cleanup, err := a.dataset(cmd.Context(), &flags)
			if err != nil {
				return err
			}
			defer cleanup()

			labels := ds.Labels()
			counts := make([]int, labels.Len())
			for _, rec := range ds.Catalog().Recordings() {
				for class, n := range rec.Store.ClassCounts(labels.Len()) {
					counts[class] += n
				}
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "CLASS\tEVENTS\tPROPORTION")
			for class, p := range ds.ClassProportions() {
				fmt.Fprintf(tw, "%s\t%d\t%.4f\n", labels.Name(class), counts[class], p)
			}
			fmt.Fprintf(tw, "windows\t%d\t\n", ds.Len())

			return tw.Flush()
		},
	}

	flags.register(cmd)

	return cmd
}

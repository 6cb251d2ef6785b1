// SPDX-License-Identifier: EPL-2.0

package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newPlanCmd(a *app) *cobra.Command {
	var (
		flags  splitFlags
		sqlite string
	)

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Plan the clips of a split and report per-recording statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			ds, cleanup, err := a.dataset(ctx, &flags)
			if err != nil {
				return err
			}
			defer cleanup()

			cat := ds.Catalog()
			for _, rec := range cat.Recordings() {
				st := rec.Store.Stats()
				a.logger.WithFields(logrus.Fields{
					"recording":  rec.Name,
					"duration":   rec.Duration,
					"rows":       st.Rows,
					"invalid":    st.Invalid,
					"unmapped":   st.Unmapped,
					"duplicates": st.Duplicates,
					"events":     st.Kept,
					"planned":    rec.Planned,
					"kept":       rec.Kept,
				}).Info("recording")
			}
			a.logger.WithFields(logrus.Fields{
				"mode":       cat.Mode().String(),
				"recordings": len(cat.Recordings()),
				"windows":    cat.Len(),
				"offset":     cat.Offset(),
			}).Info("plan")

			if sqlite == "" {
				return nil
			}
			if err := cat.SaveSQLite(ctx, sqlite); err != nil {
				return err
			}
			a.logger.WithField("path", sqlite).Info("catalog saved")

			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&sqlite, "sqlite", "", "write the catalog to this SQLite database")

	return cmd
}

// SPDX-License-Identifier: EPL-2.0

package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ik5/sedclip"
)

func newSweepCmd(a *app) *cobra.Command {
	var hop float64

	cmd := &cobra.Command{
		Use:   "sweep AUDIO",
		Short: "List the evaluation windows of a single recording",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if hop <= 0 {
				hop = a.cfg.ClipDuration / 2
			}

			set, err := sedclip.NewRecordingSet(cmd.Context(), a.cfg, args[0], hop, sedclip.WithLogger(a.logger))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for i, w := range set.Windows() {
				fmt.Fprintf(out, "%d\t%.6f\t%.6f\n", i, w.Start, w.End)
			}
			a.logger.WithFields(logrus.Fields{
				"path":     set.Path(),
				"duration": set.Duration(),
				"windows":  set.Len(),
				"hop":      hop,
			}).Info("sweep")

			return nil
		},
	}

	cmd.Flags().Float64Var(&hop, "hop", 0, "seconds between windows (default: half the clip duration)")

	return cmd
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rkm/sat-gbdx/internal/scene"
)

func newLoadCmd() *cobra.Command {
	var ops sceneOps

	cmd := &cobra.Command{
		Use:   "load <scenes.geojson>",
		Short: "Operate on a previously saved scenes file",
		Long: `Load re-reads a saved scene collection and re-runs ordering and download
operations on it. Unless --save is given, results are written back to the
input file so order state is never lost.`,
		Example: `  # Poll pending orders and persist any newly delivered state
  sat-gbdx load scenes.geojson --order

  # Download cropped imagery for previously found scenes
  sat-gbdx load scenes.geojson --download visual`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}

			path := args[0]
			col, err := scene.Load(path)
			if err != nil {
				return err
			}

			// Order state changes must always reach disk.
			if ops.save == "" {
				ops.save = path
			}

			if err := a.runOps(cmd.Context(), col, ops); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%d scenes found\n", col.Len())
			return nil
		},
	}

	addOpsFlags(cmd, &ops)

	return cmd
}

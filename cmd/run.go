package cmd

import (
	"log"

	"github.com/pk-470/Supermod/supermod"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run [flags]",
	Short: "Starts the Supermod bot and (optionally) the admin API",
	Run: func(cmd *cobra.Command, _ []string) {
		ctx := cmd.Context()
		su, err := supermod.New(cfg)
		if err != nil {
			log.Fatalf("error creating supermod: %s", err.Error())
		}

		if err = su.Run(ctx); err != nil {
			log.Fatalf("error running supermod: %s", err.Error())
		}
	},
}

//nolint:gochecknoinits
func init() {
	rootCmd.AddCommand(runCmd)
}

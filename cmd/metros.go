package main

import (
	"github.com/spf13/cobra"

	"github.com/sells-group/prospect-cli/internal/location"
)

var metrosResolve string

var metrosCmd = &cobra.Command{
	Use:   "metros",
	Short: "List known metro areas, or show how a location resolves",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if metrosResolve != "" {
			return writeJSON(out, location.Resolve(metrosResolve))
		}
		return renderMetros(out, location.Metros())
	},
}

func init() {
	metrosCmd.Flags().StringVar(&metrosResolve, "resolve", "", "print the location strategy for this input")
	rootCmd.AddCommand(metrosCmd)
}

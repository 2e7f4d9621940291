package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"aggrolog/engine/gamedata"
)

var versionsCmd = &cobra.Command{
	Use:   "versions",
	Short: "List the known game versions",
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, version := range gamedata.Versions() {
			if _, err := fmt.Fprintln(cmd.OutOrStdout(), version); err != nil {
				return err
			}
		}
		return nil
	},
}

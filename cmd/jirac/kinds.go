package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sthagen/pycontribs-jira/jira"
)

var kindsCmd = &cobra.Command{
	Use:   "kinds",
	Short: "List the resource kinds this client can fetch.",
	Run: func(cmd *cobra.Command, args []string) {
		for _, kind := range jira.Kinds() {
			fmt.Fprintln(cmd.OutOrStdout(), kind)
		}
	},
}

func init() {
	rootCmd.AddCommand(kindsCmd)
}

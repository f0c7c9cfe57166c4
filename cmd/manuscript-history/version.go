package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of manuscript-history",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("manuscript-history %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

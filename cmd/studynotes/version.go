package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/studynotes"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of studynotes",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("studynotes version %s\n", strings.TrimSpace(studynotes.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

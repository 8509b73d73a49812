package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/studynotes"
)

var initVersioning bool

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a vault with the default subjects",
	Long: `Initialize a new vault in the vault directory and write the default subjects.
With --versioning the directory becomes a git repository and every write is committed.`,
	Run: func(cmd *cobra.Command, args []string) {
		extra := []studynotes.Option{studynotes.WithAutoInit(true)}
		if cmd.Flags().Changed("versioning") {
			extra = append(extra, studynotes.WithVersioning(initVersioning))
		}

		v, err := openVault(context.Background(), extra...)
		if err != nil {
			fatal("Failed to initialize vault", err)
		}
		defer v.Close()

		fmt.Printf("Initialized StudyNotes vault (%s) in %s with %d subjects\n",
			v.Adapter, v.Location, len(v.Manager.Subjects()))
	},
}

func init() {
	initCmd.Flags().BoolVar(&initVersioning, "versioning", false, "Version the vault with git")
	rootCmd.AddCommand(initCmd)
}

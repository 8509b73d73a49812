package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/studynotes/pkg/shell"
)

// layoutCmd prints the shell layout for the current terminal and the panes it shows.
var layoutCmd = &cobra.Command{
	Use:   "layout",
	Short: "Show the layout chosen for this terminal",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		layout := shell.DetectLayout(int(os.Stdout.Fd()))

		v, err := openVault(context.Background())
		if err != nil {
			fatal("Error opening vault", err)
		}
		defer v.Close()

		nav := shell.NewNavigator(v.Manager, layout)
		panes := make([]string, 0, 3)
		for _, p := range nav.Panes() {
			panes = append(panes, p.String())
		}
		fmt.Printf("%s: %s\n", layout, strings.Join(panes, " | "))
	},
}

func init() {
	rootCmd.AddCommand(layoutCmd)
}

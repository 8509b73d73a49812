package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aretw0/studynotes"
	"github.com/aretw0/studynotes/pkg/adapters/lifecycle"
	"github.com/aretw0/studynotes/pkg/core"
)

var watchPattern string

// watchCmd reloads the vault whenever its records change on disk.
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow external changes to the vault",
	Long: `Watch the vault directory and reload subjects and notes whenever a record file
is changed by another process (a text editor, git pull, another studynotes).
Only the fs adapter supports watching.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		v, err := openVault(ctx, studynotes.WithWatcherErrorHandler(func(err error) {
			slog.Error("watcher failure", "error", err)
		}))
		if err != nil {
			fatal("Error opening vault", err)
		}
		defer v.Close()

		w, ok := v.Store.(core.Watchable)
		if !ok {
			fatal("Cannot watch", fmt.Errorf("adapter %s does not support watching", v.Adapter))
		}

		events, err := w.Watch(ctx, watchPattern)
		if err != nil {
			fatal("Failed to start watcher", err)
		}

		src := lifecycle.NewSource(events, lifecycle.WithKinds(core.KindRecord))
		if err := src.Start(ctx); err != nil {
			fatal("Failed to start event source", err)
		}

		fmt.Printf("Watching %s (Ctrl+C to stop)\n", v.Location)
		for e := range src.Events() {
			fmt.Println(e.String())
			if err := v.Manager.Reload(ctx); err != nil {
				if errors.Is(err, context.Canceled) {
					break
				}
				slog.Error("reload failed", "error", err)
				continue
			}
			fmt.Printf("  %d subjects, %d notes\n", len(v.Manager.Subjects()), len(v.Manager.Notes()))
		}
	},
}

func init() {
	watchCmd.Flags().StringVar(&watchPattern, "pattern", "studynotes-*", "Record key pattern (doublestar syntax)")
	rootCmd.AddCommand(watchCmd)
}

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	subjectJSON  bool
	subjectIcon  string
	subjectForce bool
)

var subjectCmd = &cobra.Command{
	Use:   "subject",
	Short: "Manage subjects",
}

var subjectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List subjects with their note counts",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		v, err := openVault(context.Background())
		if err != nil {
			fatal("Error opening vault", err)
		}
		defer v.Close()

		mgr := v.Manager
		subjects := mgr.Subjects()

		if subjectJSON {
			printJSON(subjects)
			return
		}

		for _, s := range subjects {
			fmt.Printf("%s %s %s (%d)\n", s.ID, s.Icon, s.Name, len(mgr.NotesForSubject(s.ID)))
		}
	},
}

var subjectAddCmd = &cobra.Command{
	Use:   "add [name]",
	Short: "Add a custom subject",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		v, err := openVault(ctx)
		if err != nil {
			fatal("Error opening vault", err)
		}
		defer v.Close()

		s, err := v.Manager.AddSubject(ctx, args[0], subjectIcon)
		if err != nil {
			fatal("Error adding subject", err)
		}
		fmt.Printf("Added subject %s %s (%s)\n", s.Icon, s.Name, s.ID)
	},
}

var subjectDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a subject and all of its notes",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		v, err := openVault(ctx)
		if err != nil {
			fatal("Error opening vault", err)
		}
		defer v.Close()

		id := args[0]
		s, ok := v.Manager.Subject(id)
		if !ok {
			fatal("Error deleting subject", fmt.Errorf("subject %q not found", id))
		}
		if s.IsDefault && !subjectForce {
			fatal("Refusing to delete default subject", fmt.Errorf("%s is built in, pass --force", s.Name))
		}

		count := len(v.Manager.NotesForSubject(id))
		if err := v.Manager.DeleteSubject(ctx, id); err != nil {
			fatal("Error deleting subject", err)
		}
		fmt.Printf("Deleted subject %s and %d notes\n", s.Name, count)
	},
}

func init() {
	subjectListCmd.Flags().BoolVar(&subjectJSON, "json", false, "Output in JSON format")
	subjectAddCmd.Flags().StringVar(&subjectIcon, "icon", "", "Emoji icon (default 📁)")
	subjectDeleteCmd.Flags().BoolVar(&subjectForce, "force", false, "Allow deleting a default subject")

	subjectCmd.AddCommand(subjectListCmd, subjectAddCmd, subjectDeleteCmd)
	rootCmd.AddCommand(subjectCmd)
}

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/studynotes/pkg/core"
	"github.com/aretw0/studynotes/pkg/editor"
	"github.com/aretw0/studynotes/pkg/git"
)

var (
	noteJSON        bool
	editTitle       string
	editContent     string
	editContentFile string
	changeReason    string
	changeType      string
)

var noteCmd = &cobra.Command{
	Use:   "note",
	Short: "Manage notes",
}

var noteAddCmd = &cobra.Command{
	Use:   "add [subject-id]",
	Short: "Add a note with a date header to a subject",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		v, err := openVault(ctx)
		if err != nil {
			fatal("Error opening vault", err)
		}
		defer v.Close()

		if _, ok := v.Manager.Subject(args[0]); !ok {
			fatal("Error adding note", fmt.Errorf("subject %q not found", args[0]))
		}
		note, err := v.Manager.AddNote(ctx, args[0])
		if err != nil {
			fatal("Error adding note", err)
		}

		if noteJSON {
			printJSON(note)
			return
		}
		fmt.Println(note.ID)
	},
}

var noteListCmd = &cobra.Command{
	Use:   "list [subject-id]",
	Short: "List the notes of a subject, newest first",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		v, err := openVault(context.Background())
		if err != nil {
			fatal("Error opening vault", err)
		}
		defer v.Close()

		notes := v.Manager.NotesForSubject(args[0])
		if noteJSON {
			printJSON(notes)
			return
		}

		for _, n := range notes {
			title := n.Title
			if title == "" {
				title = "(untitled)"
			}
			fmt.Printf("%s - %s\n", n.ID, title)
		}
	},
}

var noteShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Print a note",
	Long:  `Print the content of a note. Outputs the raw content by default, or the JSON object with --json.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		v, err := openVault(context.Background())
		if err != nil {
			fatal("Error opening vault", err)
		}
		defer v.Close()

		note, ok := v.Manager.Note(args[0])
		if !ok {
			fmt.Fprintf(os.Stderr, "Error reading note: %v\n", core.ErrNotFound)
			os.Exit(1)
		}

		if noteJSON {
			printJSON(note)
			return
		}
		fmt.Print(note.Content)
		if !strings.HasSuffix(note.Content, "\n") {
			fmt.Println()
		}
	},
}

var noteEditCmd = &cobra.Command{
	Use:   "edit [id]",
	Short: "Change the title and/or content of a note",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		titleSet := cmd.Flags().Changed("title")
		contentSet := cmd.Flags().Changed("content") || editContentFile != ""
		if !titleSet && !contentSet {
			fatal("Nothing to edit", fmt.Errorf("pass --title, --content or --content-file"))
		}

		content := editContent
		if editContentFile != "" {
			data, err := readContent(editContentFile)
			if err != nil {
				fatal("Failed to read content", err)
			}
			content = data
		}

		ctx := context.Background()
		v, err := openVault(ctx)
		if err != nil {
			fatal("Error opening vault", err)
		}
		defer v.Close()

		session := editor.NewSession(v.Manager)
		defer session.Close()

		id := args[0]
		if err := session.Switch(id); err != nil {
			fatal("Error opening note", err)
		}
		if titleSet {
			if err := session.SetTitle(editTitle); err != nil {
				fatal("Error editing title", err)
			}
		}
		if contentSet {
			if err := session.SetContent(content); err != nil {
				fatal("Error editing content", err)
			}
		}

		ctx = context.WithValue(ctx, core.ChangeReasonKey, commitMessage(id))
		if err := session.Flush(ctx); err != nil {
			fatal("Failed to save note", err)
		}
		fmt.Printf("Note '%s' saved.\n", id)
	},
}

var noteDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a note",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		v, err := openVault(ctx)
		if err != nil {
			fatal("Error opening vault", err)
		}
		defer v.Close()

		if _, ok := v.Manager.Note(args[0]); !ok {
			fatal("Error deleting note", core.ErrNotFound)
		}
		if err := v.Manager.DeleteNote(ctx, args[0]); err != nil {
			fatal("Error deleting note", err)
		}
		fmt.Printf("Note '%s' deleted.\n", args[0])
	},
}

// commitMessage builds the change reason recorded by versioned vaults.
func commitMessage(id string) string {
	if changeType != "" {
		reason := changeReason
		if reason == "" {
			reason = "edit " + id
		}
		return git.FormatCommitMessage(changeType, "notes", reason, "")
	}
	if changeReason != "" {
		return git.AppendFooter(changeReason)
	}
	return git.FormatCommitMessage(git.CommitTypeDocs, "notes", "edit "+id, "")
}

// readContent reads a file, or stdin when path is "-".
func readContent(path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		return string(data), err
	}
	data, err := os.ReadFile(path)
	return string(data), err
}

func init() {
	for _, c := range []*cobra.Command{noteAddCmd, noteListCmd, noteShowCmd} {
		c.Flags().BoolVar(&noteJSON, "json", false, "Output in JSON format")
	}

	noteEditCmd.Flags().StringVar(&editTitle, "title", "", "New title")
	noteEditCmd.Flags().StringVar(&editContent, "content", "", "New content")
	noteEditCmd.Flags().StringVar(&editContentFile, "content-file", "", "Read the new content from a file ('-' for stdin)")
	noteEditCmd.Flags().StringVarP(&changeReason, "message", "m", "", "Change reason (commit message in versioned vaults)")
	noteEditCmd.Flags().StringVarP(&changeType, "type", "t", "", "Change type (feat, fix, docs, chore)")
	noteEditCmd.MarkFlagsMutuallyExclusive("content", "content-file")

	noteCmd.AddCommand(noteAddCmd, noteListCmd, noteShowCmd, noteEditCmd, noteDeleteCmd)
	rootCmd.AddCommand(noteCmd)
}

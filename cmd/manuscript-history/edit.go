// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/manuscript-history/internal/editor"
	"github.com/pdiddy/manuscript-history/internal/journal"
	"github.com/pdiddy/manuscript-history/pkg/richtext"
	"github.com/pdiddy/manuscript-history/pkg/types"
)

var editCmd = &cobra.Command{
	Use:   "edit <manuscript.yaml>",
	Short: "Apply an action script to a manuscript",
	Long: `Edit reads a YAML list of actions (insert-text, move-author,
delete-reference, undo, ...), applies them in order with full undo/redo
history, writes the resulting manuscript, and records every history
operation in the change journal.

The manuscript is rewritten in place unless --out is given. If an action
fails, the actions before it are kept and the command reports the failure.`,
	Args: cobra.ExactArgs(1),
	RunE: runEdit,
}

func init() {
	editCmd.Flags().String("actions", "", "action script (YAML); - reads stdin")
	editCmd.Flags().String("out", "", "write the result here instead of in place")
	editCmd.Flags().Bool("no-journal", false, "do not record changes in the journal")
	editCmd.MarkFlagRequired("actions")

	rootCmd.AddCommand(editCmd)
}

func runEdit(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	actionsPath, _ := cmd.Flags().GetString("actions")
	outPath, _ := cmd.Flags().GetString("out")
	noJournal, _ := cmd.Flags().GetBool("no-journal")
	if outPath == "" {
		outPath = args[0]
	}

	schema, err := richtext.SchemaByName(cfg.Editor.Schema)
	if err != nil {
		return err
	}
	m, err := loadManuscript(args[0])
	if err != nil {
		return err
	}
	actions, err := readActions(actionsPath)
	if err != nil {
		return err
	}

	state := editor.NewState(m)
	state.Schema = schema
	session := editor.NewSession(state)
	applied, runErr := applyActions(session, actions, cmd.OutOrStdout())

	if err := saveManuscript(outPath, session.State.Manuscript()); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Applied %d/%d action(s), wrote %s\n", applied, len(actions), outPath)

	if !noJournal {
		if err := recordSession(cmd.Context(), cfg.Journal, schema, m.ID, session, cmd.OutOrStdout()); err != nil {
			return err
		}
	}
	return runErr
}

func readActions(path string) ([]editor.Action, error) {
	if path == "-" {
		return editor.LoadActions(os.Stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening action script: %w", err)
	}
	defer f.Close()
	return editor.LoadActions(f)
}

// applyActions runs actions until the first failure and returns how many
// succeeded.
func applyActions(session *editor.Session, actions []editor.Action, w io.Writer) (int, error) {
	for i, a := range actions {
		effects, err := session.Apply(a)
		if err != nil {
			return i, fmt.Errorf("action %d (%s): %w", i+1, a.Action, err)
		}
		fmt.Fprintf(w, "  %-24s ok", a.Action)
		for _, e := range effects {
			switch e := e.(type) {
			case editor.FocusField:
				fmt.Fprintf(w, "  focus %s", e.Path)
			case editor.CloseDialog:
				fmt.Fprint(w, "  close dialog")
			}
		}
		fmt.Fprintln(w)
	}
	return len(actions), nil
}

func recordSession(ctx context.Context, cfg types.JournalConfig, schema *richtext.Schema, manuscriptID string, session *editor.Session, w io.Writer) error {
	entries := session.Flush()
	if len(entries) == 0 {
		return nil
	}
	store, err := journal.Open(cfg, schema)
	if err != nil {
		return err
	}
	defer store.Close()

	appended, err := store.Append(ctx, manuscriptID, entries...)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Journaled %d entr%s (seq %d-%d)\n", len(appended), plural(len(appended)),
		appended[0].Seq, appended[len(appended)-1].Seq)
	return nil
}

func plural(n int) string {
	if n == 1 {
		return "y"
	}
	return "ies"
}

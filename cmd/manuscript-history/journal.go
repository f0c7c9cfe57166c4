// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/manuscript-history/internal/journal"
	"github.com/pdiddy/manuscript-history/pkg/richtext"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Inspect the change journal (log, compact, export)",
	Long: `Journal reads the local SQLite change journal. Every history
operation applied by edit is an entry: the serialized change plus the raw
diffs that replay it.`,
}

// --- log subcommand ---

var journalLogCmd = &cobra.Command{
	Use:   "log <manuscript-id>",
	Short: "List the latest journal entries of a manuscript",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalLog,
}

func runJournalLog(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")

	store, err := openJournal()
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.Recent(context.Background(), args[0], limit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No journal entries.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-5s  %-6s  %-14s  %-40s  %s\n", "Seq", "Kind", "Type", "Path", "Time")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 95))
	for _, e := range entries {
		path := e.Change.Path().String()
		if len(path) > 40 {
			path = path[:37] + "..."
		}
		ts := time.UnixMilli(e.Change.Timestamp()).UTC().Format(time.RFC3339)
		fmt.Fprintf(os.Stdout, "%-5d  %-6s  %-14s  %-40s  %s\n", e.Seq, e.Kind, e.Change.Type(), path, ts)
	}
	return nil
}

// --- compact subcommand ---

var journalCompactCmd = &cobra.Command{
	Use:   "compact <manuscript-id>",
	Short: "Print the journal folded into one diff per changed path",
	Long: `Compact reduces the diffs of every journal entry after --since into
one diff per changed path, merges descendant paths into changed ancestors,
and prints the result as the JSON submitted to the remote change log.`,
	Args: cobra.ExactArgs(1),
	RunE: runJournalCompact,
}

func runJournalCompact(cmd *cobra.Command, args []string) error {
	since, _ := cmd.Flags().GetInt64("since")

	store, err := openJournal()
	if err != nil {
		return err
	}
	defer store.Close()

	diffs, err := store.Compact(context.Background(), args[0], since)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(diffs)
}

// --- export subcommand ---

var journalExportCmd = &cobra.Command{
	Use:   "export <manuscript-id>",
	Short: "Export the journal of a manuscript to YAML or JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalExport,
}

func runJournalExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")

	store, err := openJournal()
	if err != nil {
		return err
	}
	defer store.Close()

	var path string
	switch format {
	case "yaml", "":
		path, err = store.ExportYAML(context.Background(), args[0])
	case "json":
		path, err = store.ExportJSON(context.Background(), args[0])
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}
	if err != nil {
		return err
	}
	fmt.Println("Exported to", path)
	return nil
}

// --- shared helpers ---

func openJournal() (*journal.Store, error) {
	cfg := loadConfig()
	schema, err := richtext.SchemaByName(cfg.Editor.Schema)
	if err != nil {
		return nil, err
	}
	return journal.Open(cfg.Journal, schema)
}

func init() {
	journalLogCmd.Flags().Int("limit", 0, "maximum entries to list (0 = configured maximum)")
	journalCompactCmd.Flags().Int64("since", 0, "only fold entries after this sequence number")
	journalExportCmd.Flags().String("format", "yaml", "export format: yaml or json")

	journalCmd.AddCommand(journalLogCmd)
	journalCmd.AddCommand(journalCompactCmd)
	journalCmd.AddCommand(journalExportCmd)

	rootCmd.AddCommand(journalCmd)
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/manuscript-history/internal/change"
	"github.com/pdiddy/manuscript-history/internal/remote"
	"github.com/pdiddy/manuscript-history/internal/secrets"
	"github.com/pdiddy/manuscript-history/pkg/richtext"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Exchange changes with the remote change log",
	Long: `Sync pushes compacted journal diffs to the remote change log and
pulls the remote log into a manuscript file. The remote is configured with
remote.base_url; the bearer token comes from remote.token or
.secrets/remote-token.`,
}

var syncPushCmd = &cobra.Command{
	Use:   "push <manuscript-id>",
	Short: "Submit journal entries not yet pushed, compacted",
	Args:  cobra.ExactArgs(1),
	RunE:  runSyncPush,
}

func runSyncPush(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	id := args[0]

	client, err := remoteClient()
	if err != nil {
		return err
	}
	store, err := openJournal()
	if err != nil {
		return err
	}
	defer store.Close()

	since, err := store.PushedSeq(ctx, id)
	if err != nil {
		return err
	}
	pending, err := store.List(ctx, id, since)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		fmt.Println("Nothing to push.")
		return nil
	}

	diffs, err := store.Compact(ctx, id, since)
	if err != nil {
		return err
	}
	if err := client.SubmitChanges(ctx, id, diffs); err != nil {
		return err
	}
	last := pending[len(pending)-1].Seq
	if err := store.MarkPushed(ctx, id, last); err != nil {
		return err
	}
	fmt.Printf("Pushed %d entr%s as %d diff(s) (through seq %d)\n", len(pending), plural(len(pending)), len(diffs), last)
	return nil
}

var syncPullCmd = &cobra.Command{
	Use:   "pull <manuscript.yaml>",
	Short: "Replay the remote change log onto a manuscript file",
	Long: `Pull fetches the diffs recorded remotely for the manuscript's id and
replays them onto the file. Replay happens in memory; the file is only
rewritten when every diff applies.`,
	Args: cobra.ExactArgs(1),
	RunE: runSyncPull,
}

func runSyncPull(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	client, err := remoteClient()
	if err != nil {
		return err
	}
	m, err := loadManuscript(args[0])
	if err != nil {
		return err
	}

	diffs, current, err := remote.NewLoader(client).Load(ctx, m.ID)
	if err != nil {
		return err
	}
	if !current {
		return fmt.Errorf("load of %s was superseded", m.ID)
	}
	if len(diffs) == 0 {
		fmt.Println("Remote change log is empty.")
		return nil
	}

	next, err := change.ApplyDiffs(m, diffs)
	if err != nil {
		return fmt.Errorf("replaying remote changes: %w", err)
	}
	if err := saveManuscript(args[0], next); err != nil {
		return err
	}
	fmt.Printf("Applied %d remote diff(s) to %s\n", len(diffs), args[0])
	return nil
}

func remoteClient() (*remote.Client, error) {
	cfg := loadConfig()
	if cfg.Remote.BaseURL == "" {
		return nil, fmt.Errorf("remote.base_url is not configured")
	}
	schema, err := richtext.SchemaByName(cfg.Editor.Schema)
	if err != nil {
		return nil, err
	}
	client := remote.NewClient(cfg.Remote, loadedSecrets.Or(secrets.RemoteToken, cfg.Remote.Token))
	client.Schema = schema
	return client, nil
}

func init() {
	syncCmd.AddCommand(syncPushCmd)
	syncCmd.AddCommand(syncPullCmd)

	rootCmd.AddCommand(syncCmd)
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the manuscript-history CLI.
// It applies edit scripts to manuscript files with undo/redo history,
// keeps a local change journal, and syncs compacted changes with a remote
// change log.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/manuscript-history/internal/secrets"
	"github.com/pdiddy/manuscript-history/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds credentials loaded from .secrets/ at startup.
var loadedSecrets secrets.Secrets

// rootCmd is the base command for the manuscript-history CLI.
var rootCmd = &cobra.Command{
	Use:   "manuscript-history",
	Short: "Edit structured manuscripts with undo/redo and a change journal",
	Long: `manuscript-history applies edits to structured scholarly manuscripts
(rich-text fields, authors, affiliations, references, keywords) as
reversible changes.

Edits are written as YAML action scripts and applied with edit. Every
history operation is recorded in a local SQLite journal, which can be
listed, compacted into one diff per changed path, exported, and pushed to
a remote change log.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupLogging(viper.GetString("editor.log_level"))

		s, err := secrets.Load(secrets.Dir)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			slog.Debug("loaded secrets", "keys", s.Keys())
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if show, _ := cmd.Flags().GetBool("metrics"); show {
			return dumpMetrics(cmd)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./manuscript-history.yaml or ~/.config/manuscript-history/config.yaml)")
	rootCmd.PersistentFlags().String("journal-dir", ".manuscript-history", "directory holding the change journal")
	rootCmd.PersistentFlags().String("log-level", "warn", "log level: debug, info, warn or error")
	rootCmd.PersistentFlags().Bool("metrics", false, "print counters after the command finishes")

	viper.BindPFlag("journal.dir", rootCmd.PersistentFlags().Lookup("journal-dir"))
	viper.BindPFlag("editor.log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.SetDefault("journal.max_entries", 500)
	viper.SetDefault("remote.timeout", "30s")
	viper.SetDefault("remote.max_retries", 3)
	viper.SetDefault("remote.user_agent", "manuscript-history/"+version)
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("manuscript-history")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "manuscript-history"))
		}
	}

	viper.SetEnvPrefix("MANUSCRIPT_HISTORY")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadConfig assembles the component configuration from viper.
func loadConfig() types.Config {
	return types.Config{
		Journal: types.JournalConfig{
			Dir:        viper.GetString("journal.dir"),
			MaxEntries: viper.GetInt("journal.max_entries"),
		},
		Remote: types.RemoteConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   viper.GetDuration("remote.timeout"),
				UserAgent: viper.GetString("remote.user_agent"),
			},
			BaseURL:    viper.GetString("remote.base_url"),
			Token:      viper.GetString("remote.token"),
			MaxRetries: viper.GetInt("remote.max_retries"),
		},
		Editor: types.EditorConfig{
			Schema:   viper.GetString("editor.schema"),
			LogLevel: viper.GetString("editor.log_level"),
		},
	}
}

func setupLogging(level string) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		l = slog.LevelWarn
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l})))
}

// dumpMetrics prints every counter registered with the default registry.
func dumpMetrics(cmd *cobra.Command) error {
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		return fmt.Errorf("gathering metrics: %w", err)
	}
	out := cmd.OutOrStdout()
	for _, mf := range families {
		if !strings.HasPrefix(mf.GetName(), "manuscript_") {
			continue
		}
		for _, m := range mf.GetMetric() {
			var labels []string
			for _, lp := range m.GetLabel() {
				labels = append(labels, lp.GetName()+"="+lp.GetValue())
			}
			name := mf.GetName()
			if len(labels) > 0 {
				name += "{" + strings.Join(labels, ",") + "}"
			}
			fmt.Fprintf(out, "%s %g\n", name, m.GetCounter().GetValue())
		}
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

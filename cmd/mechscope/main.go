// Package main provides the mechscope CLI: catalog import and lookup,
// repair progress, the completion log, and the MCP server.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kase1111-hash/Mechanic-Scope-sub001/internal/catalog"
	"github.com/kase1111-hash/Mechanic-Scope-sub001/internal/mcp"
	"github.com/kase1111-hash/Mechanic-Scope-sub001/internal/progress"
	"github.com/kase1111-hash/Mechanic-Scope-sub001/internal/storage"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

var (
	// configFile is set by the --config flag.
	configFile string
	// dataDirFlag is set by the --data-dir flag and overrides the config.
	dataDirFlag string

	// cat and prog are the global store handles, opened on startup.
	cat  catalog.Repository
	prog progress.Repository
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "mechscope",
	Short: "Mechanic-Scope is an offline parts and repair reference",
	Long: `Mechanic-Scope manages an offline-first automotive reference: a parts
catalog with engine fitments and full-text search, plus per-user repair
progress, a completion log, and running statistics. All data lives in
two local SQLite files.`,
	PersistentPreRunE: openStores,
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return closeStores()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default: <data-dir>/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&dataDirFlag, "data-dir", "", "data directory (default: ~/.mechscope)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(partsCmd)
	rootCmd.AddCommand(progressCmd)
	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(prefCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(serveCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number and build information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("mechscope %s\n", version)
		fmt.Printf("Build Time: %s\n", buildTime)
		fmt.Printf("Build Mode: %s\n", storage.BuildMode)
		fmt.Printf("SQLite Driver: %s\n", storage.DriverName)
	},
}

// openStores resolves the data directory and opens both store files.
// The version and serve commands manage their own lifecycles.
func openStores(cmd *cobra.Command, args []string) error {
	if cmd.Name() == "version" || cmd.Name() == "serve" {
		return nil
	}

	dataDir, err := resolveDataDir()
	if err != nil {
		return fmt.Errorf("resolve data dir: %w", err)
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	cat, err = catalog.Open(filepath.Join(dataDir, mcp.CatalogFile))
	if err != nil {
		return fmt.Errorf("open catalog store: %w", err)
	}
	prog, err = progress.Open(filepath.Join(dataDir, mcp.ProgressFile))
	if err != nil {
		_ = cat.Close()
		return fmt.Errorf("open progress store: %w", err)
	}
	return nil
}

// closeStores releases both store handles.
func closeStores() error {
	if prog != nil {
		_ = prog.Close()
	}
	if cat != nil {
		return cat.Close()
	}
	return nil
}

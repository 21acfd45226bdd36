// MCP serve command for the mechscope CLI.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kase1111-hash/Mechanic-Scope-sub001/internal/mcp"
	"github.com/kase1111-hash/Mechanic-Scope-sub001/internal/storage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server on stdio",
	Long: `Start the Model Context Protocol server. The server listens on stdin
for JSON-RPC messages and writes responses to stdout; all logging goes
to stderr.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// stdout is reserved for the MCP protocol.
		log.SetOutput(os.Stderr)
		log.Printf("mechscope MCP server %s starting...", version)
		log.Printf("Build Mode: %s, Driver: %s", storage.BuildMode, storage.DriverName)

		dataDir, err := resolveDataDir()
		if err != nil {
			return err
		}

		server, err := mcp.NewServer(dataDir)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

		errChan := make(chan error, 1)
		go func() {
			log.Println("MCP server ready, listening on stdio...")
			errChan <- server.Serve(ctx)
		}()

		select {
		case sig := <-sigChan:
			log.Printf("Received signal %v, shutting down gracefully...", sig)
			cancel()
			// Wait for Serve to unwind so the store handles are released
			// before we return.
			return <-errChan
		case err := <-errChan:
			return err
		}
	},
}

// Package mcp implements the Model Context Protocol (MCP) server for
// Mechanic-Scope.
//
// The server exposes the catalog and progress stores as tools over the
// JSON-RPC 2.0 stdio transport:
//   - import_catalog: Load catalog documents into the parts catalog
//   - search_parts:   Prefix search over part names, descriptions, categories
//   - get_part:       Fetch one part with attributes and cross-references
//   - save_progress:  Save completed steps for a repair
//   - get_progress:   Load completed steps for a repair
//   - log_repair:     Append a completed repair and fold its statistics
//   - get_statistics: Completion statistics for a (repair, engine) pair
//   - get_history:    Completion log, most recent first
//
// stdout is reserved for the protocol; all logging goes to stderr.
//
// Errors are returned as JSON-RPC error responses:
//   - -32602: Invalid params (missing/invalid arguments)
//   - -32603: Internal error (database, filesystem)
//   - -32001: Record not found
//   - -32004: Empty search query
package mcp

package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// importCatalogTool returns the tool definition for import_catalog
func importCatalogTool() mcp.Tool {
	return mcp.Tool{
		Name:        "import_catalog",
		Description: "Import catalog documents (JSON files of parts and fitments) into the parts catalog",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to a catalog document or a directory of documents",
				},
			},
			Required: []string{"path"},
		},
	}
}

// searchPartsTool returns the tool definition for search_parts
func searchPartsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search_parts",
		Description: "Search the parts catalog by name, description, or category (prefix match)",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Search query (keywords, matched as prefixes)",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results to return (1-100)",
					"default":     25,
					"minimum":     1,
					"maximum":     100,
				},
			},
			Required: []string{"query"},
		},
	}
}

// getPartTool returns the tool definition for get_part
func getPartTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_part",
		Description: "Get one part with its spec attributes and alternate part numbers",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"id": map[string]interface{}{
					"type":        "string",
					"description": "Part identifier",
				},
			},
			Required: []string{"id"},
		},
	}
}

// saveProgressTool returns the tool definition for save_progress
func saveProgressTool() mcp.Tool {
	return mcp.Tool{
		Name:        "save_progress",
		Description: "Save the set of completed steps for a repair on an engine",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"repair_id": map[string]interface{}{
					"type":        "string",
					"description": "Repair identifier",
				},
				"engine_id": map[string]interface{}{
					"type":        "string",
					"description": "Engine identifier",
				},
				"steps": map[string]interface{}{
					"type":        "array",
					"description": "Completed step numbers",
					"items": map[string]interface{}{
						"type": "integer",
					},
				},
			},
			Required: []string{"repair_id", "engine_id", "steps"},
		},
	}
}

// getProgressTool returns the tool definition for get_progress
func getProgressTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_progress",
		Description: "Get the completed steps for a repair on an engine",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"repair_id": map[string]interface{}{
					"type":        "string",
					"description": "Repair identifier",
				},
				"engine_id": map[string]interface{}{
					"type":        "string",
					"description": "Engine identifier",
				},
			},
			Required: []string{"repair_id", "engine_id"},
		},
	}
}

// logRepairTool returns the tool definition for log_repair
func logRepairTool() mcp.Tool {
	return mcp.Tool{
		Name:        "log_repair",
		Description: "Record a completed repair in the history log and fold it into the running statistics",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"repair_id": map[string]interface{}{
					"type":        "string",
					"description": "Repair identifier",
				},
				"repair_name": map[string]interface{}{
					"type":        "string",
					"description": "Repair display name, snapshotted into the log",
				},
				"engine_id": map[string]interface{}{
					"type":        "string",
					"description": "Engine identifier",
				},
				"engine_name": map[string]interface{}{
					"type":        "string",
					"description": "Engine display name, snapshotted into the log",
				},
				"started_at": map[string]interface{}{
					"type":        "string",
					"description": "Start time, RFC 3339",
				},
				"finished_at": map[string]interface{}{
					"type":        "string",
					"description": "Finish time, RFC 3339",
				},
				"notes": map[string]interface{}{
					"type":        "string",
					"description": "Free-form notes",
				},
				"rating": map[string]interface{}{
					"type":        "integer",
					"description": "Difficulty rating (1-5)",
					"minimum":     1,
					"maximum":     5,
				},
			},
			Required: []string{"repair_id", "engine_id", "started_at", "finished_at"},
		},
	}
}

// getStatisticsTool returns the tool definition for get_statistics
func getStatisticsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_statistics",
		Description: "Get completion statistics for a repair on an engine",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"repair_id": map[string]interface{}{
					"type":        "string",
					"description": "Repair identifier",
				},
				"engine_id": map[string]interface{}{
					"type":        "string",
					"description": "Engine identifier",
				},
			},
			Required: []string{"repair_id", "engine_id"},
		},
	}
}

// getHistoryTool returns the tool definition for get_history
func getHistoryTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_history",
		Description: "List completed repairs, most recent first",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"engine_id": map[string]interface{}{
					"type":        "string",
					"description": "Restrict to one engine (omit for all engines)",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of entries to return (1-100)",
					"default":     50,
					"minimum":     1,
					"maximum":     100,
				},
			},
		},
	}
}

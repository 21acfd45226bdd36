package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/kase1111-hash/Mechanic-Scope-sub001/internal/catalog"
	"github.com/kase1111-hash/Mechanic-Scope-sub001/internal/importer"
	"github.com/kase1111-hash/Mechanic-Scope-sub001/internal/progress"
	"github.com/kase1111-hash/Mechanic-Scope-sub001/internal/storage"
)

// MCP error codes
const (
	ErrorCodeInvalidParams = -32602 // Invalid method parameters
	ErrorCodeInternalError = -32603 // Internal JSON-RPC error
	ErrorCodeNotFound      = -32001 // Requested record does not exist
	ErrorCodeEmptyQuery    = -32004 // Query parameter is empty
)

// handleImportCatalog handles the import_catalog tool invocation
func (s *Server) handleImportCatalog(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	path, ok := args["path"].(string)
	if !ok || path == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "path parameter is required", map[string]interface{}{
			"param":  "path",
			"reason": "missing or empty",
		})
	}

	isDir, err := validatePath(path)
	if err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid path", map[string]interface{}{
			"param":  "path",
			"reason": err.Error(),
		})
	}

	var stats *importer.Statistics
	if isDir {
		stats, err = s.importer.ImportDir(ctx, path, nil)
	} else {
		stats, err = s.importer.ImportFile(ctx, path)
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "import failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"files_imported":    stats.FilesImported,
		"files_failed":      stats.FilesFailed,
		"parts_imported":    stats.PartsImported,
		"fitments_imported": stats.FitmentsImported,
		"duration_ms":       stats.Duration.Milliseconds(),
	}

	if len(stats.ErrorMessages) > 0 {
		errorCount := len(stats.ErrorMessages)
		if errorCount > 5 {
			response["errors"] = stats.ErrorMessages[:5]
			response["error_count"] = errorCount
		} else {
			response["errors"] = stats.ErrorMessages
		}
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleSearchParts handles the search_parts tool invocation
func (s *Server) handleSearchParts(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	query, ok := args["query"].(string)
	if !ok || query == "" {
		return nil, newMCPError(ErrorCodeEmptyQuery, "query parameter is required and cannot be empty", map[string]interface{}{
			"param":  "query",
			"reason": "missing or empty",
		})
	}

	limit := getIntDefault(args, "limit", catalog.DefaultSearchLimit)
	if limit < 1 || limit > 100 {
		return nil, newMCPError(ErrorCodeInvalidParams, "limit must be between 1 and 100", map[string]interface{}{
			"param": "limit",
			"value": limit,
		})
	}

	parts, err := s.catalog.Search(ctx, query, limit)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "search failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	results := make([]map[string]interface{}, len(parts))
	for i, p := range parts {
		results[i] = map[string]interface{}{
			"id":       p.ID,
			"name":     p.Name,
			"category": p.Category,
		}
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"query":   query,
		"count":   len(results),
		"results": results,
	})), nil
}

// handleGetPart handles the get_part tool invocation
func (s *Server) handleGetPart(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	id, ok := args["id"].(string)
	if !ok || id == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "id parameter is required", map[string]interface{}{
			"param":  "id",
			"reason": "missing or empty",
		})
	}

	part, err := s.catalog.Get(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, newMCPError(ErrorCodeNotFound, "part not found", map[string]interface{}{
			"id": id,
		})
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to load part", map[string]interface{}{
			"error": err.Error(),
		})
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"id":          part.ID,
		"name":        part.Name,
		"description": part.Description,
		"category":    part.Category,
		"image":       part.ImageRef,
		"attributes":  part.Attributes,
		"cross_refs":  part.CrossRefs,
	})), nil
}

// handleSaveProgress handles the save_progress tool invocation
func (s *Server) handleSaveProgress(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	repairID, engineID, errResp := repairEnginePair(args)
	if errResp != nil {
		return nil, errResp
	}

	rawSteps, ok := args["steps"].([]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "steps parameter is required", map[string]interface{}{
			"param":  "steps",
			"reason": "missing or not an array",
		})
	}
	steps := make([]int, 0, len(rawSteps))
	for _, v := range rawSteps {
		n, ok := v.(float64)
		if !ok {
			return nil, newMCPError(ErrorCodeInvalidParams, "steps must be integers", map[string]interface{}{
				"param": "steps",
				"value": v,
			})
		}
		steps = append(steps, int(n))
	}

	if err := s.progress.SaveProgress(ctx, repairID, engineID, steps); err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to save progress", map[string]interface{}{
			"error": err.Error(),
		})
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"saved":     true,
		"repair_id": repairID,
		"engine_id": engineID,
	})), nil
}

// handleGetProgress handles the get_progress tool invocation
func (s *Server) handleGetProgress(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	repairID, engineID, errResp := repairEnginePair(args)
	if errResp != nil {
		return nil, errResp
	}

	steps, err := s.progress.LoadProgress(ctx, repairID, engineID)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to load progress", map[string]interface{}{
			"error": err.Error(),
		})
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"repair_id":    repairID,
		"engine_id":    engineID,
		"steps":        steps,
		"has_progress": len(steps) > 0,
	})), nil
}

// handleLogRepair handles the log_repair tool invocation
func (s *Server) handleLogRepair(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	repairID, engineID, errResp := repairEnginePair(args)
	if errResp != nil {
		return nil, errResp
	}

	startedAt, err := parseTimeParam(args, "started_at")
	if err != nil {
		return nil, err
	}
	finishedAt, err := parseTimeParam(args, "finished_at")
	if err != nil {
		return nil, err
	}
	if finishedAt.Before(startedAt) {
		return nil, newMCPError(ErrorCodeInvalidParams, "finished_at must not precede started_at", nil)
	}

	entry := &progress.HistoryEntry{
		RepairID:   repairID,
		RepairName: getStringDefault(args, "repair_name", ""),
		EngineID:   engineID,
		EngineName: getStringDefault(args, "engine_name", ""),
		StartedAt:  startedAt,
		FinishedAt: finishedAt,
		Notes:      getStringDefault(args, "notes", ""),
	}
	if raw, ok := args["rating"].(float64); ok {
		rating := int(raw)
		if rating < 1 || rating > 5 {
			return nil, newMCPError(ErrorCodeInvalidParams, "rating must be between 1 and 5", map[string]interface{}{
				"param": "rating",
				"value": rating,
			})
		}
		entry.Rating = &rating
	}

	if err := s.progress.LogCompletedRepair(ctx, entry); err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to log repair", map[string]interface{}{
			"error": err.Error(),
		})
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"logged":       true,
		"id":           entry.ID,
		"duration_min": entry.DurationMin,
	})), nil
}

// handleGetStatistics handles the get_statistics tool invocation
func (s *Server) handleGetStatistics(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	repairID, engineID, errResp := repairEnginePair(args)
	if errResp != nil {
		return nil, errResp
	}

	stats, err := s.progress.GetStatistics(ctx, repairID, engineID)
	if errors.Is(err, storage.ErrNotFound) {
		return mcp.NewToolResultText(formatJSON(map[string]interface{}{
			"repair_id":       repairID,
			"engine_id":       engineID,
			"times_completed": 0,
		})), nil
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to load statistics", map[string]interface{}{
			"error": err.Error(),
		})
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"repair_id":         stats.RepairID,
		"engine_id":         stats.EngineID,
		"times_completed":   stats.TimesCompleted,
		"total_minutes":     stats.TotalMinutes,
		"avg_minutes":       stats.AvgMinutes,
		"last_completed_at": stats.LastCompletedAt.Format(time.RFC3339),
	})), nil
}

// handleGetHistory handles the get_history tool invocation
func (s *Server) handleGetHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		args = map[string]interface{}{}
	}

	engineID := getStringDefault(args, "engine_id", "")
	limit := getIntDefault(args, "limit", progress.DefaultHistoryLimit)
	if limit < 1 || limit > 100 {
		return nil, newMCPError(ErrorCodeInvalidParams, "limit must be between 1 and 100", map[string]interface{}{
			"param": "limit",
			"value": limit,
		})
	}

	entries, err := s.progress.GetHistory(ctx, engineID, limit)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to load history", map[string]interface{}{
			"error": err.Error(),
		})
	}

	results := make([]map[string]interface{}, len(entries))
	for i, e := range entries {
		result := map[string]interface{}{
			"id":           e.ID,
			"repair_id":    e.RepairID,
			"repair_name":  e.RepairName,
			"engine_id":    e.EngineID,
			"engine_name":  e.EngineName,
			"finished_at":  e.FinishedAt.Format(time.RFC3339),
			"duration_min": e.DurationMin,
		}
		if e.Notes != "" {
			result["notes"] = e.Notes
		}
		if e.Rating != nil {
			result["rating"] = *e.Rating
		}
		results[i] = result
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"count":   len(results),
		"entries": results,
	})), nil
}

// Helper functions

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	// MCP errors are returned as regular errors, the framework handles encoding
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// repairEnginePair extracts the required repair_id/engine_id pair.
func repairEnginePair(args map[string]interface{}) (string, string, error) {
	repairID, ok := args["repair_id"].(string)
	if !ok || repairID == "" {
		return "", "", newMCPError(ErrorCodeInvalidParams, "repair_id parameter is required", map[string]interface{}{
			"param":  "repair_id",
			"reason": "missing or empty",
		})
	}
	engineID, ok := args["engine_id"].(string)
	if !ok || engineID == "" {
		return "", "", newMCPError(ErrorCodeInvalidParams, "engine_id parameter is required", map[string]interface{}{
			"param":  "engine_id",
			"reason": "missing or empty",
		})
	}
	return repairID, engineID, nil
}

// parseTimeParam extracts a required RFC 3339 time parameter.
func parseTimeParam(args map[string]interface{}, key string) (time.Time, error) {
	raw, ok := args[key].(string)
	if !ok || raw == "" {
		return time.Time{}, newMCPError(ErrorCodeInvalidParams, key+" parameter is required", map[string]interface{}{
			"param":  key,
			"reason": "missing or empty",
		})
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, newMCPError(ErrorCodeInvalidParams, key+" must be RFC 3339", map[string]interface{}{
			"param": key,
			"value": raw,
		})
	}
	return t, nil
}

// validatePath checks that a path is absolute and exists, and reports
// whether it is a directory.
func validatePath(path string) (bool, error) {
	if !filepath.IsAbs(path) {
		return false, ErrPathNotAbsolute
	}
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false, ErrPathNotFound
	}
	if err != nil {
		return false, ErrPathNotReadable
	}
	return info.IsDir(), nil
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// getStringDefault extracts a string parameter with a default value
func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok {
		return val
	}
	return defaultValue
}

// Validation helpers

var (
	ErrPathNotAbsolute = errors.New("path must be absolute")
	ErrPathNotFound    = errors.New("path does not exist")
	ErrPathNotReadable = errors.New("path is not readable")
)

package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// Tool names.
const (
	ToolLoad          = "xray_load"
	ToolEnhance       = "xray_enhance"
	ToolAnalyze       = "xray_analyze"
	ToolAnnotate      = "xray_annotate"
	ToolZoomCandidate = "xray_zoom_candidate"
	ToolUnload        = "xray_unload"
)

// Defaults for xray_zoom_candidate.
const (
	DefaultZoomRadius = 48
	DefaultZoomScale  = 2.0
)

func pathProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Capture to read: a local path, file://, http(s):// URL or azblob://container/blob",
	}
}

// analysisProperties are shared by the tools that run the pipeline.
func analysisProperties() map[string]interface{} {
	return map[string]interface{}{
		"path": pathProperty(),
		"strategy": map[string]interface{}{
			"type":        "string",
			"enum":        []string{"neighbor_deviation", "convolution_kernel"},
			"description": "Detector to run. Defaults to the server configuration (neighbor_deviation unless overridden)",
		},
		"contrast_level": map[string]interface{}{
			"type":        "integer",
			"description": "Contrast stretch level, strictly between -255 and 259. Default 40",
		},
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	zoomProps := analysisProperties()
	zoomProps["candidate"] = map[string]interface{}{
		"type":        "integer",
		"description": "Rank of the candidate to zoom on, 0 for the strongest. Default 0",
		"default":     0,
	}
	zoomProps["radius"] = map[string]interface{}{
		"type":        "integer",
		"description": "Half-size of the crop in pixels. Default 48",
		"default":     DefaultZoomRadius,
	}
	zoomProps["scale"] = map[string]interface{}{
		"type":        "number",
		"description": "Scale factor applied to the crop. Default 2.0",
		"default":     DefaultZoomScale,
	}

	return []Tool{
		{
			Name:        ToolLoad,
			Description: "Load a radiograph and return its dimensions, format, encoded size and luma statistics. The capture is cached for later calls.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        ToolEnhance,
			Description: "Convert a radiograph to grayscale luma and apply the contrast stretch. Returns the enhanced frame as base64-encoded PNG.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": analysisProperties(),
				"required":   []string{"path"},
			},
		},
		{
			Name:        ToolAnalyze,
			Description: "Run the anomaly screen on a radiograph. Returns the status (Healthy, Suspicious, Critical), confidence, location, ranked candidates and the annotation to draw. Heuristic screening aid, not a diagnosis.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": analysisProperties(),
				"required":   []string{"path"},
			},
		},
		{
			Name:        ToolAnnotate,
			Description: "Analyze a radiograph and return the enhanced frame with the anomaly marker and status label drawn on it, as base64-encoded PNG, together with the report.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": analysisProperties(),
				"required":   []string{"path"},
			},
		},
		{
			Name:        ToolZoomCandidate,
			Description: "Analyze a radiograph and return a zoomed crop of the enhanced frame around one ranked candidate, as base64-encoded PNG.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": zoomProps,
				"required":   []string{"path"},
			},
		},
		{
			Name:        ToolUnload,
			Description: "Drop a radiograph from the in-memory cache so the next call reads it again.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}

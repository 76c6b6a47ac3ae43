package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/xray-tools-mcp/internal/detection"
	"github.com/ironsheep/xray-tools-mcp/internal/dsp"
	"github.com/ironsheep/xray-tools-mcp/internal/imaging"
	"github.com/ironsheep/xray-tools-mcp/internal/service"
)

// errInvalidArguments marks tool arguments that are malformed or missing.
var errInvalidArguments = errors.New("invalid arguments")

// errUnknownTool marks a tools/call for a tool that does not exist.
var errUnknownTool = errors.New("unknown tool")

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "xray_analyze").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Bad arguments and invalid engine settings return -32602; any other tool
// failure returns -32000 with the error string as data.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, CodeInvalidParams, "Invalid params", err.Error())
	}

	ctx := context.Background()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	log := s.log.WithFields(logrus.Fields{
		"tool":    params.Name,
		"elapsed": time.Since(start).String(),
	})
	if err != nil {
		log.WithError(err).Warn("tool call failed")
		switch {
		case errors.Is(err, errInvalidArguments), errors.Is(err, errUnknownTool), errors.Is(err, dsp.ErrInvalidConfiguration):
			return s.errorResponse(req.ID, CodeInvalidParams, "Invalid params", err.Error())
		default:
			return s.errorResponse(req.ID, CodeToolFailure, "Tool execution failed", err.Error())
		}
	}
	log.Debug("tool call completed")

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	case ToolLoad:
		return s.handleLoad(ctx, args)
	case ToolEnhance:
		return s.handleEnhance(ctx, args)
	case ToolAnalyze:
		return s.handleAnalyze(ctx, args)
	case ToolAnnotate:
		return s.handleAnnotate(ctx, args)
	case ToolZoomCandidate:
		return s.handleZoomCandidate(ctx, args)
	case ToolUnload:
		return s.handleUnload(args)
	default:
		return nil, fmt.Errorf("%w: %s", errUnknownTool, name)
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure it returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// decodeArgs unmarshals args into v. A missing argument object is treated as
// empty.
func decodeArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("%w: %v", errInvalidArguments, err)
	}
	return nil
}

type loadArgs struct {
	Path string `json:"path"`
}

func (a loadArgs) validate() error {
	if a.Path == "" {
		return fmt.Errorf("%w: path is required", errInvalidArguments)
	}
	return nil
}

type analysisArgs struct {
	Path          string `json:"path"`
	Strategy      string `json:"strategy"`
	ContrastLevel *int   `json:"contrast_level"`
}

func (a analysisArgs) validate() error {
	return loadArgs{Path: a.Path}.validate()
}

func (a analysisArgs) overrides() service.Overrides {
	return service.Overrides{Strategy: a.Strategy, ContrastLevel: a.ContrastLevel}
}

func (s *Server) handleLoad(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a loadArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if err := a.validate(); err != nil {
		return nil, err
	}
	return s.svc.Info(ctx, a.Path)
}

// UnloadResult is the xray_unload payload.
type UnloadResult struct {
	Path    string `json:"path"`
	Evicted bool   `json:"evicted"`
}

func (s *Server) handleUnload(args json.RawMessage) (interface{}, error) {
	var a loadArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if err := a.validate(); err != nil {
		return nil, err
	}
	return &UnloadResult{Path: a.Path, Evicted: s.svc.Unload(a.Path)}, nil
}

func (s *Server) handleEnhance(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a analysisArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if err := a.validate(); err != nil {
		return nil, err
	}
	img, err := s.svc.EnhanceSource(ctx, a.Path, a.overrides())
	if err != nil {
		return nil, err
	}
	return imaging.EncodePNG(img)
}

func (s *Server) analyze(ctx context.Context, a analysisArgs) (*service.Analysis, error) {
	if err := a.validate(); err != nil {
		return nil, err
	}
	return s.svc.AnalyzeSource(ctx, a.Path, a.overrides())
}

func (s *Server) handleAnalyze(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a analysisArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	return s.analyze(ctx, a)
}

// AnnotateResult is the xray_annotate payload.
type AnnotateResult struct {
	Report     detection.Report      `json:"report"`
	Annotation *detection.Annotation `json:"annotation,omitempty"`
	Image      *imaging.EncodedImage `json:"image"`
}

func (s *Server) handleAnnotate(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a analysisArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	analysis, err := s.analyze(ctx, a)
	if err != nil {
		return nil, err
	}
	rendered, err := s.svc.Render(analysis, true)
	if err != nil {
		return nil, err
	}
	enc, err := imaging.EncodePNG(rendered)
	if err != nil {
		return nil, err
	}
	return &AnnotateResult{Report: analysis.Report, Annotation: analysis.Annotation, Image: enc}, nil
}

type zoomArgs struct {
	analysisArgs
	Candidate int     `json:"candidate"`
	Radius    int     `json:"radius"`
	Scale     float64 `json:"scale"`
}

// ZoomResult is the xray_zoom_candidate payload.
type ZoomResult struct {
	Candidate detection.Candidate `json:"candidate"`
	Status    detection.Status    `json:"status"`
	*imaging.ZoomResult
}

func (s *Server) handleZoomCandidate(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a zoomArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Candidate < 0 {
		return nil, fmt.Errorf("%w: candidate must be >= 0 (got %d)", errInvalidArguments, a.Candidate)
	}
	if a.Radius == 0 {
		a.Radius = DefaultZoomRadius
	}
	if a.Scale == 0 {
		a.Scale = DefaultZoomScale
	}

	analysis, err := s.analyze(ctx, a.analysisArgs)
	if err != nil {
		return nil, err
	}
	if a.Candidate >= len(analysis.Report.Candidates) {
		return nil, fmt.Errorf("no candidate %d: frame has %d (status %s)", a.Candidate, len(analysis.Report.Candidates), analysis.Report.Status)
	}
	z, err := s.svc.Zoom(analysis, a.Candidate, a.Radius, a.Scale)
	if err != nil {
		return nil, err
	}
	return &ZoomResult{
		Candidate:  analysis.Report.Candidates[a.Candidate],
		Status:     analysis.Report.Status,
		ZoomResult: z,
	}, nil
}

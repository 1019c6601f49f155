package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/anwilli5/coinprep/internal/imaging"
	"github.com/anwilli5/coinprep/internal/pipeline"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "coin_prep_directory").
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
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		s.log.WithField("tool", params.Name).WithError(err).Warn("Tool failed")
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

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
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}

	switch name {
	case "coin_prep_directory":
		return s.handleCoinPrepDirectory(ctx, args)
	case "coin_prep_image":
		return s.handleCoinPrepImage(ctx, args)
	case "coin_sample_seed":
		return s.handleCoinSampleSeed(args)
	case "image_info":
		return s.handleImageInfo(args)
	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	e := &MCPError{
		Code:    code,
		Message: message,
	}
	if data != "" {
		e.Data = data
	}
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error:   e,
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure it returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// pipelineOptions builds batch options from the server configuration.
func (s *Server) pipelineOptions() (pipeline.Options, error) {
	return s.cfg.PipelineOptions(s.log)
}

// === Conversion Handlers ===

type coinPrepDirectoryArgs struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
	Ghost       bool   `json:"ghost"`
	FailFast    bool   `json:"fail_fast"`
}

func (s *Server) handleCoinPrepDirectory(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a coinPrepDirectoryArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Source == "" {
		a.Source = s.cfg.Source
	}
	if a.Destination == "" {
		a.Destination = s.cfg.Destination
	}

	opts, err := s.pipelineOptions()
	if err != nil {
		return nil, err
	}
	opts.Ghost = opts.Ghost || a.Ghost
	opts.FailFast = opts.FailFast || a.FailFast

	summary, err := pipeline.ProcessDirectory(ctx, a.Source, a.Destination, opts)
	if err != nil {
		return nil, err
	}
	return summary, nil
}

type coinPrepImageArgs struct {
	Path        string `json:"path"`
	Destination string `json:"destination"`
	Ghost       bool   `json:"ghost"`
}

func (s *Server) handleCoinPrepImage(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a coinPrepImageArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, errors.New("path is required")
	}
	if a.Destination == "" {
		a.Destination = s.cfg.Destination
	}

	opts, err := s.pipelineOptions()
	if err != nil {
		return nil, err
	}
	opts.Ghost = opts.Ghost || a.Ghost

	if err := pipeline.EnsureDir(a.Destination); err != nil {
		return nil, err
	}
	src := pipeline.SourceImage{
		Path:     a.Path,
		Name:     filepath.Base(a.Path),
		BaseName: pipeline.BaseName(filepath.Base(a.Path)),
	}
	r := pipeline.ProcessFile(ctx, src, a.Destination, opts)
	if r.Err != nil {
		return nil, r.Err
	}
	if r.Skipped {
		return nil, fmt.Errorf("%s: %s", a.Path, r.Reason)
	}
	return r, nil
}

// === Inspection Handlers ===

type coinSampleSeedArgs struct {
	Path string `json:"path"`
	X    *int   `json:"x"`
	Y    *int   `json:"y"`
}

func (s *Server) handleCoinSampleSeed(args json.RawMessage) (interface{}, error) {
	var a coinSampleSeedArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	opts, err := s.cfg.ImageOptions()
	if err != nil {
		return nil, err
	}
	seed := opts.Seed
	if a.X != nil {
		seed.X = *a.X
	}
	if a.Y != nil {
		seed.Y = *a.Y
	}

	w, err := imaging.Load(a.Path, opts)
	if err != nil {
		return nil, err
	}
	return imaging.SampleSeed(w.Pix, seed)
}

type imageInfoArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageInfo(args json.RawMessage) (interface{}, error) {
	var a imageInfoArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return imaging.LoadImageInfo(a.Path)
}

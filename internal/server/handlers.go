package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"time"

	"github.com/tkzzzzzz6/dino-x/internal/analytics"
	"github.com/tkzzzzzz6/dino-x/internal/detection"
	"github.com/tkzzzzzz6/dino-x/internal/imaging"
	"github.com/tkzzzzzz6/dino-x/internal/overlay"
	"github.com/tkzzzzzz6/dino-x/internal/rle"
)

const (
	// DefaultTopObjects is the n used by analytics_top_objects when none is given.
	DefaultTopObjects = 5

	// MaxDetectionTime bounds the detection_time accepted by analytics_ingest.
	MaxDetectionTime = time.Hour
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "detection_visualize").
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
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}
	if len(params.Arguments) == 0 {
		params.Arguments = json.RawMessage("{}")
	}

	start := time.Now()
	result, err := s.executeTool(params.Name, params.Arguments)
	if s.metrics != nil {
		s.metrics.ObserveTool(params.Name, time.Since(start), err)
	}
	if err != nil {
		s.log.Warnf("Tool %s failed: %v", params.Name, err)
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
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Images
	case "image_load":
		return s.handleImageLoad(args)

	// Detection results
	case "detection_visualize":
		return s.handleDetectionVisualize(args)
	case "detection_summarize":
		return s.handleDetectionSummarize(args)
	case "detection_crop_object":
		return s.handleDetectionCropObject(args)
	case "mask_decode":
		return s.handleMaskDecode(args)

	// Session analytics
	case "analytics_ingest":
		return s.handleAnalyticsIngest(args)
	case "analytics_top_objects":
		return s.handleAnalyticsTopObjects(args)
	case "analytics_report":
		return s.analytics.Snapshot(), nil
	case "analytics_reset":
		s.analytics.Reset()
		return map[string]interface{}{"reset": true}, nil

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// imageSource names the image a tool works on: a file path or inline base64.
type imageSource struct {
	Path        string `json:"path"`
	ImageBase64 string `json:"image_base64"`
}

func (s *Server) loadImage(src imageSource) (image.Image, error) {
	switch {
	case src.Path != "":
		return s.cache.Load(src.Path)
	case src.ImageBase64 != "":
		return imaging.DecodeBase64(src.ImageBase64)
	default:
		return nil, fmt.Errorf("path or image_base64 is required")
	}
}

// parseResult accepts a detection result as a JSON object, a bare array of
// objects, or either of those encoded inside a JSON string.
func parseResult(raw json.RawMessage) (*detection.Result, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '"' {
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			return nil, fmt.Errorf("result: %w", err)
		}
		raw = json.RawMessage(text)
	}
	res, err := detection.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("result: %w", err)
	}
	return res, nil
}

// === Image Handlers ===

type imageLoadArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}

// === Detection Handlers ===

type visualizeArgs struct {
	imageSource
	Result      json.RawMessage `json:"result"`
	ShowBBox    *bool           `json:"show_bbox"`
	ShowMask    *bool           `json:"show_mask"`
	ShowPose    *bool           `json:"show_pose"`
	ShowHand    *bool           `json:"show_hand"`
	ShowCaption *bool           `json:"show_caption"`
	OutputPath  string          `json:"output_path"`
}

// options overlays the flags the caller set on the server defaults.
func (a visualizeArgs) options(defaults overlay.Options) overlay.Options {
	o := defaults
	for _, f := range []struct {
		arg *bool
		dst *bool
	}{
		{a.ShowBBox, &o.ShowBBox},
		{a.ShowMask, &o.ShowMask},
		{a.ShowPose, &o.ShowPose},
		{a.ShowHand, &o.ShowHand},
		{a.ShowCaption, &o.ShowCaption},
	} {
		if f.arg != nil {
			*f.dst = *f.arg
		}
	}
	return o
}

type visualizeResult struct {
	Width      int                   `json:"width"`
	Height     int                   `json:"height"`
	Objects    int                   `json:"objects"`
	Summary    string                `json:"summary"`
	Report     overlay.Report        `json:"report"`
	OutputPath string                `json:"output_path,omitempty"`
	Image      *imaging.EncodedImage `json:"image,omitempty"`
}

func (s *Server) handleDetectionVisualize(args json.RawMessage) (interface{}, error) {
	var a visualizeArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	img, err := s.loadImage(a.imageSource)
	if err != nil {
		return nil, err
	}
	res, err := parseResult(a.Result)
	if err != nil {
		return nil, err
	}

	out, report := s.composer.Visualize(img, res.Objects, a.options(s.defaults))

	b := out.Bounds()
	r := &visualizeResult{
		Width:   b.Dx(),
		Height:  b.Dy(),
		Objects: res.Len(),
		Summary: overlay.Summarize(res.Objects),
		Report:  report,
	}
	if a.OutputPath != "" {
		if err := imaging.Save(out, a.OutputPath); err != nil {
			return nil, err
		}
		r.OutputPath = a.OutputPath
		return r, nil
	}
	if r.Image, err = imaging.EncodePNG(out); err != nil {
		return nil, err
	}
	return r, nil
}

type summarizeArgs struct {
	Result json.RawMessage `json:"result"`
}

func (s *Server) handleDetectionSummarize(args json.RawMessage) (interface{}, error) {
	var a summarizeArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	res, err := parseResult(a.Result)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"objects": res.Len(),
		"summary": overlay.Summarize(res.Objects),
	}, nil
}

type cropObjectArgs struct {
	imageSource
	Result  json.RawMessage `json:"result"`
	Index   int             `json:"index"`
	Padding int             `json:"padding"`
	Scale   float64         `json:"scale"`
}

func (s *Server) handleDetectionCropObject(args json.RawMessage) (interface{}, error) {
	a := cropObjectArgs{Scale: 1.0}
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	img, err := s.loadImage(a.imageSource)
	if err != nil {
		return nil, err
	}
	res, err := parseResult(a.Result)
	if err != nil {
		return nil, err
	}
	if a.Index < 0 || a.Index >= res.Len() {
		return nil, fmt.Errorf("index %d out of range: result has %d objects", a.Index, res.Len())
	}
	obj := &res.Objects[a.Index]
	if err := obj.BBoxErr(); err != nil {
		return nil, fmt.Errorf("object %d: %w", a.Index, err)
	}
	if obj.BBox == nil {
		return nil, fmt.Errorf("object %d has no bbox", a.Index)
	}

	enc, err := imaging.CropObject(img, *obj.BBox, a.Padding, a.Scale)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"index":    a.Index,
		"category": obj.CategoryOr(detection.SummaryCategory),
		"bbox":     obj.BBox,
		"image":    enc,
	}, nil
}

type maskDecodeArgs struct {
	Mask   *rle.RLE `json:"mask"`
	Height int      `json:"height"`
	Width  int      `json:"width"`
}

func (s *Server) handleMaskDecode(args json.RawMessage) (interface{}, error) {
	var a maskDecodeArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	m, err := rle.Decode(a.Mask, a.Height, a.Width)
	if err != nil {
		return nil, err
	}
	enc, err := imaging.EncodePNG(m.Image())
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"height": m.Height,
		"width":  m.Width,
		"area":   m.Area(),
		"image":  enc,
	}, nil
}

// === Analytics Handlers ===

type analyticsIngestArgs struct {
	Result json.RawMessage `json:"result"`

	// DetectionTime is the provider round trip in seconds.
	DetectionTime *float64 `json:"detection_time"`
}

func (s *Server) handleAnalyticsIngest(args json.RawMessage) (interface{}, error) {
	var a analyticsIngestArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	res, err := parseResult(a.Result)
	if err != nil {
		return nil, err
	}
	if a.DetectionTime != nil {
		if *a.DetectionTime < 0 {
			return nil, fmt.Errorf("detection_time must not be negative")
		}
		if *a.DetectionTime > MaxDetectionTime.Seconds() {
			return nil, fmt.Errorf("detection_time must be at most %v seconds", MaxDetectionTime.Seconds())
		}
		s.analytics.IngestWithLatency(res, time.Duration(*a.DetectionTime*float64(time.Second)))
	} else {
		s.analytics.Ingest(res)
	}
	return map[string]interface{}{
		"ingested":      res.Len(),
		"frames":        s.analytics.Frames(),
		"object_counts": s.analytics.ObjectCounts(),
	}, nil
}

type topObjectsArgs struct {
	N *int `json:"n"`
}

func (s *Server) handleAnalyticsTopObjects(args json.RawMessage) (interface{}, error) {
	var a topObjectsArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	n := DefaultTopObjects
	if a.N != nil {
		n = *a.N
	}
	top, err := s.analytics.TopObjects(n)
	if err != nil {
		return nil, err
	}
	if top == nil {
		top = []analytics.CategoryCount{}
	}
	return map[string]interface{}{"top_objects": top}, nil
}

// Package server implements the MCP (Model Context Protocol) server for
// detection visualization and session analytics.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Images:
//   - image_load: Load image and get metadata
//
// Detection results:
//   - detection_visualize: Draw boxes, masks, skeletons and captions
//   - detection_summarize: One line text summary
//   - detection_crop_object: Crop one object's box
//   - mask_decode: Decode a run-length mask to PNG
//
// Session analytics:
//   - analytics_ingest: Add a result to the session
//   - analytics_top_objects: Most frequent categories
//   - analytics_report: Counts, history, timeline and statistics
//   - analytics_reset: Start over
//
// Detection results are accepted as {"objects": [...]}, as a bare array of
// objects, or as either encoded in a JSON string.
//
// # State
//
// Images loaded from a path are cached by path for the lifetime of the
// process. The process also owns exactly one analytics aggregator, so a
// server process is one analytics session.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: Additional error details (typically the Go error string)
//
// A failure while drawing one part of one object is not a tool error. It is
// listed in the stage report of detection_visualize and the rest of the image
// is still drawn.
//
// # Usage
//
//	srv := server.New(server.Options{Config: cfg, Log: log})
//	if err := srv.Run(); err != nil {
//	    log.Fatal(err)
//	}
package server

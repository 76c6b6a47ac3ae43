// Package server implements the MCP (Model Context Protocol) server for
// radiograph screening tools.
//
// The server speaks JSON-RPC 2.0 over stdio, one request per line:
//   - Input: JSON-RPC requests on stdin
//   - Output: JSON-RPC responses on stdout
//
// Logs go to stderr so they never interleave with protocol output.
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
//   - xray_load: Load a capture and describe it
//   - xray_enhance: Grayscale and contrast-stretch a capture
//   - xray_analyze: Run the anomaly screen and return the report
//   - xray_annotate: Return the enhanced frame with the marker drawn on it
//   - xray_zoom_candidate: Crop the enhanced frame around a ranked candidate
//   - xray_unload: Drop a capture from the cache
//
// Every analysis tool takes a path plus optional strategy and
// contrast_level overrides of the server configuration.
//
// # Image Caching
//
// Decoded captures are cached by source string in a bounded LRU with a TTL
// (XRAY_CACHE_SIZE, XRAY_CACHE_TTL). Enhancement always runs on a copy, so
// cached captures are never modified.
//
// # Error Handling
//
//   - -32601: unknown method
//   - -32602: malformed arguments, unknown tool or invalid engine settings
//   - -32000: tool execution failure (fetch, decode, crop)
//
// The Go error string is returned as the error's data.
package server

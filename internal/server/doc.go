// Package server implements the MCP (Model Context Protocol) server for coin
// icon preparation.
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
//   - coin_prep_directory: Convert a directory of coin photos into icons
//   - coin_prep_image: Convert a single photo
//   - coin_sample_seed: Report the color at the background seed pixel
//   - image_info: Read image metadata without decoding pixels
//
// Conversion tools use the configuration the server was created with;
// arguments only override the paths and the ghost and fail-fast switches.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: The Go error string
//
// A directory run in which some images fail is not an error: the failures
// are listed in the returned summary.
//
// # Usage
//
//	srv := server.New(cfg, logger)
//	if err := srv.Run(ctx); err != nil {
//	    logger.Fatal(err)
//	}
package server

// Package models holds the wire types shared by the daemon server and
// its clients.
package models

import "github.com/grovetools/treescope/pkg/tree"

// Stream message types carried over the live update channel.
const (
	MessageConnected = "connected"
	MessageUpdate    = "update"
	MessageError     = "error"
)

// StreamMessage is one discrete message on the live update channel.
// The SSE endpoint and the websocket endpoint both speak this shape.
type StreamMessage struct {
	Type    string     `json:"type"`
	Tree    *tree.Node `json:"tree,omitempty"`
	Message string     `json:"message,omitempty"`
}

// ErrorResponse is the error payload of non-stream endpoints.
type ErrorResponse struct {
	Message string `json:"message"`
}

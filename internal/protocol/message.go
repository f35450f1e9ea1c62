package protocol

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
)

// Message types on the command stream.
const (
	TypeCommandRequest       = "command_request"
	TypeCommandResponse      = "command_response"
	TypeCommandCancelRequest = "command_cancel_request"
)

// Response subtypes.
const (
	SubtypeSuccess              = "success"
	SubtypeError                = "error"
	SubtypeCancelAcknowledgment = "cancel_acknowledgment"
)

// CommandRequest is an incoming command.
//
// Wire format:
//
//	{
//	  "type": "command_request",
//	  "request_id": "01J...",
//	  "request": {
//	    "command": "call_mcp_tool",
//	    "session_id": 7,
//	    "name": "web_search",
//	    "arguments": {}
//	  }
//	}
type CommandRequest struct {
	// Type is always "command_request"
	Type string `json:"type"`

	// RequestID correlates the request with its response
	RequestID string `json:"request_id"` //nolint:tagliatelle // wire format uses snake_case

	// Request holds the command name and its parameters
	Request map[string]any `json:"request"`
}

// Command extracts the command name from the nested request data.
func (r *CommandRequest) Command() string {
	if s, ok := r.Request["command"].(string); ok {
		return s
	}

	return ""
}

// Decode unmarshals the request parameters into v. Numbers landing in
// untyped fields are kept as json.Number.
func (r *CommandRequest) Decode(v any) error {
	data, err := json.Marshal(r.Request)
	if err != nil {
		return fmt.Errorf("marshal %s parameters: %w", r.Command(), err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid %s parameters: %w", r.Command(), err)
	}

	return nil
}

// CommandResponse answers a CommandRequest or a cancel request.
//
// Wire format for success:
//
//	{"type": "command_response", "request_id": "1", "subtype": "success", "response": ...}
//
// Wire format for error:
//
//	{"type": "command_response", "request_id": "1", "subtype": "error", "error": "..."}
type CommandResponse struct {
	// Type is always "command_response"
	Type string `json:"type"`

	RequestID string `json:"request_id"` //nolint:tagliatelle // wire format uses snake_case
	Subtype   string `json:"subtype"`
	Response  any    `json:"response,omitempty"`
	Error     string `json:"error,omitempty"`
}

// IsError reports whether the response carries an error.
func (r *CommandResponse) IsError() bool {
	return r.Subtype == SubtypeError
}

// CancelAcknowledgment is the payload of a cancel_acknowledgment response.
type CancelAcknowledgment struct {
	Found            bool `json:"found"`
	AlreadyCompleted bool `json:"already_completed"` //nolint:tagliatelle // wire format uses snake_case
}

// Handler serves one command. The returned payload is marshaled into the
// success response; an error becomes an error response.
type Handler func(ctx context.Context, req *CommandRequest) (any, error)

package domain

import "encoding/json"

// ToolSchema describes one canvas operation for the provider function-calling
// protocol. InputSchema is a JSON Schema document; adapters re-nest it into
// their vendor's shape.
type ToolSchema struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"input_schema"`
}

// ToolCall is the canonical record of one requested canvas operation,
// identical regardless of the originating vendor format.
type ToolCall struct {
	ID    string         `json:"id"`
	Name  string         `json:"name"`
	Input map[string]any `json:"input"`
}

// ToolResult is the outcome of executing exactly one ToolCall. The result
// list returned to callers has the same length and order as the call list.
type ToolResult struct {
	Tool   string         `json:"tool"`
	Input  map[string]any `json:"input"`
	Result any            `json:"result,omitempty"`
	Error  string         `json:"error,omitempty"`
}

// OK reports whether the call succeeded.
func (r ToolResult) OK() bool { return r.Error == "" }

// CommandResult is what executing a command produces: either tool results or
// a verbatim text reply from the provider (clarification requests).
type CommandResult struct {
	Results        []ToolResult   `json:"results,omitempty"`
	Text           string         `json:"text,omitempty"`
	Provider       string         `json:"provider,omitempty"`
	Classification Classification `json:"classification,omitempty"`
}

package tools

import (
	"context"
	"encoding/json"
	"fmt"
)

// ParamType is the JSON schema type of a parameter.
type ParamType string

const (
	TypeString  ParamType = "string"
	TypeInteger ParamType = "integer"
)

// Param describes one tool argument.
type Param struct {
	Name        string
	Type        ParamType
	Description string
	Required    bool
}

// Tool is a capability offered to the model and to MCP clients.
type Tool interface {
	Name() string
	Description() string
	Params() []Param
	// ReadOnly reports whether the tool leaves external state untouched.
	ReadOnly() bool
	// Execute runs the tool. params is a JSON object matching Params.
	Execute(ctx context.Context, params json.RawMessage) (string, error)
}

// Schema renders params as a JSON schema object.
func Schema(params []Param) map[string]any {
	props := make(map[string]any, len(params))
	required := []string{}
	for _, p := range params {
		prop := map[string]any{"type": string(p.Type)}
		if p.Description != "" {
			prop["description"] = p.Description
		}
		props[p.Name] = prop
		if p.Required {
			required = append(required, p.Name)
		}
	}
	return map[string]any{
		"type":       "object",
		"properties": props,
		"required":   required,
	}
}

// DecodeParams unmarshals params into v. Empty params decode as {}.
func DecodeParams(params json.RawMessage, v any) error {
	if len(params) == 0 || string(params) == "null" {
		params = json.RawMessage("{}")
	}
	if err := json.Unmarshal(params, v); err != nil {
		return fmt.Errorf("invalid params: %w", err)
	}
	return nil
}

// JSONResult renders a tool result as JSON text.
func JSONResult(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to encode result: %w", err)
	}
	return string(b), nil
}

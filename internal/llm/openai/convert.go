package openai

import (
	"encoding/json"
	"fmt"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/shared"

	"github.com/teemow/mailtriage/internal/llm"
)

func toSDKParams(model string, req *llm.Request) (openaisdk.ChatCompletionNewParams, error) {
	msgs, err := toSDKMessages(req.System, req.Messages)
	if err != nil {
		return openaisdk.ChatCompletionNewParams{}, err
	}

	params := openaisdk.ChatCompletionNewParams{
		Model:    shared.ChatModel(model),
		Messages: msgs,
		Tools:    toSDKTools(req.Tools),
	}
	if req.JSONOutput {
		params.ResponseFormat = openaisdk.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}
	return params, nil
}

func toSDKMessages(system string, msgs []llm.Message) ([]openaisdk.ChatCompletionMessageParamUnion, error) {
	out := make([]openaisdk.ChatCompletionMessageParamUnion, 0, len(msgs)+1)
	if system != "" {
		out = append(out, openaisdk.SystemMessage(system))
	}

	for i, m := range msgs {
		switch m.Role {
		case llm.RoleUser:
			out = append(out, openaisdk.UserMessage(m.Content))
		case llm.RoleTool:
			if m.ToolCallID == "" {
				return nil, fmt.Errorf("message %d: tool message without tool call id", i)
			}
			out = append(out, openaisdk.ToolMessage(m.Content, m.ToolCallID))
		case llm.RoleAssistant:
			out = append(out, toSDKAssistant(m))
		default:
			return nil, fmt.Errorf("message %d: unsupported role %q", i, m.Role)
		}
	}
	return out, nil
}

func toSDKAssistant(m llm.Message) openaisdk.ChatCompletionMessageParamUnion {
	if len(m.ToolCalls) == 0 {
		return openaisdk.AssistantMessage(m.Content)
	}

	calls := make([]openaisdk.ChatCompletionMessageToolCallParam, 0, len(m.ToolCalls))
	for _, tc := range m.ToolCalls {
		calls = append(calls, openaisdk.ChatCompletionMessageToolCallParam{
			ID: tc.ID,
			Function: openaisdk.ChatCompletionMessageToolCallFunctionParam{
				Name:      tc.Name,
				Arguments: string(tc.Arguments),
			},
		})
	}

	assistant := &openaisdk.ChatCompletionAssistantMessageParam{ToolCalls: calls}
	if m.Content != "" {
		assistant.Content = openaisdk.ChatCompletionAssistantMessageParamContentUnion{
			OfString: openaisdk.String(m.Content),
		}
	}
	return openaisdk.ChatCompletionMessageParamUnion{OfAssistant: assistant}
}

func toSDKTools(defs []llm.ToolDef) []openaisdk.ChatCompletionToolParam {
	if len(defs) == 0 {
		return nil
	}
	out := make([]openaisdk.ChatCompletionToolParam, 0, len(defs))
	for _, d := range defs {
		fn := shared.FunctionDefinitionParam{
			Name:       d.Name,
			Parameters: shared.FunctionParameters(d.Parameters),
		}
		if d.Description != "" {
			fn.Description = openaisdk.String(d.Description)
		}
		out = append(out, openaisdk.ChatCompletionToolParam{Function: fn})
	}
	return out
}

func fromSDKCompletion(c *openaisdk.ChatCompletion) (*llm.Response, error) {
	if c == nil || len(c.Choices) == 0 {
		return nil, ErrNoChoices
	}

	msg := c.Choices[0].Message
	resp := &llm.Response{
		Content: msg.Content,
		Usage: llm.Usage{
			PromptTokens:     c.Usage.PromptTokens,
			CompletionTokens: c.Usage.CompletionTokens,
		},
	}
	for _, tc := range msg.ToolCalls {
		args := json.RawMessage(tc.Function.Arguments)
		if len(args) == 0 {
			args = json.RawMessage("{}")
		}
		resp.ToolCalls = append(resp.ToolCalls, llm.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: args,
		})
	}
	return resp, nil
}

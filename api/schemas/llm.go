// File: api/schemas/llm.go
package schemas

import (
	"context"
	"encoding/json"
)

// -- Chat Schemas --

// ChatRole identifies the author of a ChatMessage.
type ChatRole string

const (
	RoleSystem    ChatRole = "system"
	RoleUser      ChatRole = "user"
	RoleAssistant ChatRole = "assistant"
)

// ChatMessage is a single entry of a conversation sent to a model.
type ChatMessage struct {
	Role    ChatRole `json:"role"`
	Content string   `json:"content"`
}

// PromptInput is a system/user message pair for one-shot exchanges.
type PromptInput struct {
	System string `json:"system"`
	User   string `json:"user"`
}

// Messages expands the prompt into a two message conversation.
func (p PromptInput) Messages() []ChatMessage {
	return []ChatMessage{
		{Role: RoleSystem, Content: p.System},
		{Role: RoleUser, Content: p.User},
	}
}

// ChatOptions tune a single model request. Backends that cannot enforce a
// response schema ignore it.
type ChatOptions struct {
	ResponseSchema json.RawMessage `json:"responseSchema,omitempty"`
	Temperature    *float64        `json:"temperature,omitempty"`
}

// -- LLM Client Interface --

// LLMClient is the uniform contract over all model backends.
type LLMClient interface {
	// Send performs a one-shot system/user exchange and returns the reply text.
	Send(ctx context.Context, prompt PromptInput, opts ChatOptions) (string, error)
	// Chat sends a full conversation and returns the assistant's reply text.
	Chat(ctx context.Context, messages []ChatMessage, opts ChatOptions) (string, error)
}

// -- Structured Output Schemas --

// ActionArraySchema constrains a reply to a JSON array of actions.
var ActionArraySchema = json.RawMessage(`{
  "type": "array",
  "items": {
    "type": "object",
    "properties": {
      "action": {"type": "string", "enum": ["CLICK", "SET_VALUE", "NAVIGATE", "TAP"]},
      "target": {"type": "string"},
      "value": {"type": "string"}
    },
    "required": ["action", "target"]
  }
}`)

// AgentStepSchema constrains a reply to a loop step object.
var AgentStepSchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "actions": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "action": {"type": "string", "enum": ["CLICK", "SET_VALUE", "NAVIGATE", "TAP"]},
          "target": {"type": "string"},
          "value": {"type": "string"}
        },
        "required": ["action", "target"]
      }
    },
    "done": {"type": "boolean"},
    "reasoning": {"type": "string"}
  },
  "required": ["actions", "done"]
}`)

// Package llm defines the realtime language-model provider contract
// used by the Cheeko agent.
package llm

import "context"

// Tool represents a callable function exposed to the model
type Tool struct {
	Type     string        `json:"type"`
	Function *ToolFunction `json:"function,omitempty"`
}

type ToolFunction struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Parameters  interface{} `json:"parameters"`
}

// ToolCall represents a function tool call emitted by the model
type ToolCall struct {
	ID   string                 `json:"id"`
	Name string                 `json:"name"`
	Args map[string]interface{} `json:"args,omitempty"`
}

// ToolResponse represents a tool result to send back
type ToolResponse struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Result any    `json:"result"`
}

// RealtimeConfig represents a realtime voice session configuration
type RealtimeConfig struct {
	Model        string `json:"model"`
	APIKey       string `json:"apiKey,omitempty"`
	Voice        string `json:"voice,omitempty"`
	Instructions string `json:"instructions,omitempty"`

	// Generation parameters
	Temperature float32 `json:"temperature,omitempty"`
	MaxTokens   int32   `json:"maxTokens,omitempty"`

	// Tools (Function Calling)
	Tools []Tool `json:"tools,omitempty"`

	// WebSearch enables the provider's built-in web search grounding
	WebSearch bool `json:"webSearch,omitempty"`

	// Audio
	OutputAudioTranscription bool   `json:"outputAudioTranscription,omitempty"`
	SpeechLanguageCode       string `json:"speechLanguageCode,omitempty"`
}

// TranscriptionResult represents transcribed session audio
type TranscriptionResult struct {
	Text string `json:"text"`
	Type string `json:"type"` // "input" or "output"
}

// RealtimeProvider is a live, bidirectional voice session with a model.
// Audio in and out is 16-bit little-endian mono PCM; input at 16kHz,
// output at 24kHz.
type RealtimeProvider interface {
	// Connection management
	Connect(ctx context.Context, cfg RealtimeConfig) error
	Disconnect() error
	IsConnected() bool

	// Audio input
	SendAudio(ctx context.Context, audioData []byte) error

	// Messages
	SendText(ctx context.Context, text string) error
	OnAudio(fn func(audio []byte))

	// Tools (Function Calling)
	OnToolCall(fn func(toolCall ToolCall))
	SendToolResponse(ctx context.Context, resp ToolResponse) error

	// Transcription
	OnTranscription(fn func(result TranscriptionResult))

	// Turn lifecycle
	OnInterrupted(fn func())
	OnTurnComplete(fn func())

	// Events
	OnError(fn func(err error))
	OnDisconnect(fn func())
}

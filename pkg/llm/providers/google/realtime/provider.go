// Package realtime implements the Gemini Live API realtime provider.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/altio-ai/cheeko/pkg/llm"
	"google.golang.org/genai"
)

type Provider struct {
	config    llm.RealtimeConfig
	client    *genai.Client
	session   *genai.Session
	connected bool
	mu        sync.RWMutex

	onAudioCb         func([]byte)
	onToolCallCb      func(llm.ToolCall)
	onTranscriptionCb func(llm.TranscriptionResult)
	onInterruptedCb   func()
	onTurnCompleteCb  func()
	onErrorCb         func(error)
	onDisconnectCb    func()
}

func New() *Provider { return &Provider{} }

func (p *Provider) Connect(ctx context.Context, cfg llm.RealtimeConfig) error {
	p.config = cfg
	if p.config.APIKey == "" {
		return fmt.Errorf("API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  p.config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return fmt.Errorf("create client failed: %w", err)
	}
	p.client = client

	model := p.config.Model
	if model == "" {
		model = "models/gemini-2.5-flash-native-audio-preview-09-2025"
	}

	liveCfg := &genai.LiveConnectConfig{}

	// Native-audio model: use audio modality
	if strings.Contains(strings.ToLower(model), "native-audio") {
		voice := p.config.Voice
		if voice == "" {
			voice = "Fenrir"
		}
		liveCfg.ResponseModalities = []genai.Modality{genai.ModalityAudio}
		speechCfg := &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: voice},
			},
		}
		if p.config.SpeechLanguageCode != "" {
			speechCfg.LanguageCode = p.config.SpeechLanguageCode
		}
		liveCfg.SpeechConfig = speechCfg
	} else {
		liveCfg.ResponseModalities = []genai.Modality{genai.ModalityText}
	}

	// Generation parameters
	if p.config.Temperature > 0 {
		liveCfg.Temperature = genai.Ptr[float32](p.config.Temperature)
	}
	if p.config.MaxTokens > 0 {
		liveCfg.MaxOutputTokens = p.config.MaxTokens
	}

	// Tools: built-in search grounding plus function declarations
	var tools []*genai.Tool
	if p.config.WebSearch {
		tools = append(tools, &genai.Tool{GoogleSearch: &genai.GoogleSearch{}})
	}
	if len(p.config.Tools) > 0 {
		decls := make([]*genai.FunctionDeclaration, len(p.config.Tools))
		for i, t := range p.config.Tools {
			decls[i] = &genai.FunctionDeclaration{
				Name:        t.Function.Name,
				Description: t.Function.Description,
				Parameters:  convertToSchema(t.Function.Parameters),
			}
		}
		tools = append(tools, &genai.Tool{FunctionDeclarations: decls})
	}
	if len(tools) > 0 {
		liveCfg.Tools = tools
	}

	// Output transcription
	if p.config.OutputAudioTranscription {
		liveCfg.OutputAudioTranscription = &genai.AudioTranscriptionConfig{}
	}

	// System instruction
	if p.config.Instructions != "" {
		liveCfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: p.config.Instructions}}}
	}

	session, err := p.client.Live.Connect(ctx, model, liveCfg)
	if err != nil {
		return fmt.Errorf("live connect failed: %w", err)
	}

	p.mu.Lock()
	p.session = session
	p.connected = true
	p.mu.Unlock()

	go p.receiveLoop()
	return nil
}

func (p *Provider) Disconnect() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.session != nil {
		p.session.Close()
		p.session = nil
	}
	p.connected = false
	return nil
}

func (p *Provider) IsConnected() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.connected
}

func (p *Provider) SendAudio(ctx context.Context, audioData []byte) error {
	s, ok := p.currentSession()
	if !ok {
		return fmt.Errorf("not connected")
	}
	if len(audioData) == 0 {
		return nil
	}
	return s.SendRealtimeInput(genai.LiveRealtimeInput{
		Audio: &genai.Blob{
			MIMEType: "audio/pcm;rate=16000",
			Data:     audioData,
		},
	})
}

func (p *Provider) SendText(ctx context.Context, text string) error {
	s, ok := p.currentSession()
	if !ok {
		return fmt.Errorf("not connected")
	}
	turn := genai.NewContentFromText(text, genai.RoleUser)
	return s.SendClientContent(genai.LiveClientContentInput{
		Turns:        []*genai.Content{turn},
		TurnComplete: genai.Ptr(true),
	})
}

func (p *Provider) SendToolResponse(ctx context.Context, resp llm.ToolResponse) error {
	s, ok := p.currentSession()
	if !ok {
		return fmt.Errorf("not connected")
	}
	return s.SendToolResponse(genai.LiveToolResponseInput{
		FunctionResponses: []*genai.FunctionResponse{{
			ID:   resp.ID,
			Name: resp.Name,
			Response: map[string]any{
				"output": resp.Result,
			},
		}},
	})
}

func (p *Provider) currentSession() (*genai.Session, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.session, p.connected && p.session != nil
}

// Callback setters
func (p *Provider) OnAudio(fn func([]byte))       { p.mu.Lock(); p.onAudioCb = fn; p.mu.Unlock() }
func (p *Provider) OnToolCall(fn func(llm.ToolCall)) { p.mu.Lock(); p.onToolCallCb = fn; p.mu.Unlock() }
func (p *Provider) OnTranscription(fn func(llm.TranscriptionResult)) {
	p.mu.Lock()
	p.onTranscriptionCb = fn
	p.mu.Unlock()
}
func (p *Provider) OnInterrupted(fn func())  { p.mu.Lock(); p.onInterruptedCb = fn; p.mu.Unlock() }
func (p *Provider) OnTurnComplete(fn func()) { p.mu.Lock(); p.onTurnCompleteCb = fn; p.mu.Unlock() }
func (p *Provider) OnError(fn func(error))   { p.mu.Lock(); p.onErrorCb = fn; p.mu.Unlock() }
func (p *Provider) OnDisconnect(fn func())   { p.mu.Lock(); p.onDisconnectCb = fn; p.mu.Unlock() }

func (p *Provider) receiveLoop() {
	for {
		p.mu.RLock()
		s := p.session
		p.mu.RUnlock()
		if s == nil {
			return
		}
		msg, err := s.Receive()
		if err != nil {
			p.emitError(fmt.Errorf("receive error: %w", err))
			p.emitDisconnect()
			return
		}
		p.processMessage(msg)
	}
}

func (p *Provider) processMessage(msg *genai.LiveServerMessage) {
	if msg == nil {
		return
	}

	// Tool call
	if msg.ToolCall != nil && len(msg.ToolCall.FunctionCalls) > 0 {
		for _, fc := range msg.ToolCall.FunctionCalls {
			if fc.Name == "" {
				continue
			}
			var args map[string]interface{}
			argsJSON, _ := json.Marshal(fc.Args)
			_ = json.Unmarshal(argsJSON, &args)

			if cb := p.toolCallCb(); cb != nil {
				cb(llm.ToolCall{
					ID:   fc.ID,
					Name: fc.Name,
					Args: args,
				})
			}
		}
	}

	if msg.ServerContent == nil {
		return
	}

	// Barge-in: the user started talking over the model
	if msg.ServerContent.Interrupted {
		p.mu.RLock()
		cb := p.onInterruptedCb
		p.mu.RUnlock()
		if cb != nil {
			cb()
		}
	}

	// Server content (streamed audio)
	if msg.ServerContent.ModelTurn != nil {
		for _, part := range msg.ServerContent.ModelTurn.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				p.mu.RLock()
				cb := p.onAudioCb
				p.mu.RUnlock()
				if cb != nil {
					// 24kHz 16-bit mono PCM, streamed chunk by chunk
					cb(part.InlineData.Data)
				}
			}
		}
	}

	// Transcriptions
	if t := msg.ServerContent.InputTranscription; t != nil && t.Text != "" {
		if cb := p.transcriptionCb(); cb != nil {
			cb(llm.TranscriptionResult{Text: t.Text, Type: "input"})
		}
	}
	if t := msg.ServerContent.OutputTranscription; t != nil && t.Text != "" {
		if cb := p.transcriptionCb(); cb != nil {
			cb(llm.TranscriptionResult{Text: t.Text, Type: "output"})
		}
	}

	if msg.ServerContent.TurnComplete || msg.ServerContent.GenerationComplete {
		p.mu.RLock()
		cb := p.onTurnCompleteCb
		p.mu.RUnlock()
		if cb != nil {
			cb()
		}
	}
}

func (p *Provider) toolCallCb() func(llm.ToolCall) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.onToolCallCb
}

func (p *Provider) transcriptionCb() func(llm.TranscriptionResult) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.onTranscriptionCb
}

func (p *Provider) emitError(err error) {
	p.mu.RLock()
	cb := p.onErrorCb
	p.mu.RUnlock()
	if cb != nil {
		cb(err)
	}
}

func (p *Provider) emitDisconnect() {
	p.mu.Lock()
	p.connected = false
	p.mu.Unlock()
	p.mu.RLock()
	cb := p.onDisconnectCb
	p.mu.RUnlock()
	if cb != nil {
		cb()
	}
}

// convertToSchema converts interface{} parameters to *genai.Schema
func convertToSchema(params interface{}) *genai.Schema {
	if params == nil {
		return nil
	}

	if m, ok := params.(map[string]interface{}); ok {
		return mapToSchema(m)
	}

	// If it's already a JSON string, try to unmarshal
	if s, ok := params.(string); ok {
		var m map[string]interface{}
		if err := json.Unmarshal([]byte(s), &m); err == nil {
			return mapToSchema(m)
		}
	}

	return nil
}

func mapToSchema(m map[string]interface{}) *genai.Schema {
	if m == nil {
		return nil
	}

	schema := &genai.Schema{}

	if t, ok := m["type"].(string); ok {
		schema.Type = genai.Type(strings.ToUpper(t))
	}

	if desc, ok := m["description"].(string); ok {
		schema.Description = desc
	}

	if props, ok := m["properties"].(map[string]interface{}); ok {
		schema.Properties = make(map[string]*genai.Schema)
		for k, v := range props {
			if propMap, ok := v.(map[string]interface{}); ok {
				schema.Properties[k] = mapToSchema(propMap)
			}
		}
	}

	if required, ok := m["required"].([]interface{}); ok {
		schema.Required = make([]string, len(required))
		for i, r := range required {
			if s, ok := r.(string); ok {
				schema.Required[i] = s
			}
		}
	}

	return schema
}

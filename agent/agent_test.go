package agent

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pion/interceptor"
	"github.com/pion/rtp"

	"github.com/altio-ai/cheeko/media"
	"github.com/altio-ai/cheeko/pkg/config"
	"github.com/altio-ai/cheeko/pkg/llm"
)

// fakeProvider records callbacks and tool responses for wiring tests.
type fakeProvider struct {
	mu            sync.Mutex
	onToolCall    func(llm.ToolCall)
	onInterrupted func()
	responses     chan llm.ToolResponse
	audioCtx      chan context.Context
	connected     bool
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		responses: make(chan llm.ToolResponse, 4),
		audioCtx:  make(chan context.Context, 1),
		connected: true,
	}
}

func (f *fakeProvider) Connect(ctx context.Context, cfg llm.RealtimeConfig) error { return nil }
func (f *fakeProvider) Disconnect() error                                         { return nil }
func (f *fakeProvider) IsConnected() bool                                         { return f.connected }
func (f *fakeProvider) SendAudio(ctx context.Context, audio []byte) error {
	select {
	case f.audioCtx <- ctx:
	default:
	}
	return ctx.Err()
}
func (f *fakeProvider) SendText(ctx context.Context, text string) error           { return nil }
func (f *fakeProvider) OnAudio(fn func([]byte))                                   {}
func (f *fakeProvider) OnTranscription(fn func(llm.TranscriptionResult))          {}
func (f *fakeProvider) OnTurnComplete(fn func())                                  {}
func (f *fakeProvider) OnError(fn func(error))                                    {}
func (f *fakeProvider) OnDisconnect(fn func())                                    {}

func (f *fakeProvider) OnToolCall(fn func(llm.ToolCall)) {
	f.mu.Lock()
	f.onToolCall = fn
	f.mu.Unlock()
}

func (f *fakeProvider) OnInterrupted(fn func()) {
	f.mu.Lock()
	f.onInterrupted = fn
	f.mu.Unlock()
}

func (f *fakeProvider) SendToolResponse(ctx context.Context, resp llm.ToolResponse) error {
	f.responses <- resp
	return nil
}

type echoTool struct{}

func (echoTool) Name() string                       { return "echo" }
func (echoTool) Description() string                { return "echoes" }
func (echoTool) Parameters() map[string]interface{} { return map[string]interface{}{"type": "object"} }
func (echoTool) Execute(ctx context.Context, args map[string]interface{}) string {
	return "echoed"
}

func TestToolCallRoundTrip(t *testing.T) {
	fp := newFakeProvider()
	s := NewSession(&config.Config{}, fp)
	s.registry.Register(echoTool{})
	s.wireProvider(context.Background())

	fp.onToolCall(llm.ToolCall{ID: "call-1", Name: "echo"})

	select {
	case resp := <-fp.responses:
		if resp.ID != "call-1" || resp.Name != "echo" {
			t.Errorf("Unexpected response envelope: %+v", resp)
		}
		if resp.Result != "echoed" {
			t.Errorf("Expected tool result, got %v", resp.Result)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Tool response never arrived")
	}
}

func TestUnknownToolStaysInCharacter(t *testing.T) {
	fp := newFakeProvider()
	s := NewSession(&config.Config{}, fp)
	s.wireProvider(context.Background())

	fp.onToolCall(llm.ToolCall{ID: "call-2", Name: "nonexistent"})

	select {
	case resp := <-fp.responses:
		result, _ := resp.Result.(string)
		if result == "" {
			t.Error("Unknown tool should still produce a spoken line")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Tool response never arrived")
	}
}

func TestInterruptResetsEncoder(t *testing.T) {
	enc, err := media.NewEncoder()
	if err != nil {
		t.Skipf("opus encoder unavailable: %v", err)
	}

	fp := newFakeProvider()
	s := NewSession(&config.Config{}, fp)
	s.encoder = enc
	s.wireProvider(context.Background())

	// Feed most of a frame, interrupt, then feed most of a frame
	// again. If the stale samples survived the interrupt the second
	// chunk would complete a frame.
	partial := make([]byte, 900) // ~900 of the 960 samples a frame needs after upsampling
	if _, err := enc.Encode(partial); err != nil {
		t.Fatal(err)
	}
	fp.onInterrupted()

	frames, err := enc.Encode(partial)
	if err != nil {
		t.Fatal(err)
	}
	if len(frames) != 0 {
		t.Errorf("Expected no frames after reset, got %d", len(frames))
	}
}

// scriptedSource cycles pre-encoded opus frames forever, the way a
// live track keeps delivering packets.
type scriptedSource struct {
	frames [][]byte
	idx    int
}

func (s *scriptedSource) ReadRTP() (*rtp.Packet, interceptor.Attributes, error) {
	frame := s.frames[s.idx%len(s.frames)]
	s.idx++
	time.Sleep(2 * time.Millisecond)
	return &rtp.Packet{Payload: frame}, nil, nil
}

func TestAudioPumpStopsWithSession(t *testing.T) {
	enc, err := media.NewEncoder()
	if err != nil {
		t.Skipf("opus encoder unavailable: %v", err)
	}
	dec, err := media.NewDecoder()
	if err != nil {
		t.Skipf("opus decoder unavailable: %v", err)
	}

	// Real encoded frames so the pump's decoder accepts the payload
	frames, err := enc.Encode(make([]byte, 4096))
	if err != nil {
		t.Fatal(err)
	}
	if len(frames) == 0 {
		t.Fatal("Expected at least one encoded frame")
	}

	fp := newFakeProvider()
	s := NewSession(&config.Config{}, fp)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		s.pumpAudio(ctx, &scriptedSource{frames: frames}, dec, "test-track")
		close(done)
	}()

	var audioCtx context.Context
	select {
	case audioCtx = <-fp.audioCtx:
	case <-time.After(2 * time.Second):
		t.Fatal("Pump never forwarded audio")
	}
	if audioCtx.Err() != nil {
		t.Fatal("Forwarding context ended before the session did")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Error("Pump kept running after the session context ended")
	}
	if audioCtx.Err() == nil {
		t.Error("Audio is not forwarded under the session context")
	}
}

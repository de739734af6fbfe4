// Package agent runs a Cheeko voice session: it joins a LiveKit room,
// resolves who it is talking to, opens a Gemini Live session with the
// Cheeko persona and bridges audio between the two until either side
// hangs up.
package agent

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/livekit/protocol/livekit"
	lksdk "github.com/livekit/server-sdk-go/v2"
	"github.com/pion/interceptor"
	"github.com/pion/rtp"
	"github.com/pion/webrtc/v4"
	webrtcmedia "github.com/pion/webrtc/v4/pkg/media"

	"github.com/altio-ai/cheeko/media"
	"github.com/altio-ai/cheeko/pkg/config"
	"github.com/altio-ai/cheeko/pkg/llm"
	"github.com/altio-ai/cheeko/spytools"
)

// Session is one agent run in one room.
type Session struct {
	cfg      *config.Config
	provider llm.RealtimeProvider
	registry *spytools.Registry
	roster   *RoomRoster

	room  *lksdk.Room
	track *lksdk.LocalSampleTrack

	encMu   sync.Mutex
	encoder *media.Encoder

	done     chan struct{}
	doneOnce sync.Once
}

func NewSession(cfg *config.Config, provider llm.RealtimeProvider) *Session {
	return &Session{
		cfg:      cfg,
		provider: provider,
		registry: spytools.NewRegistry(),
		roster:   NewRoomRoster(),
		done:     make(chan struct{}),
	}
}

// Run drives the session to completion. It returns when the room
// disconnects, the model session drops, or ctx is cancelled.
func (s *Session) Run(ctx context.Context) error {
	if !s.cfg.HasLiveKit() {
		return fmt.Errorf("LiveKit credentials not configured")
	}
	if s.cfg.GeminiAPIKey == "" {
		return fmt.Errorf("GOOGLE_API_KEY not configured")
	}
	if s.cfg.RoomName == "" {
		return fmt.Errorf("no room to join, set CHEEKO_ROOM")
	}

	enc, err := media.NewEncoder()
	if err != nil {
		return err
	}
	s.encoder = enc

	// Spy tools come up first so their auth state is known before the
	// session prompt is built
	spy := spytools.NewManager(s.cfg)
	status := spy.Initialize(ctx)
	log.Printf("[Agent] spy tools ready: google=%v github=%v", status["google"], status["github"])
	spy.RegisterTools(s.registry)

	cb := s.roster.Callback(func(track *webrtc.TrackRemote, pub *lksdk.RemoteTrackPublication, rp *lksdk.RemoteParticipant) {
		s.handleTrack(ctx, track, rp)
	})
	cb.OnDisconnected = func() {
		log.Printf("[Agent] room disconnected")
		s.finish()
	}

	identity := "cheeko-agent-" + uuid.NewString()[:8]
	room, err := lksdk.ConnectToRoom(s.cfg.LiveKitURL, lksdk.ConnectInfo{
		APIKey:              s.cfg.LiveKitAPIKey,
		APISecret:           s.cfg.LiveKitAPISecret,
		RoomName:            s.cfg.RoomName,
		ParticipantIdentity: identity,
		ParticipantName:     "Cheeko",
	}, cb, lksdk.WithAutoSubscribe(true))
	if err != nil {
		return fmt.Errorf("connect to room %s: %w", s.cfg.RoomName, err)
	}
	s.room = room
	s.roster.SetRoom(room)
	defer room.Disconnect()
	log.Printf("[Agent] joined room %s as %s", s.cfg.RoomName, identity)

	if err := s.publishVoiceTrack(); err != nil {
		return err
	}

	// Who are we talking to? Falls back to defaults on timeout.
	profile := ResolveUserProfile(ctx, s.roster, s.cfg.MetadataTimeout)
	now := time.Now().In(istLocation())
	log.Printf("[Agent] session for %s (%s, %s)", profile.Name(), profile.City(), profile.Profession())

	s.wireProvider(ctx)

	err = s.provider.Connect(ctx, llm.RealtimeConfig{
		Model:                    s.cfg.RealtimeModel,
		APIKey:                   s.cfg.GeminiAPIKey,
		Voice:                    s.cfg.Voice,
		Instructions:             BuildInstructions(profile, now),
		Temperature:              0.8,
		Tools:                    s.registry.Specs(),
		WebSearch:                true,
		OutputAudioTranscription: true,
	})
	if err != nil {
		return fmt.Errorf("connect realtime session: %w", err)
	}
	defer s.provider.Disconnect()

	// Cheeko speaks first
	if err := s.provider.SendText(ctx, GreetingInstruction(profile, now)); err != nil {
		log.Printf("[Agent] greeting failed: %v", err)
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		return nil
	}
}

func (s *Session) publishVoiceTrack() error {
	track, err := lksdk.NewLocalSampleTrack(webrtc.RTPCodecCapability{
		MimeType:  webrtc.MimeTypeOpus,
		ClockRate: media.RoomSampleRate,
		Channels:  1,
	})
	if err != nil {
		return fmt.Errorf("create voice track: %w", err)
	}
	_, err = s.room.LocalParticipant.PublishTrack(track, &lksdk.TrackPublicationOptions{
		Name:   "cheeko-voice",
		Source: livekit.TrackSource_MICROPHONE,
	})
	if err != nil {
		return fmt.Errorf("publish voice track: %w", err)
	}
	s.track = track
	return nil
}

// wireProvider hooks the model session's events into the room.
func (s *Session) wireProvider(ctx context.Context) {
	s.provider.OnAudio(func(pcm []byte) {
		s.encMu.Lock()
		frames, err := s.encoder.Encode(pcm)
		s.encMu.Unlock()
		if err != nil {
			log.Printf("[Agent] encode failed: %v", err)
			return
		}
		for _, frame := range frames {
			sample := webrtcmedia.Sample{
				Data:     frame,
				Duration: time.Duration(media.FrameDuration) * time.Millisecond,
			}
			if err := s.track.WriteSample(sample, nil); err != nil {
				log.Printf("[Agent] write sample failed: %v", err)
				return
			}
		}
	})

	// Barge-in: drop anything queued so the stale reply never plays
	s.provider.OnInterrupted(func() {
		s.encMu.Lock()
		s.encoder.Reset()
		s.encMu.Unlock()
		log.Printf("[Agent] interrupted by user")
	})

	s.provider.OnToolCall(func(tc llm.ToolCall) {
		go func() {
			result := s.registry.CallTool(ctx, tc.Name, tc.Args)
			err := s.provider.SendToolResponse(ctx, llm.ToolResponse{
				ID:     tc.ID,
				Name:   tc.Name,
				Result: result,
			})
			if err != nil {
				log.Printf("[Agent] tool response failed: %v", err)
			}
		}()
	})

	s.provider.OnTranscription(func(tr llm.TranscriptionResult) {
		log.Printf("[Agent] %s transcript: %s", tr.Type, tr.Text)
	})

	s.provider.OnError(func(err error) {
		log.Printf("[Agent] session error: %v", err)
	})

	s.provider.OnDisconnect(func() {
		log.Printf("[Agent] model session closed")
		s.finish()
	})
}

// handleTrack pumps a subscribed remote audio track into the model
// until the track closes or the session context ends.
func (s *Session) handleTrack(ctx context.Context, track *webrtc.TrackRemote, rp *lksdk.RemoteParticipant) {
	if track.Kind() != webrtc.RTPCodecTypeAudio {
		return
	}
	if strings.Contains(strings.ToLower(rp.Identity()), "agent") {
		return
	}
	log.Printf("[Agent] listening to %s (%s)", rp.Identity(), track.Codec().MimeType)

	dec, err := media.NewDecoder()
	if err != nil {
		log.Printf("[Agent] decoder init failed: %v", err)
		return
	}

	go s.pumpAudio(ctx, track, dec, track.ID())
}

// audioSource is the slice of webrtc.TrackRemote the pump reads from.
type audioSource interface {
	ReadRTP() (*rtp.Packet, interceptor.Attributes, error)
}

func (s *Session) pumpAudio(ctx context.Context, src audioSource, dec *media.Decoder, id string) {
	for ctx.Err() == nil {
		pkt, _, err := src.ReadRTP()
		if err != nil {
			log.Printf("[Agent] track %s closed: %v", id, err)
			return
		}
		if len(pkt.Payload) == 0 {
			continue
		}
		pcm, err := dec.Decode(pkt.Payload)
		if err != nil {
			log.Printf("[Agent] decode failed: %v", err)
			continue
		}
		if len(pcm) == 0 || !s.provider.IsConnected() {
			continue
		}
		if err := s.provider.SendAudio(ctx, pcm); err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("[Agent] send audio failed: %v", err)
		}
	}
}

func (s *Session) finish() {
	s.doneOnce.Do(func() { close(s.done) })
}

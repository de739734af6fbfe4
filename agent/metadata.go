package agent

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"sync"
	"time"
)

const (
	// DefaultMetadataTimeout bounds how long a session waits for the
	// connecting user to advertise identifying metadata.
	DefaultMetadataTimeout = 8 * time.Second

	// metadataPollInterval is the safety-net rescan cadence in case an
	// event notification is missed.
	metadataPollInterval = 500 * time.Millisecond
)

// placeholderNames are frontend defaults that must never be adopted as
// the user's real display name.
var placeholderNames = map[string]bool{
	"User":      true,
	"null":      true,
	"undefined": true,
}

// ResolveUserProfile waits for a non-agent participant to join the
// room and publish identifying metadata, merging whatever partial
// fields show up, and returns a fully populated profile within the
// given time budget. It never fails: on timeout the profile learned so
// far (defaults included) is returned.
//
// Resolution is complete as soon as an eligible participant's metadata
// string parses as a JSON object, regardless of which fields it
// carries. A participant that has only published a display name keeps
// the routine waiting, since richer metadata may still arrive.
//
// Three signal sources drive resolution: a synchronous scan of the
// participants already present, join/metadata-changed events, and the
// polling loop. Checks are idempotent, so racing signals for the same
// participant merge harmlessly; the last truthy value for a key wins.
func ResolveUserProfile(ctx context.Context, roster Roster, timeout time.Duration) *UserProfile {
	if timeout <= 0 {
		timeout = DefaultMetadataTimeout
	}

	profile := NewUserProfile()

	// The profile is handed off to the caller exactly once. finished
	// marks that moment so event callbacks still in flight (a roster
	// dispatch snapshots its subscribers before delivering) can no
	// longer mutate it.
	var mu sync.Mutex
	finished := false
	done := make(chan struct{})
	var once sync.Once
	complete := func() { once.Do(func() { close(done) }) }

	check := func(p Participant) bool {
		if !eligibleParticipant(p) {
			return false
		}
		mu.Lock()
		defer mu.Unlock()
		if finished {
			return false
		}
		if extractParticipant(profile, p) {
			finished = true
			return true
		}
		return false
	}

	handoff := func() *UserProfile {
		mu.Lock()
		finished = true
		mu.Unlock()
		return profile
	}

	onEvent := func(p Participant) {
		if check(p) {
			complete()
		}
	}
	releaseJoin := roster.OnParticipantJoined(onEvent)
	defer releaseJoin()
	releaseMeta := roster.OnMetadataChanged(onEvent)
	defer releaseMeta()

	// Participants already in the room
	for _, p := range roster.Participants() {
		if check(p) {
			return handoff()
		}
	}

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(metadataPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return handoff()
		case <-ctx.Done():
			log.Printf("[Metadata] context canceled, returning profile accumulated so far")
			return handoff()
		case <-deadline.C:
			log.Printf("[Metadata] timeout (%v) waiting for user metadata, using defaults", timeout)
			return handoff()
		case <-ticker.C:
			for _, p := range roster.Participants() {
				if check(p) {
					return handoff()
				}
			}
		}
	}
}

// eligibleParticipant reports whether a participant may be treated as
// the user. The agent's own identity must never be.
func eligibleParticipant(p Participant) bool {
	return !strings.Contains(strings.ToLower(p.Identity()), "agent")
}

// extractParticipant folds a participant's name and metadata into the
// profile and reports whether resolution is complete. Caller holds the
// profile lock.
func extractParticipant(profile *UserProfile, p Participant) bool {
	if name := p.Name(); name != "" && !placeholderNames[name] {
		profile.Set("name", name)
	}

	raw := p.Metadata()
	if raw == "" {
		return false
	}

	var data map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		// Not fatal: treat as "no metadata yet" and keep waiting
		log.Printf("[Metadata] failed to parse metadata for %s: %v", p.Identity(), err)
		return false
	}

	profile.Merge(data)
	log.Printf("[Metadata] merged metadata from %s: name=%s city=%s profession=%s",
		p.Identity(), profile.Name(), profile.City(), profile.Profession())
	return true
}

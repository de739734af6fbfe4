package agent

import (
	"sync"

	lksdk "github.com/livekit/server-sdk-go/v2"
	"github.com/pion/webrtc/v4"
)

// Participant is the read-only view of a room participant that the
// metadata resolver needs.
type Participant interface {
	Identity() string
	Name() string
	Metadata() string
}

// Roster exposes a room's remote participants plus join and
// metadata-change notifications. Subscriptions are scoped: the
// returned release func must be called when the listener is no longer
// wanted, so repeated resolutions never leak handlers.
type Roster interface {
	Participants() []Participant
	OnParticipantJoined(fn func(Participant)) (release func())
	OnMetadataChanged(fn func(Participant)) (release func())
}

// RoomRoster adapts a LiveKit room to the Roster interface. The SDK
// only accepts callbacks at connect time, so the roster owns a single
// set of room callbacks and fans events out to scoped subscribers.
type RoomRoster struct {
	mu       sync.Mutex
	room     *lksdk.Room
	nextID   int
	joinSubs map[int]func(Participant)
	metaSubs map[int]func(Participant)
}

func NewRoomRoster() *RoomRoster {
	return &RoomRoster{
		joinSubs: make(map[int]func(Participant)),
		metaSubs: make(map[int]func(Participant)),
	}
}

// Callback builds the lksdk room callback set that feeds this roster.
// onTrack receives subscribed remote audio tracks.
func (r *RoomRoster) Callback(onTrack func(track *webrtc.TrackRemote, publication *lksdk.RemoteTrackPublication, rp *lksdk.RemoteParticipant)) *lksdk.RoomCallback {
	return &lksdk.RoomCallback{
		OnParticipantConnected: func(rp *lksdk.RemoteParticipant) {
			r.dispatchJoin(rp)
		},
		ParticipantCallback: lksdk.ParticipantCallback{
			OnMetadataChanged: func(oldMetadata string, p lksdk.Participant) {
				r.dispatchMetadata(p)
			},
			OnTrackSubscribed: onTrack,
		},
	}
}

// SetRoom attaches the connected room. Must be called before
// Participants is used; events arriving earlier are dispatched to
// subscribers regardless.
func (r *RoomRoster) SetRoom(room *lksdk.Room) {
	r.mu.Lock()
	r.room = room
	r.mu.Unlock()
}

func (r *RoomRoster) Participants() []Participant {
	r.mu.Lock()
	room := r.room
	r.mu.Unlock()
	if room == nil {
		return nil
	}
	remotes := room.GetRemoteParticipants()
	out := make([]Participant, 0, len(remotes))
	for _, rp := range remotes {
		out = append(out, rp)
	}
	return out
}

func (r *RoomRoster) OnParticipantJoined(fn func(Participant)) func() {
	r.mu.Lock()
	id := r.nextID
	r.nextID++
	r.joinSubs[id] = fn
	r.mu.Unlock()
	return func() {
		r.mu.Lock()
		delete(r.joinSubs, id)
		r.mu.Unlock()
	}
}

func (r *RoomRoster) OnMetadataChanged(fn func(Participant)) func() {
	r.mu.Lock()
	id := r.nextID
	r.nextID++
	r.metaSubs[id] = fn
	r.mu.Unlock()
	return func() {
		r.mu.Lock()
		delete(r.metaSubs, id)
		r.mu.Unlock()
	}
}

func (r *RoomRoster) dispatchJoin(p Participant) {
	for _, fn := range r.snapshot(&r.joinSubs) {
		fn(p)
	}
}

func (r *RoomRoster) dispatchMetadata(p Participant) {
	for _, fn := range r.snapshot(&r.metaSubs) {
		fn(p)
	}
}

// snapshot copies a subscriber map so dispatch never runs callbacks
// while holding the roster lock.
func (r *RoomRoster) snapshot(subs *map[int]func(Participant)) []func(Participant) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]func(Participant), 0, len(*subs))
	for _, fn := range *subs {
		out = append(out, fn)
	}
	return out
}

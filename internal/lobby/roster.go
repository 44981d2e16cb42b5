package lobby

import (
	"sync"

	"github.com/DoyleJ11/duel-draft-backend/internal/engine"
)

type FrameKind string

const (
	FrameEvent   FrameKind = "Event"
	FrameRequest FrameKind = "Request"
	FrameJoined  FrameKind = "Joined"
	FrameError   FrameKind = "Error"
)

// Frame is one outbound message for a single client.
type Frame struct {
	Kind    FrameKind
	Event   engine.EventType
	Seat    string
	Payload string
}

type member struct {
	id     string
	seat   engine.Seat
	seated bool
	outbox chan Frame
}

// roster fans frames out to the room's clients. It is the draft's Room: the
// coordinator calls it while holding its own lock, so every send is
// non-blocking and a client that cannot keep up is dropped.
type roster struct {
	mu      sync.Mutex
	members map[string]*member
}

func newRoster() *roster {
	return &roster{members: make(map[string]*member)}
}

func (r *roster) add(m *member) {
	r.mu.Lock()
	r.members[m.id] = m
	r.mu.Unlock()
}

func (r *roster) remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.members[id]; ok {
		r.drop(m)
	}
}

func (r *roster) unseat(id string) {
	r.mu.Lock()
	if m, ok := r.members[id]; ok {
		m.seated = false
	}
	r.mu.Unlock()
}

func (r *roster) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.members)
}

func (r *roster) sendTo(id string, f Frame) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.members[id]; ok {
		r.send(m, f)
	}
}

func (r *roster) closeAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.members {
		r.drop(m)
	}
}

func (r *roster) Broadcast(ev engine.Event) {
	f := eventFrame(FrameEvent, ev)
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.members {
		if ev.Audience == engine.AudienceOthers && m.seated && m.seat == ev.Seat {
			continue
		}
		r.send(m, f)
	}
}

func (r *roster) Notify(seat engine.Seat, ev engine.Event) {
	r.toSeat(seat, eventFrame(FrameEvent, ev))
}

func (r *roster) Request(seat engine.Seat, ev engine.Event) {
	r.toSeat(seat, eventFrame(FrameRequest, ev))
}

func (r *roster) toSeat(seat engine.Seat, f Frame) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.members {
		if m.seated && m.seat == seat {
			r.send(m, f)
		}
	}
}

// send must be called with mu held.
func (r *roster) send(m *member, f Frame) {
	select {
	case m.outbox <- f:
	default:
		// Client is slow/full - drop them.
		r.drop(m)
	}
}

func (r *roster) drop(m *member) {
	close(m.outbox)
	delete(r.members, m.id)
}

func eventFrame(kind FrameKind, ev engine.Event) Frame {
	f := Frame{Kind: kind, Event: ev.Type, Payload: ev.Payload}
	if ev.Type == engine.EvtTakeGeneral || ev.Type == engine.EvtArranged || kind == FrameRequest {
		f.Seat = ev.Seat.Group()
	}
	return f
}

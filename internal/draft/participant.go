package draft

import (
	"math/rand/v2"
	"slices"
	"sync"

	"github.com/DoyleJ11/duel-draft-backend/internal/engine"
	"go.uber.org/atomic"
)

// Room is the outbound side of a draft: fan-out to the room's clients and
// single-target delivery to a seat. Implementations must not block and must
// not call back into the Coordinator.
type Room interface {
	// Broadcast delivers ev to everyone, or to everyone but ev.Seat when
	// ev.Audience is engine.AudienceOthers.
	Broadcast(ev engine.Event)
	// Notify delivers a private event to seat.
	Notify(seat engine.Seat, ev engine.Event)
	// Request asks seat for an answer that arrives later through
	// Coordinator.DeliverChoice or Coordinator.DeliverArrangement.
	Request(seat engine.Seat, ev engine.Event)
}

// GeneralPool supplies distinct candidate generals.
type GeneralPool interface {
	Random(rng *rand.Rand, n int, banned []string) ([]string, error)
}

// Participant is one of the two seats in a room. The room owns it and keeps
// it after the draft; the coordinator appends picks and stores the
// arrangement.
type Participant struct {
	ID   string
	Seat engine.Seat

	online *atomic.Bool

	mu       sync.Mutex
	selected []string
	shown    []string // selected as the opponent saw them
	general  string
	reserve  *[2]string
}

func NewParticipant(id string, seat engine.Seat) *Participant {
	return &Participant{ID: id, Seat: seat, online: atomic.NewBool(false)}
}

func (p *Participant) Online() bool { return p.online.Load() }

func (p *Participant) SetOnline(online bool) { p.online.Store(online) }

// Selected returns a copy of the generals taken so far, in pick order.
func (p *Participant) Selected() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.selected)
}

// Shown returns the generals taken so far as they were announced to the
// opponent: hidden picks stay as their placeholders.
func (p *Participant) Shown() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.shown)
}

// General is the arranged primary general, empty until arranged.
func (p *Participant) General() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.general
}

// Reserve returns the two arranged backups.
func (p *Participant) Reserve() ([2]string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.reserve == nil {
		return [2]string{}, false
	}
	return *p.reserve, true
}

func (p *Participant) addSelected(name, shown string) {
	p.mu.Lock()
	p.selected = append(p.selected, name)
	p.shown = append(p.shown, shown)
	p.mu.Unlock()
}

func (p *Participant) setArrangement(arranged []string) {
	p.mu.Lock()
	p.general = arranged[0]
	p.reserve = &[2]string{arranged[1], arranged[2]}
	p.mu.Unlock()
}

// reset clears draft results so the seat can draft again.
func (p *Participant) reset() {
	p.mu.Lock()
	p.selected = nil
	p.shown = nil
	p.general = ""
	p.reserve = nil
	p.mu.Unlock()
}

package engine

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

var ErrWrongTurn = errors.New("invalid turn")
var ErrNotInPool = errors.New("general not in pool")
var ErrBadArrangement = errors.New("illegal arrangement")
var ErrDraftComplete = errors.New("draft already completed")
var ErrBadIdentifier = errors.New("malformed general identifier")

// ArrangeSize is how many of the selected generals a seat lines up.
const ArrangeSize = 3

type Seat int

const (
	SeatWarm Seat = iota // first actor, lord
	SeatCool
)

var Seats = [2]Seat{SeatWarm, SeatCool}

// Group is the team tag carried on every takeGeneral payload.
func (s Seat) Group() string {
	if s == SeatWarm {
		return "warm"
	}
	return "cool"
}

func (s Seat) String() string { return s.Group() }

func (s Seat) Other() Seat {
	if s == SeatWarm {
		return SeatCool
	}
	return SeatWarm
}

func ParseSeat(group string) (Seat, bool) {
	switch group {
	case "warm":
		return SeatWarm, true
	case "cool":
		return SeatCool, true
	default:
		return 0, false
	}
}

// Identifier is a working identifier in the pool: either a publicly named
// general or a hidden placeholder that is revealed when taken.
type Identifier struct {
	Name   string
	Index  int
	Hidden bool
}

func Known(name string) Identifier { return Identifier{Name: name} }

func Hidden(index int) Identifier { return Identifier{Index: index, Hidden: true} }

func (id Identifier) String() string {
	if id.Hidden {
		return "x" + strconv.Itoa(id.Index)
	}
	return id.Name
}

// ParseIdentifier decodes the wire form: "x<n>" with n in canonical decimal
// is a placeholder, anything else a known general.
func ParseIdentifier(raw string) (Identifier, error) {
	if raw == "" {
		return Identifier{}, ErrBadIdentifier
	}
	if rest, ok := strings.CutPrefix(raw, "x"); ok && rest != "" {
		// Atoi accepts signs and leading zeros; only the form String
		// produces counts as a placeholder.
		if n, err := strconv.Atoi(rest); err == nil && n >= 0 && Hidden(n).String() == raw {
			return Hidden(n), nil
		}
	}
	return Known(raw), nil
}

type EventType string

const (
	EvtFillGenerals   EventType = "fillGenerals"
	EvtAskForGeneral  EventType = "askForGeneral1v1"
	EvtTakeGeneral    EventType = "takeGeneral"
	EvtRecoverGeneral EventType = "recoverGeneral"
	EvtStartArrange   EventType = "startArrange"
	EvtArranged       EventType = "arranged"
	EvtDraftFinished  EventType = "draftFinished"
)

type Audience int

const (
	AudienceAll    Audience = iota
	AudienceOthers          // everyone except Seat
	AudienceSeat            // only Seat
)

type Event struct {
	Type     EventType
	Audience Audience
	Seat     Seat
	Payload  string
}

// State is the working draft: the pool of working identifiers, the true
// names behind the placeholders, and the cursor into Order.
type State struct {
	Pool   []Identifier
	Hidden []string
	Order  []Seat
	Cursor int
}

// NewState splits generals into known and hidden: the last hiddenCount
// entries are replaced with placeholders x0..x(hiddenCount-1).
func NewState(generals []string, hiddenCount int) State {
	if hiddenCount < 0 || hiddenCount > len(generals) {
		panic(fmt.Sprintf("engine: hidden count %d out of range for %d generals", hiddenCount, len(generals)))
	}
	split := len(generals) - hiddenCount

	pool := make([]Identifier, 0, len(generals))
	for _, name := range generals[:split] {
		pool = append(pool, Known(name))
	}
	for i := range hiddenCount {
		pool = append(pool, Hidden(i))
	}

	return State{
		Pool:   pool,
		Hidden: slices.Clone(generals[split:]),
		Order:  DraftOrder(len(generals)),
	}
}

// Roster is the fillGenerals payload, e.g. "G1+G2+...+G6+x0+x1+x2+x3".
func (s State) Roster() string {
	return strings.Join(lo.Map(s.Pool, func(id Identifier, _ int) string { return id.String() }), "+")
}

func (s State) Remaining() int { return len(s.Pool) }

// Forced reports whether the next pick is the forced remainder.
func (s State) Forced() bool { return len(s.Pool) == 1 }

func (s State) Done() bool { return len(s.Pool) == 0 }

// Take removes id from the pool on behalf of seat and returns the events to
// deliver, in order, plus the true name of the general taken. Placeholders
// are revealed privately to the taker before the taker's own takeGeneral.
func Take(s State, seat Seat, id Identifier) ([]Event, State, string, error) {
	step, done := currentStep(s)
	if done {
		return nil, s, "", ErrDraftComplete
	}
	if step != seat {
		return nil, s, "", ErrWrongTurn
	}

	idx := slices.Index(s.Pool, id)
	if idx < 0 {
		return nil, s, "", ErrNotInPool
	}

	events := []Event{
		{Type: EvtTakeGeneral, Audience: AudienceOthers, Seat: seat, Payload: seat.Group() + ":" + id.String()},
	}

	name := id.Name
	if id.Hidden {
		if id.Index >= len(s.Hidden) {
			panic(fmt.Sprintf("engine: placeholder %s has no hidden mapping (%d entries)", id, len(s.Hidden)))
		}
		name = s.Hidden[id.Index]
		events = append(events, Event{
			Type: EvtRecoverGeneral, Audience: AudienceSeat, Seat: seat,
			Payload: strconv.Itoa(id.Index) + ":" + name,
		})
	}
	events = append(events, Event{Type: EvtTakeGeneral, Audience: AudienceSeat, Seat: seat, Payload: seat.Group() + ":" + name})

	newState := s
	newState.Pool = slices.Delete(slices.Clone(s.Pool), idx, idx+1)
	newState.Cursor++
	return events, newState, name, nil
}

// ValidateArrangement checks that arranged is ArrangeSize distinct generals
// drawn from selected.
func ValidateArrangement(selected, arranged []string) error {
	if len(arranged) != ArrangeSize {
		return fmt.Errorf("%w: want %d generals, got %d", ErrBadArrangement, ArrangeSize, len(arranged))
	}
	if len(lo.Uniq(arranged)) != len(arranged) {
		return fmt.Errorf("%w: duplicate general", ErrBadArrangement)
	}
	if !lo.Every(selected, arranged) {
		return fmt.Errorf("%w: general not selected", ErrBadArrangement)
	}
	return nil
}

func currentStep(s State) (Seat, bool) {
	if s.Cursor >= len(s.Order) {
		return 0, true
	}
	return s.Order[s.Cursor], false
}

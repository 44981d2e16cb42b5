package lobby

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/DoyleJ11/duel-draft-backend/internal/draft"
	"github.com/DoyleJ11/duel-draft-backend/internal/engine"
	"github.com/DoyleJ11/duel-draft-backend/internal/metrics"
	"github.com/DoyleJ11/duel-draft-backend/internal/store"
	"github.com/DoyleJ11/duel-draft-backend/internal/types"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrSeatsOpen = errors.New("both seats must be taken")
var ErrDraftRunning = errors.New("draft already running")
var ErrNotSeated = errors.New("client is not seated")
var ErrNoSession = errors.New("no draft session")
var ErrUnknownMessage = errors.New("unknown message type")

const saveTimeout = 5 * time.Second

type Msg interface{ isLobbyMsg() }

type FromClient struct {
	ClientID string
	Msg      types.ClientMessage
}

func (FromClient) isLobbyMsg() {}

// Join attaches a client. Seat is "warm", "cool" or empty for a spectator;
// PlayerID keeps the seat across reconnects.
type Join struct {
	ClientID string
	PlayerID string
	Seat     string
	Outbox   chan Frame // where this client wants to receive frames
}

func (Join) isLobbyMsg() {}

type Leave struct{ ClientID string }

func (Leave) isLobbyMsg() {}

type StartDraft struct {
	Reply chan error
}

func (StartDraft) isLobbyMsg() {}

type Shutdown struct{}

func (Shutdown) isLobbyMsg() {}

type GetState struct {
	Reply chan View
}

func (GetState) isLobbyMsg() {}

type sessionDone struct {
	id     string
	result draft.Result
	err    error
}

func (sessionDone) isLobbyMsg() {}

type SeatView struct {
	PlayerID string
	Online   bool
	Selected []string
	General  string
	Reserve  []string
}

type View struct {
	Code       string
	NumClients int
	Running    bool
	Seats      map[string]*SeatView
	Draft      *draft.View
	Last       *draft.Result
}

// Deps are shared by every lobby a hub creates.
type Deps struct {
	Generals draft.GeneralPool
	Options  draft.Options
	Recorder store.Recorder
	Metrics  *metrics.Metrics
	Logger   *zap.Logger
}

type client struct {
	seat   engine.Seat
	seated bool
}

// Lobby owns one room: its two seats, its clients and at most one running
// draft session.
type Lobby struct {
	code    string
	inbox   chan Msg
	deps    Deps
	logger  *zap.Logger
	roster  *roster
	clients map[string]client
	players [2]*draft.Participant
	driver  [2]string // client currently playing each seat

	session       *draft.Coordinator
	sessionCancel context.CancelFunc
	running       bool
	last          *draft.Result

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

func NewLobby(parent context.Context, code string, deps Deps) *Lobby {
	ctx, cancel := context.WithCancel(parent)
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	l := &Lobby{
		code:    code,
		inbox:   make(chan Msg, 64), // Small buffer
		deps:    deps,
		logger:  deps.Logger.With(zap.String("room", code)),
		roster:  newRoster(),
		clients: make(map[string]client),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}

	go l.loop()
	return l
}

func (l *Lobby) Code() string { return l.code }

// Close stops the lobby without going through its inbox.
func (l *Lobby) Close() { l.cancel() }

// Done is closed once the lobby has stopped accepting messages.
func (l *Lobby) Done() <-chan struct{} { return l.done }

func (l *Lobby) loop() {
	defer close(l.done)
	for {
		select {
		case <-l.ctx.Done():
			l.shutdown()
			return

		case m := <-l.inbox:
			switch msg := m.(type) {
			case Join:
				l.join(msg)

			case Leave:
				l.leave(msg.ClientID)

			case FromClient:
				if err := l.handle(msg); err != nil {
					l.logger.Debug("client message rejected",
						zap.String("client", msg.ClientID),
						zap.String("type", msg.Msg.Type),
						zap.Error(err))
					l.roster.sendTo(msg.ClientID, Frame{Kind: FrameError, Payload: err.Error()})
				}

			case StartDraft:
				err := l.startDraft()
				if msg.Reply != nil {
					msg.Reply <- err
				}

			case sessionDone:
				l.finishDraft(msg)

			case GetState:
				msg.Reply <- l.view()

			case Shutdown:
				l.shutdown()
				return
			}
		}
	}
}

func (l *Lobby) join(msg Join) {
	m := &member{id: msg.ClientID, outbox: msg.Outbox}
	seat, wantsSeat := engine.ParseSeat(msg.Seat)

	if wantsSeat {
		p := l.players[seat]
		switch {
		case p == nil:
			p = draft.NewParticipant(msg.PlayerID, seat)
			l.players[seat] = p
		case p.ID != msg.PlayerID:
			wantsSeat = false
		}

		if wantsSeat {
			if prev := l.driver[seat]; prev != "" && prev != msg.ClientID {
				l.roster.unseat(prev)
				l.clients[prev] = client{}
			}
			m.seat, m.seated = seat, true
			l.driver[seat] = msg.ClientID
			p.SetOnline(true)
		}
	}

	l.clients[msg.ClientID] = client{seat: m.seat, seated: m.seated}
	l.roster.add(m)

	joined := Frame{Kind: FrameJoined}
	if m.seated {
		joined.Seat = seat.Group()
	}
	if l.session != nil {
		joined.Payload = strings.Join(l.session.View().Pool, "+")
	}
	l.roster.sendTo(msg.ClientID, joined)

	// A reconnecting driver is asked again for whatever its seat still owes.
	if m.seated && l.running {
		if ev, ok := l.session.Pending(seat); ok {
			l.roster.sendTo(msg.ClientID, eventFrame(FrameRequest, ev))
		}
	}
	l.logger.Debug("client joined", zap.String("client", msg.ClientID), zap.String("seat", joined.Seat))
}

func (l *Lobby) leave(id string) {
	c, ok := l.clients[id]
	if !ok {
		return
	}
	delete(l.clients, id)
	l.roster.remove(id)

	if c.seated && l.driver[c.seat] == id {
		l.driver[c.seat] = ""
		l.players[c.seat].SetOnline(false)
	}
}

func (l *Lobby) handle(msg FromClient) error {
	c := l.clients[msg.ClientID]

	switch msg.Msg.Type {
	case types.MsgStartDraft:
		return l.startDraft()

	case types.MsgTakeGeneral:
		if !c.seated {
			return ErrNotSeated
		}
		if l.session == nil {
			return ErrNoSession
		}
		return l.session.DeliverChoice(c.seat, msg.Msg.General)

	case types.MsgArrange:
		if !c.seated {
			return ErrNotSeated
		}
		if l.session == nil {
			return ErrNoSession
		}
		return l.session.DeliverArrangement(c.seat, msg.Msg.Generals)

	default:
		return ErrUnknownMessage
	}
}

func (l *Lobby) startDraft() error {
	if l.running {
		return ErrDraftRunning
	}
	if l.players[engine.SeatWarm] == nil || l.players[engine.SeatCool] == nil {
		return ErrSeatsOpen
	}

	id := uuid.NewString()
	coord := draft.NewCoordinator(id, l.roster, l.deps.Generals, l.players, l.deps.Options, l.logger, l.deps.Metrics)
	ctx, cancel := context.WithCancel(l.ctx)

	l.session, l.sessionCancel, l.running = coord, cancel, true

	go func() {
		res, err := coord.Run(ctx)
		if err == nil {
			l.record(res)
		}
		select {
		case l.inbox <- sessionDone{id: id, result: res, err: err}:
		case <-l.ctx.Done():
		}
	}()
	return nil
}

func (l *Lobby) record(res draft.Result) {
	if l.deps.Recorder == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	if err := l.deps.Recorder.Save(ctx, store.NewRecord(l.code, res)); err != nil {
		l.logger.Error("failed to record draft", zap.String("session", res.SessionID), zap.Error(err))
	}
}

func (l *Lobby) finishDraft(msg sessionDone) {
	if l.session == nil || l.session.ID() != msg.id {
		return
	}
	l.running = false
	l.sessionCancel()
	if msg.err != nil {
		l.logger.Warn("draft ended without a result", zap.String("session", msg.id), zap.Error(msg.err))
		return
	}
	res := msg.result
	l.last = &res
}

func (l *Lobby) view() View {
	v := View{
		Code:       l.code,
		NumClients: l.roster.count(),
		Running:    l.running,
		Seats:      make(map[string]*SeatView, len(l.players)),
		Last:       l.last,
	}
	for _, p := range l.players {
		if p == nil {
			continue
		}
		sv := &SeatView{PlayerID: p.ID, Online: p.Online()}
		if l.running {
			// The view is public: hidden picks and line-ups stay concealed
			// until the session is over.
			sv.Selected = p.Shown()
		} else {
			sv.Selected, sv.General = p.Selected(), p.General()
			if reserve, ok := p.Reserve(); ok {
				sv.Reserve = reserve[:]
			}
		}
		v.Seats[p.Seat.Group()] = sv
	}
	if l.session != nil {
		dv := l.session.View()
		v.Draft = &dv
	}
	return v
}

func (l *Lobby) shutdown() {
	if l.sessionCancel != nil {
		l.sessionCancel()
	}
	l.roster.closeAll() // Tell clients no more frames
	clear(l.clients)
	l.cancel()
}

// Expose the inbox so tests or WS layer can send messages.
func (l *Lobby) Inbox() chan<- Msg { return l.inbox }

package draft

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/DoyleJ11/duel-draft-backend/internal/engine"
	"github.com/DoyleJ11/duel-draft-backend/internal/metrics"
	"go.uber.org/zap"
)

var ErrNoPendingPick = errors.New("no pick pending for seat")
var ErrNoPendingArrange = errors.New("no arrangement pending for seat")
var ErrSessionStarted = errors.New("session already started")

const (
	DefaultPoolSize      = 10
	DefaultHiddenCount   = 4
	DefaultGraceInterval = time.Second
)

type Options struct {
	// PoolSize and HiddenCount default to 10 and 4 when zero.
	PoolSize    int
	HiddenCount int
	// Banned is read once when the session begins.
	Banned []string
	// GraceInterval is how long the coordinator waits on a player before
	// re-checking connectivity and timeouts.
	GraceInterval time.Duration
	// AutoPickDelay paces forced and offline picks.
	AutoPickDelay time.Duration
	// PickTimeout and ArrangeTimeout bound interactive waits; 0 waits forever.
	PickTimeout    time.Duration
	ArrangeTimeout time.Duration
	// Seed fixes the random source; 0 seeds from the wall clock.
	Seed uint64
}

func (o Options) withDefaults() Options {
	if o.PoolSize <= 0 {
		o.PoolSize = DefaultPoolSize
	}
	if o.HiddenCount <= 0 || o.HiddenCount > o.PoolSize {
		o.HiddenCount = DefaultHiddenCount
	}
	if o.GraceInterval <= 0 {
		o.GraceInterval = DefaultGraceInterval
	}
	if o.Seed == 0 {
		o.Seed = uint64(time.Now().UnixNano())
	}
	o.Banned = slices.Clone(o.Banned)
	return o
}

type SeatResult struct {
	Seat     engine.Seat
	PlayerID string
	Selected []string
	General  string
	Reserve  [2]string
}

type Result struct {
	SessionID string
	Seats     [2]SeatResult
}

// View is a point-in-time copy of the working draft.
type View struct {
	SessionID string
	Phase     engine.Phase
	Pool      []string
	Turn      engine.Seat
	Pending   bool
}

type pendingPick struct {
	seat     engine.Seat
	deadline time.Time
}

// Coordinator runs one two-player draft session. Run drives the session on
// the calling goroutine; DeliverChoice and DeliverArrangement are called from
// the inbound message path. Only one pick is outstanding at a time, and every
// assignment goes through takeGeneral under mu, so the first resolution of a
// pick wins and anything arriving later is rejected as stale.
type Coordinator struct {
	id       string
	room     Room
	generals GeneralPool
	players  [2]*Participant
	opts     Options
	logger   *zap.Logger
	metrics  *metrics.Metrics
	sem      *Semaphore
	now      func() time.Time

	mu        sync.Mutex
	rng       *rand.Rand
	state     engine.State
	begun     bool
	finished  bool
	started   time.Time
	pending   *pendingPick
	arranging map[engine.Seat]time.Time
}

func NewCoordinator(id string, room Room, generals GeneralPool, players [2]*Participant, opts Options, logger *zap.Logger, m *metrics.Metrics) *Coordinator {
	for i, p := range players {
		if p == nil || p.Seat != engine.Seats[i] {
			panic(fmt.Sprintf("draft: participant %d does not sit in seat %s", i, engine.Seats[i]))
		}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	opts = opts.withDefaults()

	return &Coordinator{
		id:        id,
		room:      room,
		generals:  generals,
		players:   players,
		opts:      opts,
		logger:    logger.With(zap.String("session", id)),
		metrics:   m,
		sem:       NewSemaphore(),
		now:       time.Now,
		rng:       rand.New(rand.NewPCG(opts.Seed, opts.Seed>>1|1)),
		state:     engine.NewEmptyState(),
		arranging: make(map[engine.Seat]time.Time),
	}
}

func (c *Coordinator) ID() string { return c.id }

// Begin draws the generals, hides the tail behind placeholders and announces
// the roster. Nothing is awaited.
func (c *Coordinator) Begin() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.begun {
		return ErrSessionStarted
	}
	names, err := c.generals.Random(c.rng, c.opts.PoolSize, c.opts.Banned)
	if err != nil {
		return fmt.Errorf("draw generals: %w", err)
	}

	c.begun = true
	c.started = c.now()
	for _, p := range c.players {
		p.reset()
	}
	c.state = engine.NewState(names, c.opts.HiddenCount)

	c.room.Broadcast(engine.Event{Type: engine.EvtFillGenerals, Audience: engine.AudienceAll, Payload: c.state.Roster()})
	c.metrics.SessionStarted()
	c.logger.Info("draft session begun", zap.Int("generals", len(names)), zap.Int("hidden", c.opts.HiddenCount))
	return nil
}

// Run performs the whole session: Begin, the alternating picks, the forced
// remainder and both arrangements. It returns once both seats have arranged
// or ctx is done.
func (c *Coordinator) Run(ctx context.Context) (res Result, err error) {
	defer func() {
		c.mu.Lock()
		started := c.started
		c.finished = err == nil
		c.mu.Unlock()
		c.metrics.SessionFinished(started, err)
		if err != nil {
			c.logger.Warn("draft session aborted", zap.Error(err))
		}
	}()

	if err := c.Begin(); err != nil {
		return Result{}, err
	}

	c.mu.Lock()
	order := c.state.Order
	c.mu.Unlock()

	for _, seat := range order {
		if err := c.askForTakeGeneral(ctx, seat); err != nil {
			return Result{}, err
		}
	}

	for _, seat := range engine.ArrangeOrder(len(order)) {
		c.startArrange(seat)
	}
	if err := c.await(ctx, len(c.players), c.supersedeArrangements); err != nil {
		return Result{}, err
	}

	c.room.Broadcast(engine.Event{Type: engine.EvtDraftFinished, Audience: engine.AudienceAll})
	c.logger.Info("draft session finished")
	return c.Result(), nil
}

func (c *Coordinator) askForTakeGeneral(ctx context.Context, seat engine.Seat) error {
	p := c.players[seat]

	c.mu.Lock()
	if c.state.Done() {
		c.mu.Unlock()
		panic(fmt.Sprintf("draft: pick expected for %s but the pool is empty", seat))
	}

	var (
		id         engine.Identifier
		resolution string
		auto       = true
	)
	switch {
	case c.state.Forced():
		id, resolution = c.state.Pool[0], metrics.ResolutionForced
	case !p.Online():
		id, resolution = c.randomPick(), metrics.ResolutionOffline
	default:
		auto = false
		c.pending = &pendingPick{seat: seat, deadline: c.deadline(c.opts.PickTimeout)}
		c.room.Request(seat, engine.Event{Type: engine.EvtAskForGeneral, Audience: engine.AudienceSeat, Seat: seat})
	}
	c.mu.Unlock()

	if auto {
		if err := sleep(ctx, c.opts.AutoPickDelay); err != nil {
			return err
		}
		c.mu.Lock()
		err := c.takeGeneral(seat, id, resolution)
		c.mu.Unlock()
		if err != nil {
			panic(fmt.Sprintf("draft: automatic pick %s for %s rejected: %v", id, seat, err))
		}
	}

	return c.await(ctx, 1, c.supersedePick)
}

// DeliverChoice resolves the outstanding pick for seat with the working
// identifier raw. Choices for a seat that is not being asked, or for
// generals no longer in the pool, are rejected and change nothing.
func (c *Coordinator) DeliverChoice(seat engine.Seat, raw string) error {
	id, parseErr := engine.ParseIdentifier(raw)

	c.mu.Lock()
	defer c.mu.Unlock()

	if parseErr != nil {
		c.stale("choice", seat, parseErr)
		return parseErr
	}
	if c.pending == nil || c.pending.seat != seat {
		c.stale("choice", seat, ErrNoPendingPick)
		return ErrNoPendingPick
	}
	if err := c.takeGeneral(seat, id, metrics.ResolutionChoice); err != nil {
		c.stale("choice", seat, err)
		return err
	}
	c.pending = nil
	return nil
}

// supersedePick replaces the outstanding request with a random pick once the
// seat has gone offline or its pick timeout has passed.
func (c *Coordinator) supersedePick() {
	c.mu.Lock()
	defer c.mu.Unlock()

	pp := c.pending
	if pp == nil {
		return
	}
	var resolution string
	switch {
	case !c.players[pp.seat].Online():
		resolution = metrics.ResolutionOffline
	case c.expired(pp.deadline):
		resolution = metrics.ResolutionTimeout
	default:
		return
	}

	c.pending = nil
	id := c.randomPick()
	if err := c.takeGeneral(pp.seat, id, resolution); err != nil {
		panic(fmt.Sprintf("draft: fallback pick %s for %s rejected: %v", id, pp.seat, err))
	}
}

// takeGeneral assigns id to seat. Caller holds mu.
func (c *Coordinator) takeGeneral(seat engine.Seat, id engine.Identifier, resolution string) error {
	events, next, name, err := engine.Take(c.state, seat, id)
	if err != nil {
		return err
	}
	c.state = next
	c.players[seat].addSelected(name, id.String())

	for _, ev := range events {
		c.dispatch(ev)
	}

	c.metrics.PickResolved(resolution)
	c.logger.Debug("general taken",
		zap.Stringer("seat", seat),
		zap.Stringer("id", id),
		zap.String("resolution", resolution),
		zap.Int("remaining", c.state.Remaining()))

	c.sem.Release(1)
	return nil
}

func (c *Coordinator) startArrange(seat engine.Seat) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.players[seat].Online() {
		c.autoArrange(seat, metrics.ResolutionOffline)
		return
	}
	c.arranging[seat] = c.deadline(c.opts.ArrangeTimeout)
	c.room.Request(seat, engine.Event{Type: engine.EvtStartArrange, Audience: engine.AudienceSeat, Seat: seat})
}

// DeliverArrangement resolves seat's outstanding arrangement. arranged must be
// three distinct generals from the seat's selected pool, primary first.
func (c *Coordinator) DeliverArrangement(seat engine.Seat, arranged []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.arranging[seat]; !ok {
		c.stale("arrangement", seat, ErrNoPendingArrange)
		return ErrNoPendingArrange
	}
	if err := c.arrange(seat, slices.Clone(arranged), metrics.ResolutionChoice); err != nil {
		c.stale("arrangement", seat, err)
		return err
	}
	return nil
}

func (c *Coordinator) supersedeArrangements() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, seat := range engine.Seats {
		deadline, ok := c.arranging[seat]
		if !ok {
			continue
		}
		switch {
		case !c.players[seat].Online():
			c.autoArrange(seat, metrics.ResolutionOffline)
		case c.expired(deadline):
			c.autoArrange(seat, metrics.ResolutionTimeout)
		}
	}
}

// autoArrange shuffles the seat's selected pool and keeps the first three.
// Caller holds mu.
func (c *Coordinator) autoArrange(seat engine.Seat, resolution string) {
	selected := c.players[seat].Selected()
	if len(selected) < engine.ArrangeSize {
		panic(fmt.Sprintf("draft: %s holds %d generals, cannot arrange", seat, len(selected)))
	}
	c.rng.Shuffle(len(selected), func(i, j int) {
		selected[i], selected[j] = selected[j], selected[i]
	})
	if err := c.arrange(seat, selected[:engine.ArrangeSize], resolution); err != nil {
		panic(fmt.Sprintf("draft: automatic arrangement for %s rejected: %v", seat, err))
	}
}

// arrange stores primary and reserve on the participant. Caller holds mu.
func (c *Coordinator) arrange(seat engine.Seat, arranged []string, resolution string) error {
	p := c.players[seat]
	if err := engine.ValidateArrangement(p.Selected(), arranged); err != nil {
		return err
	}
	p.setArrangement(arranged)
	delete(c.arranging, seat)

	c.room.Broadcast(engine.Event{Type: engine.EvtArranged, Audience: engine.AudienceAll, Seat: seat, Payload: seat.Group()})
	c.metrics.ArrangementResolved(resolution)
	c.logger.Debug("arrangement resolved", zap.Stringer("seat", seat), zap.String("resolution", resolution))

	c.sem.Release(1)
	return nil
}

// await blocks for n credits, waking every grace interval to let supersede
// replace requests the players will no longer answer.
func (c *Coordinator) await(ctx context.Context, n int, supersede func()) error {
	for {
		waitCtx, cancel := context.WithTimeout(ctx, c.opts.GraceInterval)
		err := c.sem.Acquire(waitCtx, n)
		cancel()
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		supersede()
	}
}

// Pending returns the request seat still owes an answer to, so a reconnecting
// client can be asked again.
func (c *Coordinator) Pending(seat engine.Seat) (engine.Event, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pending != nil && c.pending.seat == seat {
		return engine.Event{Type: engine.EvtAskForGeneral, Audience: engine.AudienceSeat, Seat: seat}, true
	}
	if _, ok := c.arranging[seat]; ok {
		return engine.Event{Type: engine.EvtStartArrange, Audience: engine.AudienceSeat, Seat: seat}, true
	}
	return engine.Event{}, false
}

// Result is the final state of both seats.
func (c *Coordinator) Result() Result {
	res := Result{SessionID: c.id}
	for i, p := range c.players {
		reserve, _ := p.Reserve()
		res.Seats[i] = SeatResult{
			Seat:     p.Seat,
			PlayerID: p.ID,
			Selected: p.Selected(),
			General:  p.General(),
			Reserve:  reserve,
		}
	}
	return res
}

func (c *Coordinator) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()

	v := View{
		SessionID: c.id,
		Phase:     engine.DerivePhase(c.state),
		Pool:      make([]string, 0, len(c.state.Pool)),
		Pending:   c.pending != nil || len(c.arranging) > 0,
	}
	if c.finished {
		v.Phase = engine.PhaseDone
	}
	for _, id := range c.state.Pool {
		v.Pool = append(v.Pool, id.String())
	}
	if c.state.Cursor < len(c.state.Order) {
		v.Turn = c.state.Order[c.state.Cursor]
	}
	return v
}

// randomPick draws uniformly from the pool. Caller holds mu.
func (c *Coordinator) randomPick() engine.Identifier {
	if c.state.Done() {
		panic("draft: random pick from an empty pool")
	}
	return c.state.Pool[c.rng.IntN(len(c.state.Pool))]
}

// dispatch routes an engine event to the room. Caller holds mu.
func (c *Coordinator) dispatch(ev engine.Event) {
	switch ev.Audience {
	case engine.AudienceSeat:
		c.room.Notify(ev.Seat, ev)
	default:
		c.room.Broadcast(ev)
	}
}

func (c *Coordinator) deadline(d time.Duration) time.Time {
	if d <= 0 {
		return time.Time{}
	}
	return c.now().Add(d)
}

func (c *Coordinator) expired(deadline time.Time) bool {
	return !deadline.IsZero() && !c.now().Before(deadline)
}

func (c *Coordinator) stale(kind string, seat engine.Seat, err error) {
	c.metrics.StaleMessage(kind)
	c.logger.Debug("ignoring stale "+kind, zap.Stringer("seat", seat), zap.Error(err))
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

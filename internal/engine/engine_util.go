package engine

func NewEmptyState() State {
	return State{Pool: []Identifier{}, Hidden: []string{}}
}

// Phase names the coarse stage of a draft for snapshots.
type Phase string

const (
	PhaseWaiting   Phase = "waiting"
	PhaseDrafting  Phase = "drafting"
	PhaseArranging Phase = "arranging"
	PhaseDone      Phase = "done"
)

func DerivePhase(s State) Phase {
	if len(s.Order) == 0 {
		return PhaseWaiting
	} else if s.Cursor < len(s.Order) {
		return PhaseDrafting
	}
	return PhaseArranging
}

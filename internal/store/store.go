package store

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/DoyleJ11/duel-draft-backend/internal/draft"
	"github.com/DoyleJ11/duel-draft-backend/internal/engine"
	"github.com/samber/lo"
)

var ErrDuplicateRecord = errors.New("draft already recorded")

// listSep joins general names in a single column; names never contain it.
const listSep = "+"

// DraftRecord is one finished draft.
type DraftRecord struct {
	ID           uint   `gorm:"primaryKey"`
	SessionID    string `gorm:"size:36;uniqueIndex;not null"`
	RoomCode     string `gorm:"size:16;index;not null"`
	WarmPlayer   string `gorm:"size:64"`
	CoolPlayer   string `gorm:"size:64"`
	WarmSelected string
	CoolSelected string
	WarmGeneral  string `gorm:"size:64"`
	CoolGeneral  string `gorm:"size:64"`
	WarmReserve  string
	CoolReserve  string
	CreatedAt    time.Time
}

func NewRecord(roomCode string, res draft.Result) DraftRecord {
	warm, cool := res.Seats[engine.SeatWarm], res.Seats[engine.SeatCool]
	return DraftRecord{
		SessionID:    res.SessionID,
		RoomCode:     roomCode,
		WarmPlayer:   warm.PlayerID,
		CoolPlayer:   cool.PlayerID,
		WarmSelected: strings.Join(warm.Selected, listSep),
		CoolSelected: strings.Join(cool.Selected, listSep),
		WarmGeneral:  warm.General,
		CoolGeneral:  cool.General,
		WarmReserve:  strings.Join(warm.Reserve[:], listSep),
		CoolReserve:  strings.Join(cool.Reserve[:], listSep),
	}
}

// Selected splits a stored list column back into names.
func Selected(column string) []string {
	return lo.Compact(strings.Split(column, listSep))
}

type Recorder interface {
	Save(ctx context.Context, rec DraftRecord) error
	ListByRoom(ctx context.Context, roomCode string) ([]DraftRecord, error)
}

// MemoryStore keeps records in process; used when no database is configured.
type MemoryStore struct {
	mu      sync.RWMutex
	records []DraftRecord
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

func (s *MemoryStore) Save(_ context.Context, rec DraftRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if lo.ContainsBy(s.records, func(r DraftRecord) bool { return r.SessionID == rec.SessionID }) {
		return ErrDuplicateRecord
	}
	rec.ID = uint(len(s.records) + 1)
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.now()
	}
	s.records = append(s.records, rec)
	return nil
}

func (s *MemoryStore) ListByRoom(_ context.Context, roomCode string) ([]DraftRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return lo.Filter(s.records, func(r DraftRecord, _ int) bool { return r.RoomCode == roomCode }), nil
}

package store

import (
	"context"
	"fmt"
	"testing"

	"github.com/DoyleJ11/duel-draft-backend/internal/draft"
	"github.com/DoyleJ11/duel-draft-backend/internal/engine"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResult(session string) draft.Result {
	return draft.Result{
		SessionID: session,
		Seats: [2]draft.SeatResult{
			{Seat: engine.SeatWarm, PlayerID: "alice", Selected: []string{"G1", "G4", "G5", "G8", "G9"}, General: "G4", Reserve: [2]string{"G1", "G9"}},
			{Seat: engine.SeatCool, PlayerID: "bob", Selected: []string{"G2", "G3", "G6", "G7", "G10"}, General: "G7", Reserve: [2]string{"G2", "G3"}},
		},
	}
}

func TestNewRecord(t *testing.T) {
	rec := NewRecord("ZED123", sampleResult("s1"))

	assert.Equal(t, "ZED123", rec.RoomCode)
	assert.Equal(t, "alice", rec.WarmPlayer)
	assert.Equal(t, "bob", rec.CoolPlayer)
	assert.Equal(t, "G1+G4+G5+G8+G9", rec.WarmSelected)
	assert.Equal(t, []string{"G2", "G3", "G6", "G7", "G10"}, Selected(rec.CoolSelected))
	assert.Equal(t, "G4", rec.WarmGeneral)
	assert.Equal(t, []string{"G2", "G3"}, Selected(rec.CoolReserve))
}

func TestSelected_Empty(t *testing.T) {
	assert.Empty(t, Selected(""))
}

func TestMemoryStore_SaveAndList(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Save(ctx, NewRecord("ROOM1", sampleResult("s1"))))
	require.NoError(t, s.Save(ctx, NewRecord("ROOM2", sampleResult("s2"))))
	require.NoError(t, s.Save(ctx, NewRecord("ROOM1", sampleResult("s3"))))

	recs, err := s.ListByRoom(ctx, "ROOM1")
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "s1", recs[0].SessionID)
	assert.Equal(t, "s3", recs[1].SessionID)
	assert.False(t, recs[0].CreatedAt.IsZero())

	assert.ErrorIs(t, s.Save(ctx, NewRecord("ROOM1", sampleResult("s1"))), ErrDuplicateRecord)
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, isUniqueViolation(nil))
}

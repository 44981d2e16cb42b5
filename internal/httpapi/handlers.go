package httpapi

import (
	"crypto/rand"
	"encoding/json"
	"math/big"
	"net/http"
	"time"

	"github.com/DoyleJ11/duel-draft-backend/internal/draft"
	"github.com/DoyleJ11/duel-draft-backend/internal/hub"
	"github.com/DoyleJ11/duel-draft-backend/internal/lobby"
	"github.com/DoyleJ11/duel-draft-backend/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

const maxCodeAttempts = 16

func GenerateCode() (string, error) {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	code := make([]byte, 6)
	for i := 0; i < 6; i++ {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		code[i] = charset[num.Int64()]
	}
	return string(code), nil
}

type createLobbyResponse struct {
	Code string `json:"code"`
}

type seatResponse struct {
	PlayerID string   `json:"player_id"`
	Online   bool     `json:"online,omitempty"`
	Selected []string `json:"selected,omitempty"`
	General  string   `json:"general,omitempty"`
	Reserve  []string `json:"reserve,omitempty"`
}

type draftResponse struct {
	SessionID string   `json:"session_id"`
	Phase     string   `json:"phase"`
	Pool      []string `json:"pool"`
	Turn      string   `json:"turn,omitempty"`
	Pending   bool     `json:"pending"`
}

type resultResponse struct {
	SessionID string                  `json:"session_id"`
	Seats     map[string]seatResponse `json:"seats"`
}

type lobbyResponse struct {
	Code       string                   `json:"code"`
	NumClients int                      `json:"num_clients"`
	Running    bool                     `json:"running"`
	Seats      map[string]*seatResponse `json:"seats"`
	Draft      *draftResponse           `json:"draft,omitempty"`
	Last       *resultResponse          `json:"last,omitempty"`
}

type recordResponse struct {
	SessionID string                  `json:"session_id"`
	Seats     map[string]seatResponse `json:"seats"`
	CreatedAt time.Time               `json:"created_at"`
}

func CreateLobby(h *hub.Hub, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var code string
		for attempt := 0; code == "" && attempt < maxCodeAttempts; attempt++ {
			c, err := GenerateCode()
			if err != nil {
				http.Error(w, "failed to generate code", http.StatusInternalServerError)
				return
			}
			reply := make(chan *lobby.Lobby, 1)
			h.Inbox() <- hub.GetLobby{Code: c, Reply: reply}
			if <-reply == nil {
				code = c
				break
			}
			logger.Debug("collision on code, regenerating", zap.String("code", c))
		}
		if code == "" {
			http.Error(w, "failed to generate code", http.StatusServiceUnavailable)
			return
		}

		reply := make(chan *lobby.Lobby, 1)
		h.Inbox() <- hub.CreateLobby{Code: code, Reply: reply}
		if <-reply == nil {
			http.Error(w, "failed to create lobby", http.StatusInternalServerError)
			return
		}
		logger.Info("lobby created", zap.String("room", code))

		writeJSON(w, http.StatusCreated, createLobbyResponse{Code: code})
	}
}

func GetLobby(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reply := make(chan *lobby.Lobby, 1)
		h.Inbox() <- hub.GetLobby{Code: chi.URLParam(r, "code"), Reply: reply}
		lb := <-reply
		if lb == nil {
			http.Error(w, "lobby not found", http.StatusNotFound)
			return
		}

		views := make(chan lobby.View, 1)
		select {
		case lb.Inbox() <- lobby.GetState{Reply: views}:
		case <-lb.Done():
			http.Error(w, "lobby not found", http.StatusNotFound)
			return
		case <-r.Context().Done():
			return
		}

		select {
		case v := <-views:
			writeJSON(w, http.StatusOK, toLobbyResponse(v))
		case <-lb.Done():
			http.Error(w, "lobby not found", http.StatusNotFound)
		case <-r.Context().Done():
		}
	}
}

func DeleteLobby(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.Inbox() <- hub.RemoveLobby{Code: chi.URLParam(r, "code")}
		w.WriteHeader(http.StatusNoContent)
	}
}

func ListDrafts(rec store.Recorder, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")
		records, err := rec.ListByRoom(r.Context(), code)
		if err != nil {
			logger.Error("list drafts", zap.String("room", code), zap.Error(err))
			http.Error(w, "failed to list drafts", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, lo.Map(records, func(rec store.DraftRecord, _ int) recordResponse {
			return toRecordResponse(rec)
		}))
	}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func toLobbyResponse(v lobby.View) lobbyResponse {
	resp := lobbyResponse{
		Code:       v.Code,
		NumClients: v.NumClients,
		Running:    v.Running,
		Seats:      make(map[string]*seatResponse, len(v.Seats)),
	}
	for group, s := range v.Seats {
		resp.Seats[group] = &seatResponse{
			PlayerID: s.PlayerID,
			Online:   s.Online,
			Selected: s.Selected,
			General:  s.General,
			Reserve:  s.Reserve,
		}
	}
	if v.Draft != nil {
		d := &draftResponse{
			SessionID: v.Draft.SessionID,
			Phase:     string(v.Draft.Phase),
			Pool:      v.Draft.Pool,
			Pending:   v.Draft.Pending,
		}
		if v.Draft.Pending {
			d.Turn = v.Draft.Turn.Group()
		}
		resp.Draft = d
	}
	if v.Last != nil {
		resp.Last = toResultResponse(*v.Last)
	}
	return resp
}

func toResultResponse(res draft.Result) *resultResponse {
	out := &resultResponse{SessionID: res.SessionID, Seats: make(map[string]seatResponse, len(res.Seats))}
	for _, s := range res.Seats {
		out.Seats[s.Seat.Group()] = seatResponse{
			PlayerID: s.PlayerID,
			Selected: s.Selected,
			General:  s.General,
			Reserve:  s.Reserve[:],
		}
	}
	return out
}

func toRecordResponse(rec store.DraftRecord) recordResponse {
	return recordResponse{
		SessionID: rec.SessionID,
		CreatedAt: rec.CreatedAt,
		Seats: map[string]seatResponse{
			"warm": {
				PlayerID: rec.WarmPlayer,
				Selected: store.Selected(rec.WarmSelected),
				General:  rec.WarmGeneral,
				Reserve:  store.Selected(rec.WarmReserve),
			},
			"cool": {
				PlayerID: rec.CoolPlayer,
				Selected: store.Selected(rec.CoolSelected),
				General:  rec.CoolGeneral,
				Reserve:  store.Selected(rec.CoolReserve),
			},
		},
	}
}

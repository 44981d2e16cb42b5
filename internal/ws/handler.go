package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/DoyleJ11/duel-draft-backend/internal/hub"
	"github.com/DoyleJ11/duel-draft-backend/internal/lobby"
	"github.com/DoyleJ11/duel-draft-backend/internal/types"
	"github.com/coder/websocket"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	writeTimeout = 3 * time.Second
	outboxSize   = 32
)

var errBadJSON = errors.New("bad json")

var validate = validator.New(validator.WithRequiredStructEnabled())

// Handler upgrades /ws?code=ROOM&seat=warm|cool&player=ID. Without a seat the
// client watches as a spectator; without a player id one is generated, which
// means the seat cannot be reclaimed after a reconnect.
func Handler(h *hub.Hub, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		code := q.Get("code")
		if code == "" {
			http.Error(w, "missing code", http.StatusBadRequest)
			return
		}

		reply := make(chan *lobby.Lobby, 1)
		h.Inbox() <- hub.GetLobby{Code: code, Reply: reply}
		lb := <-reply
		if lb == nil {
			http.Error(w, "lobby not found", http.StatusNotFound)
			return
		}

		playerID := q.Get("player")
		if playerID == "" {
			playerID = uuid.NewString()
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			// In dev ONLY, you can loosen origin checks:
			// OriginPatterns: []string{"http://localhost:*", "http://127.0.0.1:*"},
		})
		if err != nil {
			logger.Debug("websocket accept failed", zap.Error(err))
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		clientID := uuid.NewString()
		log := logger.With(zap.String("room", code), zap.String("client", clientID))
		out := make(chan lobby.Frame, outboxSize)

		if !send(lb, lobby.Join{ClientID: clientID, PlayerID: playerID, Seat: q.Get("seat"), Outbox: out}) {
			return
		}
		defer send(lb, lobby.Leave{ClientID: clientID})

		// Writer goroutine
		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()
		go func() {
			for f := range out {
				payload, err := json.Marshal(toServerMessage(f))
				if err != nil {
					log.Error("marshal frame", zap.Error(err))
					continue
				}
				ctx, cancel := context.WithTimeout(writeCtx, writeTimeout)
				err = conn.Write(ctx, websocket.MessageText, payload)
				cancel()
				if err != nil {
					return
				}
			}
			// The lobby closed our outbox: dropped as too slow or shut down.
			conn.Close(websocket.StatusGoingAway, "lobby closed")
		}()

		// Reader loop. No read deadline: a seated player may sit through the
		// opponent's whole turn, and an expired read context closes the conn.
		for {
			_, data, err := conn.Read(r.Context())
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				default:
					log.Debug("websocket read ended", zap.Error(err))
				}
				return // lobby.Leave in defer
			}

			cm, err := decodeClientMessage(data)
			if err != nil {
				writeError(r.Context(), conn, err)
				continue
			}
			if !send(lb, lobby.FromClient{ClientID: clientID, Msg: cm}) {
				return
			}
		}
	}
}

// send delivers msg unless the lobby has already stopped.
func send(lb *lobby.Lobby, msg lobby.Msg) bool {
	select {
	case lb.Inbox() <- msg:
		return true
	case <-lb.Done():
		return false
	}
}

func decodeClientMessage(data []byte) (types.ClientMessage, error) {
	var cm types.ClientMessage
	if err := json.Unmarshal(data, &cm); err != nil {
		return cm, errBadJSON
	}
	if err := validate.Struct(cm); err != nil {
		return cm, err
	}
	return cm, nil
}

func toServerMessage(f lobby.Frame) types.ServerMessage {
	msg := types.ServerMessage{Type: string(f.Kind), Event: string(f.Event), Seat: f.Seat}
	if f.Kind == lobby.FrameError {
		msg.Error = f.Payload
	} else {
		msg.Payload = f.Payload
	}
	return msg
}

func writeError(ctx context.Context, conn *websocket.Conn, err error) {
	payload, _ := json.Marshal(types.ServerMessage{Type: string(lobby.FrameError), Error: err.Error()})
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	_ = conn.Write(ctx, websocket.MessageText, payload)
}

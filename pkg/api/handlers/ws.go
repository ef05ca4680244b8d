package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	authproviders "github.com/duobloom/garden/pkg/auth/providers"
	"github.com/duobloom/garden/pkg/game"
	"github.com/duobloom/garden/pkg/log"
	"github.com/duobloom/garden/pkg/messages"
	"github.com/duobloom/garden/pkg/room"
	"github.com/duobloom/garden/pkg/store"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

func unmarshalIntent(payload json.RawMessage, intent *messages.Intent) error {
	if err := json.Unmarshal(payload, intent); err != nil {
		return fmt.Errorf("failed to unmarshal intent: %v", err)
	}
	if err := validate.Struct(intent); err != nil {
		return fmt.Errorf("invalid intent: %v", err)
	}
	return nil
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// HandleRoomSocket upgrades to a WebSocket carrying zstd-compressed
// message envelopes: the server pushes room snapshots, the client sends
// intents and receives a typed result per intent. Browsers cannot set
// headers on WebSocket upgrades, so the token travels as a query
// parameter; `spectate=1` skips auth and pins the connection read-only.
func HandleRoomSocket(hub *room.Hub, authProvider authproviders.AuthProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := mux.Vars(r)["code"]

		var actor game.Actor
		if r.URL.Query().Get("spectate") == "1" {
			actor = game.Actor{Spectator: true}
		} else {
			claims, err := authProvider.VerifyToken(r.Context(), r.URL.Query().Get("token"))
			if err != nil {
				log.Debug("failed to verify ID token: %v", err)
				http.Error(w, "failed to verify ID token", http.StatusUnauthorized)
				return
			}
			actor = game.Actor{UserID: claims.UID}
		}

		sess, err := hub.Session(r.Context(), code)
		if err != nil {
			if store.IsNotFound(err) {
				http.Error(w, "Room not found", http.StatusNotFound)
				return
			}
			log.Error("failed to get session for room %s: %v", code, err)
			http.Error(w, "Failed to get room session", http.StatusInternalServerError)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Error("Failed to upgrade to WebSocket: %v", err)
			return
		}
		log.Debug("New WebSocket connection from %s for room %s", conn.RemoteAddr().String(), code)
		defer conn.Close()

		// The snapshot pump and the intent reader both write to the
		// connection; gorilla allows one concurrent writer only.
		var writeLock sync.Mutex
		writeMessage := func(messageType string, payload interface{}) error {
			msg, err := messages.NewMessage(messageType, payload)
			if err != nil {
				return err
			}
			b, err := messages.SerializeMessage(msg)
			if err != nil {
				return err
			}
			writeLock.Lock()
			defer writeLock.Unlock()
			return conn.WriteMessage(websocket.BinaryMessage, b)
		}

		listenerID, snapshots := sess.AddListener()
		defer sess.RemoveListener(listenerID)

		go func() {
			for snap := range snapshots {
				err := writeMessage(messages.MessageTypeServerSnapshot, &messages.ServerSnapshot{
					Code:    snap.Code,
					Version: snap.Version,
					Room:    snap.Room,
				})
				if err != nil {
					log.Trace("Failed to write snapshot to %s: %v", conn.RemoteAddr().String(), err)
					return
				}
			}
		}()

		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Error("Error reading WebSocket message from %s: %v", conn.RemoteAddr().String(), err)
				}
				log.Trace("Connection closed for %s", conn.RemoteAddr().String())
				return
			}

			msg, err := messages.DeserializeMessage(data)
			if err != nil {
				log.Debug("Failed to deserialize message: %v", err)
				_ = writeMessage(messages.MessageTypeServerError, &messages.ServerError{Message: "malformed message"})
				continue
			}
			if msg.Type != messages.MessageTypeClientIntent {
				_ = writeMessage(messages.MessageTypeServerError, &messages.ServerError{Message: "unexpected message type"})
				continue
			}

			intent := &messages.Intent{}
			if err := unmarshalIntent(msg.Payload, intent); err != nil {
				_ = writeMessage(messages.MessageTypeServerError, &messages.ServerError{Message: err.Error()})
				continue
			}

			result, err := sess.Apply(r.Context(), actor, intent)
			if err != nil {
				_ = writeMessage(messages.MessageTypeServerError, &messages.ServerError{Message: err.Error()})
				continue
			}

			serverResult := &messages.ServerResult{
				Intent: intent.Type,
				Status: result.Status.String(),
			}
			if result.Reason != nil {
				serverResult.Reason = result.Reason.Error()
			}
			if err := writeMessage(messages.MessageTypeServerResult, serverResult); err != nil {
				log.Trace("Failed to write result to %s: %v", conn.RemoteAddr().String(), err)
				return
			}
		}
	}
}

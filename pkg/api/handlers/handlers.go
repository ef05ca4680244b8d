package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/duobloom/garden/pkg/api/middleware"
	"github.com/duobloom/garden/pkg/log"
	"github.com/duobloom/garden/pkg/room"
	"github.com/duobloom/garden/pkg/store"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
)

var validate = validator.New()

type createRoomRequest struct {
	RoomName string `json:"roomName" validate:"max=32"`
}

type createRoomResponse struct {
	Code string `json:"code"`
}

func HandleCreateRoom(hub *room.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.ClaimsFromContext(r.Context())
		if !ok {
			log.Error("failed to get claims from context")
			http.Error(w, "Failed to get claims from context", http.StatusInternalServerError)
			return
		}

		req := createRoomRequest{}
		if r.Body != nil {
			// An empty body founds a room with the default name.
			_ = json.NewDecoder(r.Body).Decode(&req)
		}
		if err := validate.Struct(&req); err != nil {
			http.Error(w, "Invalid room name", http.StatusBadRequest)
			return
		}

		code, err := hub.CreateRoom(r.Context(), claims.UID, claims.Name, req.RoomName)
		if err != nil {
			log.Error("failed to create room: %v", err)
			http.Error(w, "Failed to create room", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Access-Control-Allow-Origin", "*")
		if err := json.NewEncoder(w).Encode(createRoomResponse{Code: code}); err != nil {
			log.Error("failed to encode response: %v", err)
			http.Error(w, "Failed to encode response", http.StatusInternalServerError)
			return
		}
	}
}

func HandleGetRoom(hub *room.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := mux.Vars(r)["code"]

		roomDoc, err := hub.Room(r.Context(), code)
		if err != nil {
			if store.IsNotFound(err) {
				http.Error(w, "Room not found", http.StatusNotFound)
				return
			}
			log.Error("failed to get room %s: %v", code, err)
			http.Error(w, "Failed to get room", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Access-Control-Allow-Origin", "*")
		if err := json.NewEncoder(w).Encode(roomDoc); err != nil {
			log.Error("failed to encode room: %v", err)
			http.Error(w, "Failed to encode room", http.StatusInternalServerError)
			return
		}
	}
}

func HandleJoinRoom(hub *room.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.ClaimsFromContext(r.Context())
		if !ok {
			log.Error("failed to get claims from context")
			http.Error(w, "Failed to get claims from context", http.StatusInternalServerError)
			return
		}
		code := mux.Vars(r)["code"]

		if err := hub.Join(r.Context(), code, claims.UID); err != nil {
			if store.IsNotFound(err) {
				http.Error(w, "Room not found", http.StatusNotFound)
				return
			}
			log.Error("failed to join room %s: %v", code, err)
			http.Error(w, "Failed to join room", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.WriteHeader(http.StatusNoContent)
	}
}

func HandleLikeRoom(hub *room.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := mux.Vars(r)["code"]

		if err := hub.Like(r.Context(), code); err != nil {
			if store.IsNotFound(err) {
				http.Error(w, "Room not found", http.StatusNotFound)
				return
			}
			log.Error("failed to like room %s: %v", code, err)
			http.Error(w, "Failed to like room", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.WriteHeader(http.StatusNoContent)
	}
}

package rooms

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/Vasu1712/scenyx-live/internal/models"
	"github.com/Vasu1712/scenyx-live/internal/storage"
)

const defaultPresetLimit = 50

// RoomReader is the part of the hub the REST surface reads from.
type RoomReader interface {
	RoomState(ctx context.Context, roomID string) (*models.RoomState, error)
	ChatHistory(ctx context.Context, roomID string) ([]models.ChatMessage, error)
	Stats() (connections, rooms int)
}

// Handler holds the dependencies for the read-only room and preset endpoints.
type Handler struct {
	Rooms   RoomReader
	Presets storage.PresetStore
}

// GetRoomState returns the live or cached snapshot of a room.
func (h *Handler) GetRoomState(w http.ResponseWriter, r *http.Request) {
	roomID := mux.Vars(r)["roomId"]
	state, err := h.Rooms.RoomState(r.Context(), roomID)
	if err != nil {
		writeLookupError(w, "GetRoomState", "room not found", err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// GetChatHistory returns a room's bounded chat history, oldest first.
func (h *Handler) GetChatHistory(w http.ResponseWriter, r *http.Request) {
	roomID := mux.Vars(r)["roomId"]
	history, err := h.Rooms.ChatHistory(r.Context(), roomID)
	if errors.Is(err, storage.ErrNotFound) {
		history, err = []models.ChatMessage{}, nil
	}
	if err != nil {
		writeLookupError(w, "GetChatHistory", "chat history not found", err)
		return
	}
	if history == nil {
		history = []models.ChatMessage{}
	}
	writeJSON(w, http.StatusOK, history)
}

// ListPresets returns public presets, most used first. ?limit= caps the result.
func (h *Handler) ListPresets(w http.ResponseWriter, r *http.Request) {
	limit := defaultPresetLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, models.CodeBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	presets, err := h.Presets.List(r.Context(), limit)
	if err != nil {
		writeLookupError(w, "ListPresets", "", err)
		return
	}
	if presets == nil {
		presets = []models.Preset{}
	}
	writeJSON(w, http.StatusOK, presets)
}

// GetPreset returns a single preset by id.
func (h *Handler) GetPreset(w http.ResponseWriter, r *http.Request) {
	presetID := mux.Vars(r)["presetId"]
	preset, err := h.Presets.Get(r.Context(), presetID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, models.CodePresetNotFound, "preset not found")
			return
		}
		writeLookupError(w, "GetPreset", "", err)
		return
	}
	writeJSON(w, http.StatusOK, preset)
}

// Health reports liveness together with the hub's connection and room counts.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	conns, rooms := h.Rooms.Stats()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":      "ok",
		"connections": conns,
		"rooms":       rooms,
	})
}

func writeLookupError(w http.ResponseWriter, function, notFound string, err error) {
	if notFound != "" && errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, models.CodeNotFound, notFound)
		return
	}
	logrus.WithFields(logrus.Fields{
		"function": function,
		"error":    err.Error(),
	}).Error("Request failed")
	writeError(w, http.StatusInternalServerError, models.CodeInternal, "internal error")
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, models.ErrorPayload{Code: code, Message: message})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "writeJSON",
			"error":    err.Error(),
		}).Warn("Failed to encode response")
	}
}

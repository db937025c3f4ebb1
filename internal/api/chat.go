package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/MikeSquared-Agency/RiskRater/internal/chat"
	"github.com/MikeSquared-Agency/RiskRater/internal/hermes"
)

type ChatHandler struct {
	relay  *chat.Relay
	hermes hermes.Client
	logger *slog.Logger
}

func NewChatHandler(relay *chat.Relay, h hermes.Client, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{relay: relay, hermes: h, logger: logger}
}

type ChatRequest struct {
	Message string `json:"message"`
}

type ChatResponse struct {
	Response string `json:"response"`
}

const offlineMsg = "Sorry, the assistant is currently offline or busy."

func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	reply, err := h.relay.Send(r.Context(), req.Message)
	switch {
	case errors.Is(err, chat.ErrEmptyMessage):
		writeJSON(w, http.StatusBadRequest, ChatResponse{Response: "Please send a message."})
		return
	case errors.Is(err, chat.ErrNoBackend):
		chatRelays.WithLabelValues("disabled").Inc()
		writeJSON(w, http.StatusServiceUnavailable, ChatResponse{Response: offlineMsg})
		return
	case err != nil:
		chatRelays.WithLabelValues("error").Inc()
		h.logger.Error("chat relay failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, ChatResponse{Response: offlineMsg})
		return
	}

	chatRelays.WithLabelValues("ok").Inc()
	publish(h.hermes, h.logger, hermes.SubjectChatRelayed, hermes.ChatRelayedEvent{
		MessageChars:  len(req.Message),
		ResponseChars: len(reply.Response),
		DurationMs:    reply.Duration.Milliseconds(),
	})
	writeJSON(w, http.StatusOK, ChatResponse{Response: reply.Response})
}

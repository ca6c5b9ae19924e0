package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/meydan/internal/service"
)

type MessageHandler struct {
	messages *service.MessageService
	logger   *slog.Logger
}

func NewMessageHandler(messages *service.MessageService, logger *slog.Logger) *MessageHandler {
	return &MessageHandler{messages: messages, logger: logger}
}

// HTTP: GET /api/conversations
func (h *MessageHandler) HandleConversations(w http.ResponseWriter, r *http.Request) {
	list, err := h.messages.Conversations(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// HTTP: GET /api/conversations/{id}
func (h *MessageHandler) HandleThread(w http.ResponseWriter, r *http.Request) {
	thread, err := h.messages.Thread(r.Context(), idParam(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, thread)
}

type sendRequest struct {
	Content string `json:"content"`
}

// HTTP: POST /api/conversations/{id}
// REQUEST BODY: {"content": "..."}
func (h *MessageHandler) HandleSend(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	msg, err := h.messages.Send(r.Context(), idParam(r), req.Content)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

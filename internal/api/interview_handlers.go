package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/hireloop-ai/hireloop/internal/models"
)

func (s *Server) createSessionHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	id, ok := identityFrom(r)
	if !ok {
		writeErrorEnvelope(w, http.StatusUnauthorized, "Missing identity")
		return
	}
	slog.Debug("Server.createSessionHandler: processing create-session request", "uid", id.UID)
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req models.CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.createSessionHandler: failed to decode JSON", "error", err, "uid", id.UID)
		writeErrorEnvelope(w, http.StatusBadRequest, "Invalid JSON format")
		return
	}
	if err := req.Validate(); err != nil {
		writeErrorEnvelope(w, http.StatusBadRequest, err.Error())
		return
	}

	handle, err := s.controller.CreateSession(r.Context(), id.UID, req.JobDetails)
	if err != nil {
		slog.Error("Server.createSessionHandler: create session failed", "error", err, "uid", id.UID)
		writeDomainError(w, err)
		return
	}
	writeEnvelope(w, http.StatusOK, "Interview session created", map[string]string{
		"agent_session_id": handle,
	})
}

func (s *Server) sendMessageHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	id, ok := identityFrom(r)
	if !ok {
		writeErrorEnvelope(w, http.StatusUnauthorized, "Missing identity")
		return
	}
	slog.Debug("Server.sendMessageHandler: processing send-message request", "uid", id.UID)
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req models.SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.sendMessageHandler: failed to decode JSON", "error", err, "uid", id.UID)
		writeErrorEnvelope(w, http.StatusBadRequest, "Invalid JSON format")
		return
	}
	if err := req.Validate(); err != nil {
		writeErrorEnvelope(w, http.StatusBadRequest, err.Error())
		return
	}

	ms, err := s.controller.SendMessage(r.Context(), id.UID, req.Message)
	if err != nil {
		slog.Error("Server.sendMessageHandler: send message failed", "error", err, "uid", id.UID)
		writeDomainError(w, err)
		return
	}

	flusher, canFlush := w.(http.Flusher)
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	for chunk := range ms.Chunks() {
		if _, err := w.Write([]byte(chunk)); err != nil {
			// The client is gone; the controller keeps buffering without us.
			slog.Warn("Server.sendMessageHandler: client write failed", "error", err, "uid", id.UID)
			break
		}
		if canFlush {
			flusher.Flush()
		}
	}

	// Bookkeeping outcomes land after the stream; surface them in the log
	// since the response status is already committed.
	<-ms.Done()
	if err := ms.Err(); err != nil {
		slog.Error("Server.sendMessageHandler: turn failed after stream", "error", err, "uid", id.UID)
		return
	}
	slog.Debug("Server.sendMessageHandler: turn complete", "uid", id.UID)
}

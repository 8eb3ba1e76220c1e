package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/hireloop-ai/hireloop/internal/models"
	"github.com/hireloop-ai/hireloop/internal/store"
)

func (s *Server) dashboardHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFrom(r)
	if !ok {
		writeErrorEnvelope(w, http.StatusUnauthorized, "Missing identity")
		return
	}
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	view, err := s.dashboard.GetDashboard(r.Context(), id.UID)
	if err != nil {
		slog.Error("Server.dashboardHandler: aggregate failed", "error", err, "uid", id.UID)
		writeDomainError(w, err)
		return
	}
	writeEnvelope(w, http.StatusOK, "Dashboard data", view)
}

func (s *Server) interviewRunsHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFrom(r)
	if !ok {
		writeErrorEnvelope(w, http.StatusUnauthorized, "Missing identity")
		return
	}
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	view, err := s.dashboard.GetAllInterviewRuns(r.Context(), id.UID)
	if err != nil {
		slog.Error("Server.interviewRunsHandler: aggregate failed", "error", err, "uid", id.UID)
		writeDomainError(w, err)
		return
	}
	writeEnvelope(w, http.StatusOK, "Interview runs", view)
}

func (s *Server) turnsBySessionHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	id, ok := identityFrom(r)
	if !ok {
		writeErrorEnvelope(w, http.StatusUnauthorized, "Missing identity")
		return
	}
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req models.TurnQueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.turnsBySessionHandler: failed to decode JSON", "error", err, "uid", id.UID)
		writeErrorEnvelope(w, http.StatusBadRequest, "Invalid JSON format")
		return
	}
	if err := req.Validate(); err != nil {
		writeErrorEnvelope(w, http.StatusBadRequest, err.Error())
		return
	}
	turns, err := s.dashboard.GetTurnsBySession(r.Context(), id.UID, req.IID)
	if err != nil {
		slog.Error("Server.turnsBySessionHandler: read failed", "error", err, "uid", id.UID, "iid", req.IID)
		writeDomainError(w, err)
		return
	}
	writeEnvelope(w, http.StatusOK, "Session turns", turns)
}

func (s *Server) allTurnsHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFrom(r)
	if !ok {
		writeErrorEnvelope(w, http.StatusUnauthorized, "Missing identity")
		return
	}
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	turns, err := s.dashboard.GetAllTurns(r.Context(), id.UID)
	if err != nil {
		slog.Error("Server.allTurnsHandler: read failed", "error", err, "uid", id.UID)
		writeDomainError(w, err)
		return
	}
	writeEnvelope(w, http.StatusOK, "All turns", turns)
}

func (s *Server) qnaHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFrom(r)
	if !ok {
		writeErrorEnvelope(w, http.StatusUnauthorized, "Missing identity")
		return
	}
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	iid, err := strconv.ParseInt(r.URL.Query().Get("iid"), 10, 64)
	if err != nil || iid <= 0 {
		writeErrorEnvelope(w, http.StatusBadRequest, "iid query parameter must be a positive integer")
		return
	}
	pairs, err := s.dashboard.GetQnABySession(r.Context(), id.UID, iid)
	if err != nil {
		slog.Error("Server.qnaHandler: read failed", "error", err, "uid", id.UID, "iid", iid)
		writeDomainError(w, err)
		return
	}
	writeEnvelope(w, http.StatusOK, "Session QnA", pairs)
}

func (s *Server) practiceHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFrom(r)
	if !ok {
		writeErrorEnvelope(w, http.StatusUnauthorized, "Missing identity")
		return
	}
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	plans, tasks, err := s.dashboard.GetPracticeDetails(r.Context(), id.UID)
	if err != nil {
		slog.Error("Server.practiceHandler: read failed", "error", err, "uid", id.UID)
		writeDomainError(w, err)
		return
	}
	writeEnvelope(w, http.StatusOK, "Practice details", map[string]interface{}{
		"PracticePlans": plans,
		"PracticeTasks": tasks,
	})
}

func (s *Server) uploadDataHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	id, ok := identityFrom(r)
	if !ok {
		writeErrorEnvelope(w, http.StatusUnauthorized, "Missing identity")
		return
	}
	slog.Debug("Server.uploadDataHandler: processing resume upload", "uid", id.UID)
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req models.UploadDataRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.uploadDataHandler: failed to decode JSON", "error", err, "uid", id.UID)
		writeErrorEnvelope(w, http.StatusBadRequest, "Invalid JSON format")
		return
	}
	if err := req.Validate(); err != nil {
		writeErrorEnvelope(w, http.StatusBadRequest, err.Error())
		return
	}

	cvid, err := s.store.NextID(store.SeqResume)
	if err != nil {
		slog.Error("Server.uploadDataHandler: id allocation failed", "error", err, "uid", id.UID)
		writeErrorEnvelope(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	now := time.Now()
	raw := strings.Join([]string{req.ResumeSummary, req.Education, req.WorkExperience, req.Projects, req.Skills}, "\n\n")
	resume := models.Resume{
		CVID: cvid, UID: id.UID, Active: true,
		ResumeSummary: req.ResumeSummary,
		Education:     req.Education,
		WorkEx:        req.WorkExperience,
		Projects:      req.Projects,
		Skills:        req.Skills,
		ResumeRaw:     raw,
		ParserVersion: "client-v1",
		CreatedAt:     now, UpdatedAt: now,
	}
	if err := s.store.CreateResume(resume); err != nil {
		slog.Error("Server.uploadDataHandler: create resume failed", "error", err, "uid", id.UID)
		writeDomainError(w, err)
		return
	}
	slog.Info("Server.uploadDataHandler: resume stored", "uid", id.UID, "cvid", cvid)
	writeEnvelope(w, http.StatusOK, "Resume stored", map[string]int64{"cvid": cvid})
}

package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"log/slog"

	"github.com/garnizeh/curator/internal/ats"
	"github.com/garnizeh/curator/internal/jobs"
	"github.com/garnizeh/curator/pkg/models"
	"github.com/garnizeh/curator/pkg/repository"
)

type ATSHandler struct {
	connections repository.ATSRepo
	queue       Enqueuer
}

func NewATSHandler(ar repository.ATSRepo, queue Enqueuer) *ATSHandler {
	return &ATSHandler{connections: ar, queue: queue}
}

type connectionRequest struct {
	Provider string `json:"provider"`
	APIKey   string `json:"api_key"`
}

// CreateConnection stores or replaces the board credential for a
// (company, provider) pair.
func (h *ATSHandler) CreateConnection(w http.ResponseWriter, r *http.Request) {
	companyID, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "invalid company id", http.StatusBadRequest)
		return
	}

	var req connectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	req.Provider = strings.TrimSpace(req.Provider)
	req.APIKey = strings.TrimSpace(req.APIKey)
	if req.Provider == "" || req.APIKey == "" {
		http.Error(w, "provider and api_key are required", http.StatusBadRequest)
		return
	}
	if req.Provider != ats.ProviderGreenhouse {
		http.Error(w, "unsupported provider", http.StatusBadRequest)
		return
	}

	conn := &models.ATSConnection{CompanyID: companyID, Provider: req.Provider, APIKey: req.APIKey}
	id, err := h.connections.UpsertATSConnection(r.Context(), conn)
	if err != nil {
		http.Error(w, "failed to store connection", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]any{"id": id, "provider": req.Provider}, http.StatusCreated)
}

type syncRequest struct {
	Provider string `json:"provider"`
}

// Sync schedules a background board sync for an existing connection.
func (h *ATSHandler) Sync(w http.ResponseWriter, r *http.Request) {
	companyID, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "invalid company id", http.StatusBadRequest)
		return
	}

	var req syncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	req.Provider = strings.TrimSpace(req.Provider)
	if req.Provider == "" {
		http.Error(w, "provider is required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	conn, err := h.connections.GetATSConnection(ctx, companyID, req.Provider)
	if err != nil {
		http.Error(w, "failed to load connection", http.StatusInternalServerError)
		return
	}
	if conn == nil {
		http.Error(w, "no connection for provider", http.StatusNotFound)
		return
	}

	payload := map[string]any{"company_id": companyID, "provider": req.Provider}
	if err := enqueue(ctx, h.queue, jobs.TypeATSSync, payload); err != nil {
		logger.Error("enqueue ats sync", slog.Int64("company_id", companyID), slog.Any("err", err))
		http.Error(w, "failed to schedule sync", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]string{"status": "syncing"}, http.StatusAccepted)
}

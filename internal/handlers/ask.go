package handlers

import (
	"encoding/json"
	"net/http"

	"workspace-ai/internal/contextutil"
	"workspace-ai/internal/search"
)

// AskRequest is the HTTP payload for a question-answering query.
type AskRequest struct {
	WorkspaceID string `json:"workspace_id"`
	Question    string `json:"question"`
}

// AskResponse carries the synthesized answer and the cited sources.
type AskResponse struct {
	Answer  string          `json:"answer"`
	Sources []search.Source `json:"sources"`
}

// AskHandler handles question-answering over indexed workspace content.
type AskHandler struct {
	engine Searcher
}

// NewAskHandler creates a new AskHandler.
func NewAskHandler(engine Searcher) *AskHandler {
	return &AskHandler{engine: engine}
}

func (h *AskHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := contextutil.LoggerFromContext(r.Context())

	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.WorkspaceID == "" || req.Question == "" {
		writeError(w, http.StatusBadRequest, "workspace_id and question are required")
		return
	}

	answer, err := h.engine.Answer(r.Context(), req.WorkspaceID, req.Question)
	if err != nil {
		logger.ErrorContext(r.Context(), "answer synthesis failed", "workspace_id", req.WorkspaceID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to answer question")
		return
	}

	writeJSON(w, http.StatusOK, AskResponse{Answer: answer.Answer, Sources: answer.Sources})
}

package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"workspace-ai/internal/contextutil"
	"workspace-ai/internal/search"
)

// Searcher is the retrieval and answer-synthesis dependency.
type Searcher interface {
	SearchWorkspace(ctx context.Context, workspaceID, query string) ([]search.Result, error)
	Answer(ctx context.Context, workspaceID, question string) (*search.Answer, error)
}

// SearchRequest is the HTTP payload for a workspace search.
type SearchRequest struct {
	WorkspaceID string `json:"workspace_id"`
	Query       string `json:"query"`
}

// SearchResponse wraps ranked search results. Results is always present,
// empty when nothing matched — distinct from an error reply.
type SearchResponse struct {
	Results []search.Result `json:"results"`
}

// SearchHandler handles workspace search queries.
type SearchHandler struct {
	engine Searcher
}

// NewSearchHandler creates a new SearchHandler.
func NewSearchHandler(engine Searcher) *SearchHandler {
	return &SearchHandler{engine: engine}
}

func (h *SearchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := contextutil.LoggerFromContext(r.Context())

	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.WorkspaceID == "" || req.Query == "" {
		writeError(w, http.StatusBadRequest, "workspace_id and query are required")
		return
	}

	results, err := h.engine.SearchWorkspace(r.Context(), req.WorkspaceID, req.Query)
	if err != nil {
		logger.ErrorContext(r.Context(), "search failed", "workspace_id", req.WorkspaceID, "error", err)
		writeError(w, http.StatusInternalServerError, "search failed")
		return
	}
	if results == nil {
		results = []search.Result{}
	}

	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

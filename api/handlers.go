package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/gonbooster/AIArriendo-sub002/models"
	"github.com/gonbooster/AIArriendo-sub002/schema"
	"github.com/gonbooster/AIArriendo-sub002/services"
	"github.com/gonbooster/AIArriendo-sub002/utils"
)

// Handler exposes the search boundary over HTTP.
type Handler struct {
	search   *services.SearchService
	registry *schema.Registry
	logger   *utils.Logger
}

// NewHandler creates the API handler.
func NewHandler(search *services.SearchService, registry *schema.Registry, logger *utils.Logger) *Handler {
	return &Handler{search: search, registry: registry, logger: logger}
}

// Router builds the HTTP routes.
func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", h.health).Methods(http.MethodGet)
	r.HandleFunc("/api/providers", h.providers).Methods(http.MethodGet)
	r.HandleFunc("/api/search", h.handleSearch).Methods(http.MethodPost)
	return r
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) providers(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"providers": h.registry.Providers()})
}

// handleSearch validates the request and runs the search. Structural
// problems (malformed criteria, unknown explicit provider ids) are the
// only client-visible errors; they surface before any scraping starts.
func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req models.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	result, err := h.search.Search(r.Context(), req)
	if err != nil {
		h.logger.Warn("rejected search request: %v", err)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

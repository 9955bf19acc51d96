package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"auction-bargains/models"
	"auction-bargains/services"
	"auction-bargains/storage"
	"auction-bargains/utils"
)

// Handler serves the stored deal results read-only.
type Handler struct {
	deals    storage.DealReader
	insights *services.InsightService
	logger   *utils.Logger
}

func NewHandler(deals storage.DealReader, insights *services.InsightService, logger *utils.Logger) *Handler {
	return &Handler{deals: deals, insights: insights, logger: logger}
}

// Router returns the mux with every route registered.
func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", h.handleHealth).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/deals", h.handleDeals).Methods(http.MethodGet)
	api.HandleFunc("/deals/{auction_id}", h.handleDeal).Methods(http.MethodGet)
	api.HandleFunc("/stats", h.handleStats).Methods(http.MethodGet)
	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleDeals lists deals in ranked order, optionally filtered by
// reliability, city and a minimum deviation.
func (h *Handler) handleDeals(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var minDeviation *float64
	if raw := q.Get("min_deviation"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "min_deviation must be a number")
			return
		}
		minDeviation = &v
	}
	reliability := models.Reliability(q.Get("reliability"))
	cityKey := services.CityKey(q.Get("city"))

	deals, err := h.deals.FetchDeals(r.Context())
	if err != nil {
		h.logger.Error("[api] Fetch deals failed: %v", err)
		writeError(w, http.StatusInternalServerError, "could not load deals")
		return
	}

	filtered := make([]models.DealResult, 0, len(deals))
	for _, d := range deals {
		if reliability != "" && d.Reliability != reliability {
			continue
		}
		if cityKey != "" && services.CityKey(d.City) != cityKey {
			continue
		}
		if minDeviation != nil && (d.DeviationPct == nil || *d.DeviationPct < *minDeviation) {
			continue
		}
		filtered = append(filtered, d)
	}
	writeJSON(w, http.StatusOK, filtered)
}

func (h *Handler) handleDeal(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["auction_id"]
	deal, err := h.deals.FetchDeal(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "no deal for auction "+id)
		return
	}
	if err != nil {
		h.logger.Error("[api] Fetch deal %s failed: %v", id, err)
		writeError(w, http.StatusInternalServerError, "could not load deal")
		return
	}
	writeJSON(w, http.StatusOK, deal)
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	deals, err := h.deals.FetchDeals(r.Context())
	if err != nil {
		h.logger.Error("[api] Fetch deals failed: %v", err)
		writeError(w, http.StatusInternalServerError, "could not load deals")
		return
	}
	writeJSON(w, http.StatusOK, h.insights.Generate(deals))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
